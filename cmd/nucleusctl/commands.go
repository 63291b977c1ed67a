package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nucleusctl",
	Short: "A command-line tool for driving and inspecting a nucleus kernel.",
	Run:   runRoot,
}

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot a demo kernel and print its initial process table.",
	Run:   runBoot,
}

var psCmd = &cobra.Command{
	Use:     "ps",
	Aliases: []string{"list"},
	Short:   "Boot a demo kernel, fork a few processes, and list the process table.",
	Run:     runPS,
}

var forkCmd = &cobra.Command{
	Use:   "fork",
	Short: "Boot a demo kernel and fork a child off init.",
	Run:   runFork,
}

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Boot a demo kernel, fork a child, and exit it.",
	Run:   runExit,
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Boot a demo kernel, fork and exit a child, then wait on it from init.",
	Run:   runWait,
}

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Boot a demo kernel, fork a child, dispatch it, and kill it.",
	Run:   runKill,
}

var setCPUCmd = &cobra.Command{
	Use:   "setcpu",
	Short: "Boot a demo kernel and migrate a runnable process to another CPU.",
	Run:   runSetCPU,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Boot a demo kernel, skew load onto one CPU, and run the balancer.",
	Run:   runBalance,
}

var fetchInitCmd = &cobra.Command{
	Use:   "fetch-init [repo]",
	Short: "Fetch an initcode blob from a GitHub release, or print the embedded default.",
	Run:   runFetchInit,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot a demo kernel and serve its dashboard until interrupted.",
	Run:   runServe,
}

var provenanceCmd = &cobra.Command{
	Use:   "provenance [path]",
	Short: "Print the build commit hash of a git working copy (default: \".\").",
	Run:   runProvenance,
}

func init() {
	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(forkCmd)
	rootCmd.AddCommand(exitCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(setCPUCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(fetchInitCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(provenanceCmd)
}

// runRoot defines what should occur when `nucleusctl ...` is run with no
// subcommand.
func runRoot(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		cmd.Help()
		os.Exit(0)
	}
}
