package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/arctir/nucleus/kernel"
	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	tableFlag    = "table"
	debugFlag    = "debug"
	ncpuFlag     = "ncpu"
	tagFlag      = "tag"
	assetFlag    = "asset"
	remoteFlag   = "remote"
	inMemoryFlag = "in-memory"
)

// nucleusctlOpts mirrors the teacher's proctorOpts: a flat struct of
// resolved flag values, built once per command invocation by newOptions.
type nucleusctlOpts struct {
	table bool
	debug bool
	ncpu  int
}

func newOptions(fs *pflag.FlagSet) nucleusctlOpts {
	table, _ := fs.GetBool(tableFlag)
	debug, _ := fs.GetBool(debugFlag)
	ncpu, _ := fs.GetInt(ncpuFlag)
	return nucleusctlOpts{table: table, debug: debug, ncpu: ncpu}
}

// CLI flags to initialize.
func init() {
	for _, c := range []*cobra.Command{
		psCmd, forkCmd, exitCmd, waitCmd, killCmd, setCPUCmd, balanceCmd, bootCmd,
	} {
		c.Flags().Bool(tableFlag, false, "Render process output as a table instead of raw procdump lines.")
		c.Flags().Bool(debugFlag, false, "Dump the full process/CPU snapshot with go-spew instead of summary output.")
		c.Flags().Int(ncpuFlag, 0, "Number of simulated CPUs for the demo kernel (0 means detect the host's).")
	}

	fetchInitCmd.Flags().String(tagFlag, "", "Release tag to fetch the initcode asset from (default: latest).")
	fetchInitCmd.Flags().String(assetFlag, "", "Release asset name containing the initcode blob (default: \"initcode\").")

	serveCmd.Flags().Int(ncpuFlag, 0, "Number of simulated CPUs for the served kernel (0 means detect the host's).")

	provenanceCmd.Flags().String(remoteFlag, "", "Resolve provenance from a remote git URL instead of a local path, caching the clone under the XDG data dir.")
	provenanceCmd.Flags().Bool(inMemoryFlag, false, "With --remote, clone in memory instead of caching to disk.")
}

func output(out string) {
	fmt.Print(out)
}

func outputErrorAndFail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

// renderProcs formats a process snapshot per opts: go-spew debug dump,
// tablewriter table, or raw "<pid> <state> <name>" lines in procdump's
// layout, with full state names rather than procdump's abbreviations.
func renderProcs(snap kernel.Snapshot, opts nucleusctlOpts) string {
	if opts.debug {
		return spew.Sdump(snap)
	}
	if opts.table {
		return renderProcTable(snap)
	}
	var b bytes.Buffer
	for _, p := range snap.Procs {
		fmt.Fprintf(&b, "%d %s %s\n", p.PID, p.State, p.Name)
	}
	return b.String()
}

func renderProcTable(snap kernel.Snapshot) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"PID", "PPID", "State", "Name", "CPU", "Killed"})
	for _, p := range snap.Procs {
		table.Append([]string{
			strconv.Itoa(p.PID),
			strconv.Itoa(p.ParentPID),
			p.State,
			p.Name,
			strconv.Itoa(p.CPU),
			strconv.FormatBool(p.Killed),
		})
	}
	table.Render()
	return buf.String()
}
