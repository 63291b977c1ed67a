package main

import (
	"fmt"

	"github.com/arctir/nucleus/hostinfo"
	"github.com/arctir/nucleus/provenance"
	"github.com/spf13/cobra"
)

// runProvenance defines the behavior of running: `nucleusctl provenance [path]`.
// With --remote, it resolves a remote git URL instead (caching the clone
// under nucleus's XDG data dir via provenance.ResolveRepo, or cloning
// straight to memory with --in-memory). Alongside the commit hash, it
// prints a best-effort host-details panel (OS, kernel, architecture, CPU
// count, machine ID) so a build's provenance record captures both what
// code it came from and what it was built/run on.
func runProvenance(cmd *cobra.Command, args []string) {
	remote, _ := cmd.Flags().GetString(remoteFlag)
	inMemory, _ := cmd.Flags().GetBool(inMemoryFlag)

	var hash provenance.Hash
	var err error
	if remote != "" {
		hash, err = provenance.BuildCommitFromURL(remote, provenance.ResolveRepoOpts{InMemory: inMemory})
	} else {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		hash, err = provenance.BuildCommit(path)
	}
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("provenance: %s", err))
	}

	lr := hostinfo.NewLinuxReader(hostinfo.LinuxReaderConfig{})
	host := lr.Describe()

	output(fmt.Sprintf("commit: %s\nhost: %s %s, kernel %s, %s, %d cpu(s), id=%s\n",
		hash.String(),
		host.OS.Name, host.OS.Version,
		host.Kernel.Version,
		host.Hardware.Architecture, host.Hardware.CPU.CPUCount,
		host.HostID,
	))
}
