package main

import (
	"fmt"

	"github.com/arctir/nucleus/bootimage"
	"github.com/arctir/nucleus/dashboard"
	"github.com/arctir/nucleus/kernel"
	"github.com/spf13/cobra"
)

// runServe defines the behavior of running: `nucleusctl serve`
//
// Unlike every other subcommand, serve keeps its kernel's scheduler loops
// running and blocks, handing the live kernel to a dashboard.Dashboard.
func runServe(cmd *cobra.Command, args []string) {
	ncpu, _ := cmd.Flags().GetInt(ncpuFlag)

	gm := bootimage.NewGHManager()
	initCode, err := gm.FetchInitCode(bootimage.FetchInitCodeOpts{})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("serve: failed resolving initcode: %s", err))
	}

	k := kernel.NewKernel(kernel.Config{NCPU: ncpu, StealEnabled: true, Balance: true})
	if err := k.Boot(initCode); err != nil {
		outputErrorAndFail(fmt.Sprintf("serve: failed booting kernel: %s", err))
	}
	defer k.Shutdown()

	d := dashboard.New(k)
	d.Serve()
}
