package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runBoot defines the behavior of running: `nucleusctl boot`
func runBoot(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("boot failed: %s", err))
	}
	defer k.Shutdown()

	output(renderProcs(k.Snapshot(), opts))
}
