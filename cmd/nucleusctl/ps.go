package main

import (
	"fmt"

	"github.com/arctir/nucleus/kernel"
	"github.com/spf13/cobra"
)

// runPS defines the behavior of running: `nucleusctl ps`
//
// It boots a demo kernel, forks a handful of children off init, exits one of
// them without waiting on it (so it lingers as a ZOMBIE), and prints the
// resulting process table.
func runPS(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("ps failed: %s", err))
	}
	defer k.Shutdown()

	initProc := k.Init()
	var children []*kernel.Proc
	for i := 0; i < 3; i++ {
		child, err := k.Fork(initProc)
		if err != nil {
			outputErrorAndFail(fmt.Sprintf("ps: fork %d failed: %s", i, err))
		}
		children = append(children, child)
	}

	if _, err := k.Dispatch(initProc.CPUNum()); err != nil {
		outputErrorAndFail(fmt.Sprintf("ps: dispatch failed: %s", err))
	}
	k.Exit(children[0], 0)

	output(renderProcs(k.Snapshot(), opts))
}
