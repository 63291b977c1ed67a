package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runFork defines the behavior of running: `nucleusctl fork`
func runFork(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("fork failed: %s", err))
	}
	defer k.Shutdown()

	child, err := k.Fork(k.Init())
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("fork: %s", err))
	}

	fmt.Printf("forked pid=%d from init (pid=%d)\n", child.PID(), k.Init().PID())
	output(renderProcs(k.Snapshot(), opts))
}

// runExit defines the behavior of running: `nucleusctl exit`
func runExit(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("exit failed: %s", err))
	}
	defer k.Shutdown()

	child, err := k.Fork(k.Init())
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("exit: fork failed: %s", err))
	}
	k.Exit(child, 7)

	fmt.Printf("pid=%d exited with status 7\n", child.PID())
	output(renderProcs(k.Snapshot(), opts))
}

// runWait defines the behavior of running: `nucleusctl wait`
func runWait(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("wait failed: %s", err))
	}
	defer k.Shutdown()

	initProc := k.Init()
	child, err := k.Fork(initProc)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("wait: fork failed: %s", err))
	}
	k.Exit(child, 3)

	pid, status, err := k.Wait(initProc)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("wait: %s", err))
	}

	fmt.Printf("init reaped pid=%d with status %d\n", pid, status)
	output(renderProcs(k.Snapshot(), opts))
}

// runKill defines the behavior of running: `nucleusctl kill`
//
// It forks a child, dispatches it to RUNNING, and kills it. killed is
// sticky and only ever observed by the process itself at its next
// trap-to-user check, so the demo shows Killed() flip to true without the
// child's state changing — then exits it to leave a clean process table.
func runKill(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("kill failed: %s", err))
	}
	defer k.Shutdown()

	child, err := k.Fork(k.Init())
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("kill: fork failed: %s", err))
	}
	// init itself is still sitting at the head of cpu 0's runnable list from
	// boot, so it takes two dispatch steps to reach the child we just forked.
	for i := 0; i < 2; i++ {
		if _, err := k.Dispatch(child.CPUNum()); err != nil {
			outputErrorAndFail(fmt.Sprintf("kill: dispatch failed: %s", err))
		}
	}

	if err := k.Kill(child.PID()); err != nil {
		outputErrorAndFail(fmt.Sprintf("kill: %s", err))
	}
	fmt.Printf("pid=%d killed=%v\n", child.PID(), child.Killed())
	k.Exit(child, -1)

	output(renderProcs(k.Snapshot(), opts))
}

// runSetCPU defines the behavior of running: `nucleusctl setcpu`
func runSetCPU(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("setcpu failed: %s", err))
	}
	defer k.Shutdown()

	if len(k.CPUs()) < 2 {
		outputErrorAndFail("setcpu demo needs at least 2 CPUs; pass --ncpu 2 or more")
	}

	child, err := k.Fork(k.Init())
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("setcpu: fork failed: %s", err))
	}

	from := child.CPUNum()
	to := (from + 1) % len(k.CPUs())
	if err := k.SetCPU(child, to); err != nil {
		outputErrorAndFail(fmt.Sprintf("setcpu: %s", err))
	}

	fmt.Printf("pid=%d moved from cpu %d to cpu %d\n", child.PID(), from, to)
	output(renderProcs(k.Snapshot(), opts))
}

// runBalance defines the behavior of running: `nucleusctl balance`
//
// It forks several children (all landing on the same CPU, since the demo
// kernel runs with Config.Balance off), then calls Balance and reports how
// many processes migrated.
func runBalance(cmd *cobra.Command, args []string) {
	opts := newOptions(cmd.Flags())
	k, err := bootDemoKernel(opts)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("balance failed: %s", err))
	}
	defer k.Shutdown()

	for i := 0; i < 6; i++ {
		if _, err := k.Fork(k.Init()); err != nil {
			outputErrorAndFail(fmt.Sprintf("balance: fork %d failed: %s", i, err))
		}
	}

	moved := k.Balance()
	fmt.Printf("balancer migrated %d process(es)\n", moved)
	output(renderProcs(k.Snapshot(), opts))
}
