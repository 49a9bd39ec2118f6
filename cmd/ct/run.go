// Run command for the ct CLI (§4.8 `run`): record then replay, with
// the restart loop.
package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run PROGRAM [ARGS...]",
	Short: "Record PROGRAM and immediately replay it in the UI",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program := args[0]
		programArgs := args[1:]

		tr, err := doRecord(program, programArgs)
		if err != nil {
			fatal("run", err)
		}

		if err := replayTrace(tr, true, flagTest); err != nil {
			fatal("run: replay", err)
		}
		return nil
	},
}
