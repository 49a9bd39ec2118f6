// start_core command for the ct CLI (§4.8 `start_core TRACE_ARG
// CALLER_PID [--test]`).
package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/internal/paths"
	"github.com/metacraft-labs/codetracer-core/internal/procsup"
)

var startCoreCmd = &cobra.Command{
	Use:   "start_core TRACE_ID CALLER_PID",
	Short: "Start the core backend process for an already-resolved trace id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		traceID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("start_core", err)
		}
		callerPID, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("start_core", err)
		}

		corePath, err := paths.ResolveExe(coreBinaryName)
		if err != nil {
			fatal("start_core", err)
		}

		proc, err := procsup.StartCoreProcess(corePath, traceID, true, callerPID, flagTest)
		if err != nil {
			fatal("start_core", err)
		}

		code, err := proc.Wait()
		if err != nil {
			fatal("start_core", err)
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}
