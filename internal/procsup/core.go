package procsup

import (
	"fmt"

	"github.com/metacraft-labs/codetracer-core/internal/paths"
)

// StartCoreProcess launches the backend with (traceID, recordCore,
// callerPid, test) plus an env-derived log file path (§4.4
// start_core_process).
func StartCoreProcess(corePath string, traceID int64, recordCore bool, callerPid int, test bool) (*Process, error) {
	logPath, err := paths.EnsureLogPath("core", callerPid)
	if err != nil {
		return nil, fmt.Errorf("start core process: %w", err)
	}

	argv := []string{
		corePath,
		fmt.Sprint(traceID),
		fmt.Sprint(recordCore),
		fmt.Sprint(callerPid),
		fmt.Sprint(test),
		"--log-file", logPath,
	}

	proc, err := Spawn(SpawnOptions{Argv: argv, Stdio: StdioInherit})
	if err != nil {
		return nil, fmt.Errorf("start core process: %w", err)
	}
	PublishCoreProcessGroup(proc.Pid())
	return proc, nil
}
