package procsup

import (
	"os"
	"os/signal"
	"syscall"
)

// InstallSignalHandlers registers SIGINT/SIGTERM handling for the process
// (§4.4, §5 Cancellation & timeouts). On SIGINT: invoke onInterrupt (if
// non-nil), SIGKILL the published UI child if one is known, then exit 1. On
// SIGTERM: same cleanup, exit 0 (§5: "SIGTERM behaves the same but
// exits 0").
//
// Per §3 invariant 6, the actual OS signal delivery in Go always runs
// on a regular goroutine (never inside a restricted signal-handler
// context), so onInterrupt may safely do ordinary work; the constraint this
// function honors is that it performs only the documented cleanup steps in
// a fixed order, not arbitrary recovery logic.
func InstallSignalHandlers(onInterrupt func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if onInterrupt != nil {
			onInterrupt()
		}
		if pid := globalRegistry.uiPid.Load(); pid != 0 {
			if proc, err := os.FindProcess(int(pid)); err == nil {
				_ = proc.Kill()
			}
		}
		if sig == syscall.SIGTERM {
			os.Exit(0)
		}
		os.Exit(1)
	}()
}
