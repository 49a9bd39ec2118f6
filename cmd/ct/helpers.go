// Shared helpers for ct CLI commands.
package main

import (
	"fmt"
	"os"

	"github.com/metacraft-labs/codetracer-core/internal/procsup"
)

// runInheritingStdio spawns argv with inherited stdio and waits. A non-zero
// child exit code ends this process with that same code; spawn and wait
// failures are returned as errors.
func runInheritingStdio(argv []string) error {
	proc, err := procsup.Spawn(procsup.SpawnOptions{Argv: argv, Stdio: procsup.StdioInherit})
	if err != nil {
		return fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	code, err := proc.Wait()
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
