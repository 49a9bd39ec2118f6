// Entry point for the ct CLI dispatcher (§4.8, component C8).
package main

import (
	"os"

	"github.com/metacraft-labs/codetracer-core/internal/procsup"
)

func main() {
	procsup.InstallSignalHandlers(nil)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}
