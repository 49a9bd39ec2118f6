// Init command for the ct CLI: creates the config directory and writes a
// default .config.yaml if one is not already present.
// Grounded on petar-djukic-crumbs/internal/cli/init.go's "write config.yaml
// if missing" step.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory and a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.WriteDefaultIfMissing()
		if err != nil {
			fatal("init", err)
		}
		fmt.Printf("config file: %s\n", path)
		return nil
	},
}
