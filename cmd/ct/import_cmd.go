// import command for the ct CLI (§4.8 `import ZIP [OUTPUT_DIR]`).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/internal/importexport"
	"github.com/metacraft-labs/codetracer-core/internal/paths"
)

var importCmd = &cobra.Command{
	Use:   "import ZIP [OUTPUT_DIR]",
	Short: "Import a trace from a local zip archive",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		zipPath := args[0]

		traceRoot, err := resolveImportRoot(args)
		if err != nil {
			fatal("import", err)
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("import", err)
		}
		defer cat.Close()

		tr, err := importexport.ImportFromZip(cat, zipPath, traceRoot, partition())
		if err != nil {
			fatal("import", err)
		}

		fmt.Printf("imported trace %d at %s\n", tr.ID, tr.OutputFolder)
		return nil
	},
}

func resolveImportRoot(args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	if flagTest {
		return paths.TestDir()
	}
	return paths.TraceDir()
}
