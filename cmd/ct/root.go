// Root command for the ct CLI dispatcher (§4.8 C8).
// Grounded on petar-djukic-crumbs/cmd/cupboard/root.go's persistent-flag and
// subcommand-registration shape.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/internal/config"
	"github.com/metacraft-labs/codetracer-core/internal/paths"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
	"github.com/spf13/cobra"
)

// Exit codes per §6: 0 success, 1 error, RestartExitCode "UI requested
// restart".
const (
	exitSuccess = 0
	exitUserError = 1
)

const version = "0.1.0"

// Binary names under exe_dir (§4.1 "Resolves: ... exe_dir"), resolved via
// paths.ResolveExe rather than hardcoded ad hoc env vars.
const (
	uiBinaryName      = "codetracer-ui"
	coreBinaryName    = "codetracer-core"
	consoleBinaryName = "codetracer-console"
)

// Global persistent flags shared across the replay/console/upload triad and
// record/run (§4.8 Validation).
var (
	flagTest bool
)

var rootCmd = &cobra.Command{
	Use:     "ct",
	Short:   "CodeTracer: record and replay time-travel debugging traces",
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// (none): launches UI without a trace (§4.8 table).
		return launchBareUI()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagTest, "test", false, "use the test partition instead of production")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(traceMetadataCmd)
	rootCmd.AddCommand(startCoreCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(initCmd)
}

// partition maps the --test flag to a trace.Partition (§3 invariant 2).
func partition() trace.Partition {
	if flagTest {
		return trace.TestData
	}
	return trace.Production
}

// openCatalog opens the Catalog backed by the partition-appropriate db files
// under share_dir (§4.1, §4.2).
func openCatalog() (*catalog.Catalog, error) {
	traceDir, err := paths.TraceDir()
	if err != nil {
		return nil, fmt.Errorf("resolve trace dir: %w", err)
	}
	testDir, err := paths.TestDir()
	if err != nil {
		return nil, fmt.Errorf("resolve test dir: %w", err)
	}
	if err := paths.EnsureDir(traceDir); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	if err := paths.EnsureDir(testDir); err != nil {
		return nil, fmt.Errorf("create test dir: %w", err)
	}

	return catalog.Open(filepath.Join(traceDir, "trace.db"), filepath.Join(testDir, "trace.db"))
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ct: load config:", err)
		return config.Config{}
	}
	return cfg
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "ct: %s: %v\n", context, err)
	os.Exit(exitUserError)
}

func launchBareUI() error {
	uiPath, err := paths.ResolveExe(uiBinaryName)
	if err != nil {
		return fmt.Errorf("resolve UI binary: %w", err)
	}
	return runInheritingStdio([]string{uiPath})
}
