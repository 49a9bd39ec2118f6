// Replay/console/upload triad for the ct CLI (§4.8 "replay / console /
// upload"): mutually exclusive target-selection flags, shared resolution.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/internal/importexport"
	"github.com/metacraft-labs/codetracer-core/internal/paths"
	"github.com/metacraft-labs/codetracer-core/internal/replay"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

var (
	flagTargetID          int64
	flagTargetTraceFolder string
	flagTargetInteractive bool
)

func registerTargetFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&flagTargetID, "id", 0, "trace id")
	cmd.Flags().StringVarP(&flagTargetTraceFolder, "trace-folder", "t", "", "trace output folder")
	cmd.Flags().BoolVarP(&flagTargetInteractive, "interactive", "i", false, "force the interactive menu")
}

// resolveTarget implements §4.8 Validation: at most one of
// {pattern, id, trace-folder, interactive} may be set; none means
// interactive.
func resolveTarget(args []string) (replay.Target, error) {
	var pattern string
	if len(args) > 0 {
		pattern = args[0]
	}

	set := 0
	if pattern != "" {
		set++
	}
	if flagTargetID != 0 {
		set++
	}
	if flagTargetTraceFolder != "" {
		set++
	}
	if flagTargetInteractive {
		set++
	}
	if set > 1 {
		return replay.Target{}, fmt.Errorf("usage: at most one of PATTERN, --id, --trace-folder, --interactive may be set")
	}

	return replay.Target{
		ID:          flagTargetID,
		TraceFolder: flagTargetTraceFolder,
		Pattern:     pattern,
		Interactive: set == 0 || flagTargetInteractive,
	}, nil
}

var replayCmd = &cobra.Command{
	Use:   "replay [PATTERN]",
	Short: "Replay a trace in the UI",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(args)
		if err != nil {
			fatal("replay", err)
		}
		return dispatchTarget(target, true, false)
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console [PATTERN]",
	Short: "Replay a trace in the REPL console",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(args)
		if err != nil {
			fatal("console", err)
		}
		return dispatchTarget(target, false, false)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [PATTERN]",
	Short: "Upload a trace for remote sharing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(args)
		if err != nil {
			fatal("upload", err)
		}
		return dispatchTarget(target, false, true)
	},
}

func init() {
	registerTargetFlags(replayCmd)
	registerTargetFlags(consoleCmd)
	registerTargetFlags(uploadCmd)
}

func dispatchTarget(target replay.Target, ui bool, upload bool) error {
	cat, err := openCatalog()
	if err != nil {
		fatal("open catalog", err)
	}
	defer cat.Close()

	test := partition()
	tr, err := replay.Resolve(cat, target, test, bufio.NewReader(os.Stdin), bufio.NewWriter(os.Stdout))
	if err != nil {
		fatal("resolve trace", err)
	}

	if upload {
		return doUpload(cat, tr, test)
	}
	return replayTrace(tr, ui, test == trace.TestData)
}

func replayTrace(tr trace.Trace, ui bool, test bool) error {
	callerPID := os.Getpid()
	if ui {
		corePath, err := paths.ResolveExe(coreBinaryName)
		if err != nil {
			return fmt.Errorf("resolve core binary: %w", err)
		}
		uiPath, err := paths.ResolveExe(uiBinaryName)
		if err != nil {
			return fmt.Errorf("resolve UI binary: %w", err)
		}
		selfExe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve self executable: %w", err)
		}
		code, err := replay.LaunchUI(tr, replay.LaunchOptions{
			UIPath: uiPath, CorePath: corePath, CallerPID: callerPID, Test: test,
		}, true, selfExe, nil)
		if err != nil {
			return err
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	}

	consolePath, err := paths.ResolveExe(consoleBinaryName)
	if err != nil {
		return fmt.Errorf("resolve console binary: %w", err)
	}
	code, err := replay.LaunchREPL(tr, replay.LaunchOptions{ConsolePath: consolePath, CallerPID: callerPID, Test: test})
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

func doUpload(cat *catalog.Catalog, tr trace.Trace, test trace.Partition) error {
	cfg := loadConfig()
	if err := cfg.RequireSharing(); err != nil {
		return err
	}

	ep := importexport.RemoteEndpoints{
		WebAPIRoot:  cfg.WebAPIRoot,
		BaseURL:     cfg.BaseURL,
		DownloadAPI: cfg.DownloadAPI,
		DeleteAPI:   cfg.DeleteAPI,
	}
	result, err := importexport.Export(cat, tr, test, ep)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Println(result.Key.String())
	return nil
}
