// Record command for the ct CLI (§4.8 `record`).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/internal/importexport"
	"github.com/metacraft-labs/codetracer-core/internal/recorder"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

var (
	flagRecordLang    string
	flagRecordOutDir  string
	flagRecordExport  string
	flagRecordConsole bool
	flagRecordBackend string
)

var recordCmd = &cobra.Command{
	Use:   "record PROGRAM [ARGS...]",
	Short: "Record a new trace of PROGRAM",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program := args[0]
		programArgs := args[1:]

		tr, err := doRecord(program, programArgs)
		if err != nil {
			fatal("record", err)
		}

		fmt.Printf("recorded trace %d at %s\n", tr.ID, tr.OutputFolder)
		if flagRecordExport != "" {
			if err := doExport(tr, flagRecordExport); err != nil {
				fatal("record: export", err)
			}
		}
		if flagRecordConsole {
			return replayTrace(tr, false, false)
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&flagRecordLang, "lang", "", "override language detection")
	recordCmd.Flags().StringVarP(&flagRecordOutDir, "output", "o", "", "output directory for the recorded trace")
	recordCmd.Flags().StringVarP(&flagRecordExport, "export", "e", "", "zip the recorded trace to this path")
	recordCmd.Flags().BoolVarP(&flagRecordConsole, "console", "c", false, "replay in the console after recording")
	recordCmd.Flags().StringVar(&flagRecordBackend, "backend", "", "language backend (e.g. plonky2 for Noir)")
}

func doRecord(program string, args []string) (trace.Trace, error) {
	cat, err := openCatalog()
	if err != nil {
		return trace.Trace{}, err
	}
	defer cat.Close()

	langOverride := trace.Lang(flagRecordLang)
	if flagRecordLang == "" {
		langOverride = trace.LangUnknown
	}

	tp := recorder.TracerPaths{
		RubyTracerPath: os.Getenv("CODETRACER_RUBY_TRACER_PATH"),
		NoirExePath:    os.Getenv("CODETRACER_NOIR_EXE_PATH"),
	}

	return recorder.Record(cat, tp, recorder.Options{
		Program:      program,
		Args:         args,
		Backend:      flagRecordBackend,
		LangOverride: langOverride,
		OutputFolder: flagRecordOutDir,
		Test:         partition(),
	})
}

// doExport packages the recorded trace into a plain (unencrypted) local
// zip file; this is a filesystem convenience distinct from the `upload`
// alias's remote sharing flow, so it is not gated by traceSharingEnabled.
func doExport(tr trace.Trace, destZip string) error {
	return importexport.ZipDir(tr.OutputFolder, destZip)
}
