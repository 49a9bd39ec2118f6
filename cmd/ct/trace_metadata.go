// trace-metadata command for the ct CLI (§4.8 `trace-metadata`):
// emits a single JSON value on stdout (object, array, or null).
package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

var (
	flagMetaID      int64
	flagMetaPath    string
	flagMetaProgram string
	flagMetaPID     int
	flagMetaRecent  bool
	flagMetaLimit   int
)

var traceMetadataCmd = &cobra.Command{
	Use:   "trace-metadata",
	Short: "Print trace metadata as a single JSON value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			fatal("trace-metadata", err)
		}
		defer cat.Close()

		test := partition()
		value, err := lookupMetadata(cat, test)
		if err != nil {
			if errors.Is(err, trace.ErrNotFound) {
				fmt.Println("null")
				return nil
			}
			fatal("trace-metadata", err)
		}

		out, err := json.Marshal(value)
		if err != nil {
			fatal("trace-metadata", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	traceMetadataCmd.Flags().Int64Var(&flagMetaID, "id", 0, "trace id")
	traceMetadataCmd.Flags().StringVar(&flagMetaPath, "path", "", "trace output folder path")
	traceMetadataCmd.Flags().StringVar(&flagMetaProgram, "program", "", "program substring pattern")
	traceMetadataCmd.Flags().IntVarP(&flagMetaPID, "record-pid", "r", 0, "record process id")
	traceMetadataCmd.Flags().BoolVar(&flagMetaRecent, "recent", false, "list the most recent traces")
	traceMetadataCmd.Flags().IntVar(&flagMetaLimit, "limit", 10, "limit for --recent")
}

func lookupMetadata(cat catalogLike, test trace.Partition) (any, error) {
	switch {
	case flagMetaRecent:
		return cat.FindRecent(flagMetaLimit, test)
	case flagMetaID != 0:
		return cat.Find(flagMetaID, test)
	case flagMetaPath != "":
		return cat.FindByPath(flagMetaPath, test)
	case flagMetaProgram != "":
		return cat.FindByProgramPattern(flagMetaProgram, test)
	case flagMetaPID != 0:
		return cat.FindByRecordProcessID(flagMetaPID, test)
	default:
		return cat.All(test)
	}
}

// catalogLike is the subset of *catalog.Catalog trace-metadata needs,
// declared so lookupMetadata stays testable against a fake.
type catalogLike interface {
	Find(id int64, test trace.Partition) (*trace.Trace, error)
	FindByPath(path string, test trace.Partition) (*trace.Trace, error)
	FindByProgramPattern(pattern string, test trace.Partition) (*trace.Trace, error)
	FindByRecordProcessID(pid int, test trace.Partition) (*trace.Trace, error)
	FindRecent(limit int, test trace.Partition) ([]trace.Trace, error)
	All(test trace.Partition) ([]trace.Trace, error)
}
