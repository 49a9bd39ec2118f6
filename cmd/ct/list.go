// List command for the ct CLI (§4.8 `list [local|remote] [--format text|json]`).
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

var flagListFormat string

var listCmd = &cobra.Command{
	Use:   "list [local|remote]",
	Short: "List recorded traces",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := "local"
		if len(args) > 0 {
			scope = args[0]
		}
		if scope == "remote" {
			fmt.Fprintln(cmd.OutOrStderr(), "list: remote listing requires a sharing server index, which this core does not maintain locally")
			return nil
		}
		if scope != "local" {
			fatal("list", fmt.Errorf("unknown scope %q (expected local or remote)", scope))
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("list", err)
		}
		defer cat.Close()

		traces, err := cat.All(partition())
		if err != nil {
			fatal("list", err)
		}

		return printTraces(traces)
	},
}

func init() {
	listCmd.Flags().StringVar(&flagListFormat, "format", "text", "output format: text or json")
}

func printTraces(traces []trace.Trace) error {
	switch flagListFormat {
	case "json":
		out, err := json.MarshalIndent(traces, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal traces: %w", err)
		}
		fmt.Println(string(out))
	case "text", "":
		for _, tr := range traces {
			fmt.Printf("%d\t%s\t%s\t%s\n", tr.ID, tr.Program, tr.Lang, tr.Date)
		}
	default:
		return fmt.Errorf("unknown format %q (expected text or json)", flagListFormat)
	}
	return nil
}
