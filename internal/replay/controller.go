// Package replay implements the Replay Controller (§4.7, component
// C7): resolve a target Trace and launch either the UI or the REPL console.
// Grounded on petar-djukic-crumbs/internal/cli/root.go's menu-and-dispatch
// shape and petar-djukic-mage-claude-orchestrator's process-launch idiom,
// generalized to the restart-loop semantics of §4.7/§8.
package replay

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/internal/procsup"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// RestartExitCode is the sentinel exit code by which the UI requests the
// CLI to re-launch itself against the same trace (§4.7, §6 "a fixed
// sentinel, e.g. 64").
const RestartExitCode = 64

// Target selects the Trace to replay, per §4.7's resolution priority:
// ID > TraceFolder > Pattern > interactive menu.
type Target struct {
	ID          int64
	TraceFolder string
	Pattern     string
	Interactive bool
}

// Resolve implements §4.7's resolution priority and the interactive
// menu fallback.
func Resolve(cat *catalog.Catalog, t Target, test trace.Partition, stdin *bufio.Reader, stdout *bufio.Writer) (trace.Trace, error) {
	switch {
	case t.ID != 0:
		found, err := cat.Find(t.ID, test)
		if err != nil {
			return trace.Trace{}, err
		}
		return *found, nil

	case t.TraceFolder != "":
		found, err := cat.FindByPath(t.TraceFolder, test)
		if err != nil {
			return trace.Trace{}, err
		}
		return *found, nil

	case t.Pattern != "":
		found, err := cat.FindByProgramPattern(t.Pattern, test)
		if err != nil {
			return trace.Trace{}, err
		}
		return *found, nil

	default:
		return interactiveMenu(cat, test, stdin, stdout)
	}
}

// interactiveMenu implements §4.7 "lists up to the 10 most recent
// Traces (newest first) in a tabular format ... and prompts for an id;
// invalid input loops" and the §8 "Interactive menu" scenario.
func interactiveMenu(cat *catalog.Catalog, test trace.Partition, stdin *bufio.Reader, stdout *bufio.Writer) (trace.Trace, error) {
	const menuRows = 10

	recent, err := cat.FindRecent(menuRows, test)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("list recent traces: %w", err)
	}
	if len(recent) == 0 {
		return trace.Trace{}, trace.ErrNotFound
	}

	total, err := cat.Count(test)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("count traces: %w", err)
	}

	printMenu(recent, total > len(recent), stdout)

	for {
		fmt.Fprint(stdout, "Choose a trace id: ")
		stdout.Flush()

		line, err := stdin.ReadString('\n')
		if err != nil {
			return trace.Trace{}, fmt.Errorf("read menu selection: %w", err)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			fmt.Fprintln(stdout, "invalid id, try again")
			continue
		}

		for _, tr := range recent {
			if tr.ID == id {
				return tr, nil
			}
		}
		fmt.Fprintln(stdout, "no such trace, try again")
	}
}

func printMenu(traces []trace.Trace, olderExist bool, stdout *bufio.Writer) {
	fmt.Fprintf(stdout, "%-6s %-30s %-30s %-10s %s\n", "id", "command", "workdir", "lang", "date")
	for _, tr := range traces {
		command := truncate(strings.Join(append([]string{tr.Program}, tr.Args...), " "), 30)
		workdir := truncate(tr.Workdir, 30)
		when := tr.Date
		if when != "" {
			when = humanize.Time(parseDateOrNow(when))
		}
		fmt.Fprintf(stdout, "%-6d %-30s %-30s %-10s %s\n", tr.ID, command, workdir, tr.Lang, when)
	}
	if olderExist {
		fmt.Fprintln(stdout, "older traces not shown")
	}
	stdout.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// LaunchOptions configures LaunchREPL/LaunchUI.
type LaunchOptions struct {
	ConsolePath string
	UIPath      string
	CorePath    string
	CallerPID   int
	Test        bool
	Summary     string
}

// LaunchREPL implements §4.7 REPL mode: invoke the console binary with
// [id, caller_pid, maybe "--test", maybe "--summary" <path>].
func LaunchREPL(t trace.Trace, opts LaunchOptions) (int, error) {
	argv := []string{opts.ConsolePath, fmt.Sprint(t.ID), fmt.Sprint(opts.CallerPID)}
	if opts.Test {
		argv = append(argv, "--test")
	}
	if opts.Summary != "" {
		argv = append(argv, "--summary", opts.Summary)
	}

	proc, err := procsup.Spawn(procsup.SpawnOptions{Argv: argv, Stdio: procsup.StdioInherit})
	if err != nil {
		return 0, fmt.Errorf("launch console: %w", err)
	}
	return proc.Wait()
}

// LaunchUI implements §4.7 UI mode and the restart loop of §4.7/§8: start
// the core process, launch the UI, stop the core when the UI exits, and
// loop re-launching `ct replay --id=<id>` as a subprocess (rather than
// re-instantiating the UI directly) while the UI requests a restart.
func LaunchUI(t trace.Trace, opts LaunchOptions, recordCore bool, selfExePath string, extraUIArgs []string) (int, error) {
	exitCode, err := launchUIOnce(t.ID, opts, recordCore, extraUIArgs)
	if err != nil {
		return 0, err
	}

	for exitCode == RestartExitCode {
		argv := []string{selfExePath, "replay", fmt.Sprintf("--id=%d", t.ID)}
		proc, err := procsup.Spawn(procsup.SpawnOptions{Argv: argv, Stdio: procsup.StdioInherit})
		if err != nil {
			return 0, fmt.Errorf("restart replay: %w", err)
		}
		exitCode, err = proc.Wait()
		if err != nil {
			return 0, fmt.Errorf("restart replay: wait: %w", err)
		}
	}
	return exitCode, nil
}

func launchUIOnce(traceID int64, opts LaunchOptions, recordCore bool, extraUIArgs []string) (int, error) {
	core, err := procsup.StartCoreProcess(opts.CorePath, traceID, recordCore, opts.CallerPID, opts.Test)
	if err != nil {
		return 0, fmt.Errorf("start core process: %w", err)
	}

	argv := append([]string{opts.UIPath, fmt.Sprint(traceID), "--caller-pid", fmt.Sprint(opts.CallerPID)}, extraUIArgs...)
	ui, err := procsup.Spawn(procsup.SpawnOptions{Argv: argv, Stdio: procsup.StdioInherit})
	if err != nil {
		_ = procsup.StopCore(core, recordCore)
		return 0, fmt.Errorf("launch ui: %w", err)
	}
	procsup.PublishUIPid(ui.Pid())
	defer procsup.ClearUIPid()

	exitCode, waitErr := ui.Wait()

	if stopErr := procsup.StopCore(core, recordCore); stopErr != nil {
		if waitErr == nil {
			return exitCode, fmt.Errorf("stop core: %w", stopErr)
		}
	}
	return exitCode, waitErr
}

// dateLayout matches the format importexport.ImportDbTrace writes Trace
// dates in.
const dateLayout = "2006-01-02 15:04:05"

// parseDateOrNow is a defensive fallback for malformed date strings; the
// menu should never fail to render because of one bad row.
func parseDateOrNow(s string) time.Time {
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Now()
	}
	return parsed
}
