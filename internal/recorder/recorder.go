// Package recorder implements the Recorder (§4.5, component C5):
// allocate a trace id, prepare an output folder, dispatch to the
// language-specific tracer, and import its result into the Catalog.
// Grounded on petar-djukic-crumbs/cmd/cupboard/crumb_add.go's
// "resolve options, build the record, persist on success" shape.
package recorder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/internal/importexport"
	"github.com/metacraft-labs/codetracer-core/internal/lang"
	"github.com/metacraft-labs/codetracer-core/internal/paths"
	"github.com/metacraft-labs/codetracer-core/internal/procsup"
	"github.com/metacraft-labs/codetracer-core/internal/shellreport"
	"github.com/metacraft-labs/codetracer-core/internal/warn"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// ErrProgramNotFound is returned when program cannot be resolved to an
// executable on disk or on PATH (§4.5 step 4, Recorder::ProgramNotFound).
var ErrProgramNotFound = fmt.Errorf("%w: program not found", trace.ErrProgramNotFound)

// ErrUnsupportedLanguage is returned for Unknown or non-db-based languages
// (§3 "Only db-based languages are supported in the current core").
var ErrUnsupportedLanguage = trace.ErrUnsupportedLanguage

// Options configures Record (§4.5 "record(program, args, backend,
// lang_override, output_folder?, traceId?)").
type Options struct {
	Program      string
	Args         []string
	Backend      string
	LangOverride trace.Lang
	OutputFolder string
	TraceID      int64
	Test         trace.Partition
}

// TracerPaths resolves the external tracer executable paths by language,
// supplied by the CLI dispatcher from environment variables (§4.5
// table: "<ruby>", "<small>", "<noir>" from CODETRACER_NOIR_EXE_PATH).
type TracerPaths struct {
	RubyTracerPath string
	SmallTracerEnv string
	NoirExePath    string
}

// Record implements §4.5's 9-step algorithm.
func Record(cat *catalog.Catalog, tp TracerPaths, opts Options) (trace.Trace, error) {
	traceID := opts.TraceID
	if traceID == 0 {
		var err error
		traceID, err = cat.NewID(opts.Test)
		if err != nil {
			return trace.Trace{}, fmt.Errorf("allocate trace id: %w", err)
		}
	}

	recordPid := resolveRecordPid()
	if err := cat.RegisterRecordTraceID(recordPid, traceID, opts.Test); err != nil {
		return trace.Trace{}, fmt.Errorf("register record pid: %w", err)
	}

	outputFolder, err := resolveOutputFolder(opts, traceID)
	if err != nil {
		return trace.Trace{}, err
	}
	if err := paths.EnsureDir(outputFolder); err != nil {
		return trace.Trace{}, fmt.Errorf("create output folder: %w", err)
	}

	program, err := expandProgram(opts.Program)
	if err != nil {
		return trace.Trace{}, err
	}

	language := lang.Detect(program, opts.LangOverride)
	if language == trace.LangUnknown || !language.IsDbBased() {
		return trace.Trace{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	if language == trace.LangNoir {
		preExtractNoirSymbols(program)
	}

	argv, dir, err := tracerInvocation(language, tp, program, opts.Args, opts.Backend, outputFolder)
	if err != nil {
		return trace.Trace{}, err
	}

	env := append(os.Environ(), "CODETRACER_DB_TRACE_PATH="+filepath.Join(outputFolder, "trace.json"))

	sessionLog := os.Getenv("CODETRACER_SESSION_LOG")
	if shellreport.Enabled() {
		shellreport.ReportWorking()
	}

	proc, err := procsup.Spawn(procsup.SpawnOptions{Argv: argv, Dir: dir, Env: env, Stdio: procsup.StdioInherit})
	if err != nil {
		if shellreport.Enabled() {
			shellreport.ReportError(sessionLog)
		}
		return trace.Trace{}, fmt.Errorf("spawn tracer: %w", err)
	}
	exitCode, err := proc.Wait()
	if err != nil {
		if shellreport.Enabled() {
			shellreport.ReportError(sessionLog)
		}
		return trace.Trace{}, fmt.Errorf("wait for tracer: %w", err)
	}
	if exitCode != 0 {
		if shellreport.Enabled() {
			shellreport.ReportError(sessionLog)
		}
		return trace.Trace{}, fmt.Errorf("tracer %s exited with code %d", program, exitCode)
	}
	if shellreport.Enabled() {
		shellreport.ReportOk(sessionLog)
	}

	traceRootDir, err := paths.TraceDir()
	if opts.Test {
		traceRootDir, err = paths.TestDir()
	}
	if err != nil {
		return trace.Trace{}, fmt.Errorf("resolve trace directory: %w", err)
	}
	t, err := importexport.ImportDbTrace(cat, importexport.ImportDbTraceOptions{
		SourceDir:     outputFolder,
		TraceRootDir:  traceRootDir,
		ID:            traceID,
		Lang:          language,
		SelfContained: true,
		Test:          opts.Test,
	})
	if err != nil {
		return trace.Trace{}, fmt.Errorf("import recorded trace: %w", err)
	}
	return t, nil
}

// resolveRecordPid implements §4.5 step 2: prefer
// CODETRACER_WRAPPER_PID, else the current process id.
func resolveRecordPid() int {
	if raw := os.Getenv(paths.EnvWrapperPid); raw != "" {
		if pid, err := strconv.Atoi(raw); err == nil {
			return pid
		}
	}
	return os.Getpid()
}

// resolveOutputFolder implements §4.5 step 3: supplied >
// $CODETRACER_SHELL_RECORDS_OUTPUT/trace-<binaryName>-<id> > share_dir/trace-<id>.
func resolveOutputFolder(opts Options, traceID int64) (string, error) {
	if opts.OutputFolder != "" {
		return opts.OutputFolder, nil
	}

	binaryName := filepath.Base(opts.Program)
	if shellOutput := os.Getenv(paths.EnvShellRecordsOutput); shellOutput != "" {
		return filepath.Join(shellOutput, fmt.Sprintf("trace-%s-%d", binaryName, traceID)), nil
	}

	var root string
	var err error
	if opts.Test {
		root, err = paths.TestDir()
	} else {
		root, err = paths.TraceDir()
	}
	if err != nil {
		return "", fmt.Errorf("resolve trace directory: %w", err)
	}
	return filepath.Join(root, fmt.Sprintf("trace-%d", traceID)), nil
}

// expandProgram implements §4.5 step 4.
func expandProgram(program string) (string, error) {
	if filepath.IsAbs(program) {
		if _, err := os.Stat(program); err == nil {
			return program, nil
		}
		return "", ErrProgramNotFound
	}
	if _, err := os.Stat(program); err == nil {
		abs, err := filepath.Abs(program)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path: %w", err)
		}
		return abs, nil
	}
	resolved, err := exec.LookPath(program)
	if err != nil {
		return "", ErrProgramNotFound
	}
	return resolved, nil
}

// preExtractNoirSymbols delegates to an external ctags tool. Failure is
// non-fatal and logged (§4.5 step 6).
func preExtractNoirSymbols(program string) {
	dir := program
	if info, err := os.Stat(program); err == nil && !info.IsDir() {
		dir = filepath.Dir(program)
	}
	cmd := exec.Command("ctags", "-R", ".")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		warn.Printf("noir symbol pre-extraction failed: %v", err)
	}
}

// tracerInvocation builds the argv/workdir for the language-specific
// tracer per §4.5's table.
func tracerInvocation(language trace.Lang, tp TracerPaths, program string, args []string, backend, outputFolder string) ([]string, string, error) {
	switch language {
	case trace.LangRubyDb:
		if tp.RubyTracerPath == "" {
			return nil, "", errors.New("ruby tracer path not configured")
		}
		argv := append([]string{tp.RubyTracerPath, program}, args...)
		return argv, "", nil

	case trace.LangSmall:
		argv := append([]string{program, "--tracing"}, args...)
		return argv, "", nil

	case trace.LangNoir:
		if tp.NoirExePath == "" {
			return nil, "", fmt.Errorf("%s not set", paths.EnvNoirExePath)
		}
		argv := []string{tp.NoirExePath, "trace", "--trace-dir", outputFolder}
		switch backend {
		case "", "plonky2":
			if backend == "plonky2" {
				argv = append(argv, "--trace-plonky2")
			}
		default:
			return nil, "", fmt.Errorf("unsupported noir backend: %s", backend)
		}
		argv = append(argv, args...)

		dir := program
		if info, err := os.Stat(program); err == nil && !info.IsDir() {
			dir = filepath.Dir(program)
		}
		return argv, dir, nil

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
}
