// Implements: §4.6 Importer/Exporter (component C6): import from a
// local zip, and import from an already-produced db trace.
// Grounded on petar-djukic-crumbs/internal/sqlite/loader.go's transactional
// "read external files, persist into the store" shape, generalized from
// JSONL rows to a single Trace's filesystem artifacts.
package importexport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/internal/warn"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// rawTracerMetadata is the partial trace_metadata.json a language tracer
// emits before CodeTracer enriches it into a full Trace (§4.6 "Read
// trace_metadata.json fields: program, args (newline-separated), workdir").
type rawTracerMetadata struct {
	Program string `json:"program"`
	Args    string `json:"args"`
	Workdir string `json:"workdir"`
}

// ImportDbTraceOptions configures ImportDbTrace.
type ImportDbTraceOptions struct {
	// SourceDir holds the tracer's raw output: trace_metadata.json,
	// trace.json, and optionally trace_paths.json.
	SourceDir string
	// TraceRootDir is the partition's trace directory
	// (paths.TraceDir() or paths.TestDir()).
	TraceRootDir string
	// ID, if non-zero, is used as-is; otherwise a new id is allocated.
	ID int64
	Lang          trace.Lang
	SelfContained bool
	Test          trace.Partition
	// GitToplevel is the program's git root directory, or "" if none.
	GitToplevel string
	// FallbackSourceDir is used when no source folders can be derived
	// (§4.6 step 4 "fall back to the executable's directory").
	FallbackSourceDir string
}

// ImportDbTrace implements §4.6 "Import from already-produced db
// trace": allocate/accept an id, copy the tracer's artifacts into
// <trace_dir>/trace-<id>/, optionally embed sources under files/, derive
// sourceFolders, and persist the resulting Trace with calltraceMode =
// FullRecord.
func ImportDbTrace(cat *catalog.Catalog, opts ImportDbTraceOptions) (trace.Trace, error) {
	id := opts.ID
	if id == 0 {
		var err error
		id, err = cat.NewID(opts.Test)
		if err != nil {
			return trace.Trace{}, fmt.Errorf("allocate trace id: %w", err)
		}
	}

	outputFolder := filepath.Join(opts.TraceRootDir, fmt.Sprintf("trace-%d", id))
	if err := os.MkdirAll(filepath.Join(outputFolder, "rr"), 0o755); err != nil {
		return trace.Trace{}, fmt.Errorf("create output folder: %w", err)
	}

	if abs, _ := filepath.Abs(opts.SourceDir); abs != outputFolder {
		for _, name := range []string{"trace_metadata.json", "trace_paths.json", "trace.json"} {
			src := filepath.Join(opts.SourceDir, name)
			if _, err := os.Stat(src); err != nil {
				if name == "trace_paths.json" {
					continue // optional per §4.6 step 2
				}
				return trace.Trace{}, fmt.Errorf("missing %s: %w", name, err)
			}
			if err := copyFile(src, filepath.Join(outputFolder, name)); err != nil {
				return trace.Trace{}, fmt.Errorf("copy %s: %w", name, err)
			}
		}
	}

	raw, err := readRawMetadata(filepath.Join(outputFolder, "trace_metadata.json"))
	if err != nil {
		return trace.Trace{}, err
	}

	tracePaths, _ := readTracePaths(filepath.Join(outputFolder, "trace_paths.json"))

	if opts.SelfContained && len(tracePaths) > 0 {
		if opts.Lang == trace.LangNoir {
			tracePaths = append(tracePaths, noirPackageFiles(tracePaths)...)
		}
		if err := embedSources(tracePaths, outputFolder); err != nil {
			warn.Printf("embedding sources: %v", err)
		}
	}

	sourceFolders := ProcessSourceFoldersList(ParentDirs(tracePaths), opts.GitToplevel, opts.FallbackSourceDir)

	t := trace.Trace{
		ID:            id,
		Program:       raw.Program,
		Args:          splitNewlines(raw.Args),
		Workdir:       raw.Workdir,
		Lang:          opts.Lang,
		OutputFolder:  outputFolder,
		SourceFolders: joinSpace(sourceFolders),
		Imported:      opts.SelfContained,
		Calltrace:     true,
		CalltraceMode: trace.FullRecord,
		Date:          time.Now().UTC().Format("2006-01-02 15:04:05"),
	}

	if _, err := cat.RecordTrace(t, opts.Test); err != nil {
		return trace.Trace{}, fmt.Errorf("record trace: %w", err)
	}

	if err := writeFullMetadata(filepath.Join(outputFolder, "trace_metadata.json"), t); err != nil {
		return trace.Trace{}, fmt.Errorf("write full trace metadata: %w", err)
	}

	return t, nil
}

// ImportFromZip implements §4.6 "Import from local zip": extract into
// a fresh output folder, parse trace_metadata.json as a full Trace, assign
// a new id, and register it (imported=true).
func ImportFromZip(cat *catalog.Catalog, zipPath, traceRootDir string, test trace.Partition) (trace.Trace, error) {
	id, err := cat.NewID(test)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("allocate trace id: %w", err)
	}

	outputFolder := filepath.Join(traceRootDir, fmt.Sprintf("trace-%d", id))
	if err := UnzipTo(zipPath, outputFolder); err != nil {
		return trace.Trace{}, fmt.Errorf("extract archive: %w", err)
	}

	metadataPath := filepath.Join(outputFolder, "trace_metadata.json")
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("read trace_metadata.json: %w", err)
	}

	var t trace.Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return trace.Trace{}, fmt.Errorf("parse trace_metadata.json: %w", err)
	}

	t.ID = id
	t.OutputFolder = outputFolder
	t.Imported = true

	if _, err := cat.RecordTrace(t, test); err != nil {
		return trace.Trace{}, fmt.Errorf("record imported trace: %w", err)
	}
	if err := writeFullMetadata(metadataPath, t); err != nil {
		return trace.Trace{}, fmt.Errorf("write full trace metadata: %w", err)
	}
	return t, nil
}

func readRawMetadata(path string) (rawTracerMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rawTracerMetadata{}, fmt.Errorf("read trace_metadata.json: %w", err)
	}
	var raw rawTracerMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawTracerMetadata{}, fmt.Errorf("parse trace_metadata.json: %w", err)
	}
	return raw, nil
}

func readTracePaths(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("parse trace_paths.json: %w", err)
	}
	return paths, nil
}

func writeFullMetadata(path string, t trace.Trace) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// embedSources copies each absolute source path into
// outputFolder/files/<same relative path>, never writing outside
// outputFolder (§3 invariant 5, §8 property 8). Missing files are
// non-fatal (§7 "Non-fatal": optional file copy during import).
func embedSources(paths []string, outputFolder string) error {
	filesRoot := filepath.Join(outputFolder, "files")
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			warn.Printf("skipping non-absolute source path %q", p)
			continue
		}
		dest := filepath.Join(filesRoot, filepath.Clean(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			warn.Printf("create directory for %s: %v", dest, err)
			continue
		}
		if err := copyFile(p, dest); err != nil {
			warn.Printf("copy source %s: %v", p, err)
			continue
		}
	}
	return nil
}

// noirPackageFiles returns the smallest common parent directory's top-level
// files for the given trace paths, so a Noir package root (e.g. Nargo.toml)
// is embedded alongside the traced source (§4.6 Noir step).
func noirPackageFiles(paths []string) []string {
	root := CommonAncestor(paths)
	if root == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		warn.Printf("read noir package root %s: %v", root, err)
		return nil
	}
	var extra []string
	for _, e := range entries {
		if !e.IsDir() {
			extra = append(extra, filepath.Join(root, e.Name()))
		}
	}
	return extra
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func splitNewlines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
