package recorder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	dir := t.TempDir()
	c, err := catalog.Open(filepath.Join(dir, "prod.db"), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestResolveOutputFolderPrefersSupplied(t *testing.T) {
	folder, err := resolveOutputFolder(Options{OutputFolder: "/explicit/dir"}, 5)
	require.NoError(t, err)
	require.Equal(t, "/explicit/dir", folder)
}

func TestResolveOutputFolderUsesShellRecordsOutput(t *testing.T) {
	t.Setenv("CODETRACER_SHELL_RECORDS_OUTPUT", "/shell/out")
	folder, err := resolveOutputFolder(Options{Program: "/bin/myprog"}, 7)
	require.NoError(t, err)
	require.Equal(t, "/shell/out/trace-myprog-7", folder)
}

func TestExpandProgramRejectsMissing(t *testing.T) {
	_, err := expandProgram("/definitely/does/not/exist/binary")
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestExpandProgramResolvesViaPath(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "myecho")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	resolved, err := expandProgram("myecho")
	require.NoError(t, err)
	require.Equal(t, script, resolved)
}

func TestTracerInvocationRubyDb(t *testing.T) {
	argv, dir, err := tracerInvocation(trace.LangRubyDb, TracerPaths{RubyTracerPath: "/usr/bin/ruby-tracer"}, "/prog/app.rb", []string{"--flag"}, "", "/out")
	require.NoError(t, err)
	require.Equal(t, []string{"/usr/bin/ruby-tracer", "/prog/app.rb", "--flag"}, argv)
	require.Equal(t, "", dir)
}

func TestTracerInvocationSmall(t *testing.T) {
	argv, _, err := tracerInvocation(trace.LangSmall, TracerPaths{}, "/prog/app.small", []string{"x"}, "", "/out")
	require.NoError(t, err)
	require.Equal(t, []string{"/prog/app.small", "--tracing", "x"}, argv)
}

func TestTracerInvocationNoirRejectsUnknownBackend(t *testing.T) {
	_, _, err := tracerInvocation(trace.LangNoir, TracerPaths{NoirExePath: "/usr/bin/noir"}, "/prog", nil, "unsupported-backend", "/out")
	require.Error(t, err)
}

func TestTracerInvocationNoirPlonky2(t *testing.T) {
	dir := t.TempDir()
	argv, wd, err := tracerInvocation(trace.LangNoir, TracerPaths{NoirExePath: "/usr/bin/noir"}, dir, nil, "plonky2", "/out")
	require.NoError(t, err)
	require.Equal(t, []string{"/usr/bin/noir", "trace", "--trace-dir", "/out", "--trace-plonky2"}, argv)
	require.Equal(t, dir, wd)
}

func TestRecordRejectsUnsupportedLanguage(t *testing.T) {
	cat := newTestCatalog(t)
	dir := t.TempDir()
	program := filepath.Join(dir, "app.bin")
	require.NoError(t, os.WriteFile(program, []byte("binary"), 0o755))

	_, err := Record(cat, TracerPaths{}, Options{Program: program, Test: trace.TestData})
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestRecordRejectsMissingProgram(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := Record(cat, TracerPaths{}, Options{Program: "/no/such/program", Test: trace.TestData})
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestRecordRubyDbEndToEnd(t *testing.T) {
	cat := newTestCatalog(t)

	dir := t.TempDir()
	program := filepath.Join(dir, "app.rb")
	require.NoError(t, os.WriteFile(program, []byte("# ruby"), 0o644))

	// Fake tracer: writes trace_metadata.json + trace.json into the output
	// folder given to it via argv, then exits 0.
	tracerScript := filepath.Join(dir, "fake-ruby-tracer.sh")
	script := `#!/bin/sh
out=$(dirname "$CODETRACER_DB_TRACE_PATH")
echo '{"program":"` + program + `","args":"","workdir":"` + dir + `"}' > "$out/trace_metadata.json"
echo '{}' > "$out/trace.json"
exit 0
`
	require.NoError(t, os.WriteFile(tracerScript, []byte(script), 0o755))

	outputFolder := filepath.Join(t.TempDir(), "trace-out")

	tr, err := Record(cat, TracerPaths{RubyTracerPath: tracerScript}, Options{
		Program:      program,
		OutputFolder: outputFolder,
		Test:         trace.TestData,
	})
	require.NoError(t, err)
	require.Equal(t, trace.FullRecord, tr.CalltraceMode)
	require.True(t, tr.Imported)

	found, err := cat.Find(tr.ID, trace.TestData)
	require.NoError(t, err)
	require.Equal(t, tr.ID, found.ID)
}
