package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "prod.db"), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Property 1: new_id outputs are strictly increasing within a partition.
func TestNewIDStrictlyIncreasing(t *testing.T) {
	c := newTestCatalog(t)

	var last int64
	for i := 0; i < 20; i++ {
		id, err := c.NewID(trace.Production)
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
}

func TestNewIDPartitionsAreIndependent(t *testing.T) {
	c := newTestCatalog(t)

	prodID, err := c.NewID(trace.Production)
	require.NoError(t, err)
	testID, err := c.NewID(trace.TestData)
	require.NoError(t, err)
	require.Equal(t, int64(1), prodID)
	require.Equal(t, int64(1), testID)
}

// Property 2: persisted fields round-trip equal through Find.
func TestRecordTraceRoundTrip(t *testing.T) {
	c := newTestCatalog(t)

	id, err := c.NewID(trace.Production)
	require.NoError(t, err)

	in := trace.Trace{
		ID:             id,
		Program:        "/usr/bin/ruby",
		Args:           []string{"hello.rb", "--flag"},
		CompileCommand: "",
		Env:            "PATH=/usr/bin\nHOME=/home/user",
		Workdir:        "/home/user/project",
		Lang:           trace.LangRubyDb,
		OutputFolder:   "/home/user/.local/share/codetracer/traces/trace-1",
		SourceFolders:  "/home/user/project",
		Imported:       false,
		ShellID:        7,
		RRPid:          1234,
		ExitCode:       0,
		Calltrace:      true,
		CalltraceMode:  trace.FullRecord,
		Date:           "2026-07-29 10:00:00",
	}

	_, err = c.RecordTrace(in, trace.Production)
	require.NoError(t, err)

	out, err := c.Find(id, trace.Production)
	require.NoError(t, err)
	require.Equal(t, in, *out)
}

func TestFindNotFound(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Find(999, trace.Production)
	require.ErrorIs(t, err, trace.ErrNotFound)
}

// Property 3: find_by_path matches with or without a trailing slash.
func TestFindByPathTrailingSlash(t *testing.T) {
	c := newTestCatalog(t)
	id, err := c.NewID(trace.Production)
	require.NoError(t, err)
	_, err = c.RecordTrace(trace.Trace{ID: id, OutputFolder: "/data/trace-1", Program: "p"}, trace.Production)
	require.NoError(t, err)

	withSlash, err := c.FindByPath("/data/trace-1/", trace.Production)
	require.NoError(t, err)
	require.Equal(t, "/data/trace-1", withSlash.OutputFolder)

	withoutSlash, err := c.FindByPath("/data/trace-1", trace.Production)
	require.NoError(t, err)
	require.Equal(t, "/data/trace-1", withoutSlash.OutputFolder)
}

// Property 4: find_by_program_pattern returns the max id among substring matches.
func TestFindByProgramPatternReturnsMaxID(t *testing.T) {
	c := newTestCatalog(t)

	for i, prog := range []string{"/bin/hello", "/bin/hello2", "/bin/other"} {
		id, err := c.NewID(trace.Production)
		require.NoError(t, err)
		_, err = c.RecordTrace(trace.Trace{ID: id, Program: prog}, trace.Production)
		require.NoError(t, err)
		_ = i
	}

	got, err := c.FindByProgramPattern("hello", trace.Production)
	require.NoError(t, err)
	require.Equal(t, "/bin/hello2", got.Program)
	require.Equal(t, int64(2), got.ID)
}

func TestFindByProgramPatternCompositeKey(t *testing.T) {
	c := newTestCatalog(t)
	id, err := c.NewID(trace.Production)
	require.NoError(t, err)
	_, err = c.RecordTrace(trace.Trace{ID: id, Program: "hello", Key: "hello#dl-1#secret"}, trace.Production)
	require.NoError(t, err)

	got, err := c.FindByProgramPattern("hello#dl-1#secret", trace.Production)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
}

func TestUpdateFieldUnknownField(t *testing.T) {
	c := newTestCatalog(t)
	id, err := c.NewID(trace.Production)
	require.NoError(t, err)
	_, err = c.RecordTrace(trace.Trace{ID: id, Program: "p"}, trace.Production)
	require.NoError(t, err)

	err = c.UpdateField(id, "notAField", "x", trace.Production)
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateFieldKnownField(t *testing.T) {
	c := newTestCatalog(t)
	id, err := c.NewID(trace.Production)
	require.NoError(t, err)
	_, err = c.RecordTrace(trace.Trace{ID: id, Program: "p"}, trace.Production)
	require.NoError(t, err)

	require.NoError(t, c.UpdateField(id, "downloadId", "dl-42", trace.Production))
	got, err := c.Find(id, trace.Production)
	require.NoError(t, err)
	require.Equal(t, "dl-42", got.DownloadID)
}

func TestRegisterAndFindByRecordProcessIDKeepsHistory(t *testing.T) {
	c := newTestCatalog(t)
	id1, _ := c.NewID(trace.Production)
	id2, _ := c.NewID(trace.Production)
	require.NoError(t, c.RegisterRecordTraceID(4242, id1, trace.Production))
	require.NoError(t, c.RegisterRecordTraceID(4242, id2, trace.Production))

	got, err := c.FindByRecordProcessID(4242, trace.Production)
	require.NoError(t, err)
	require.Equal(t, id2, got.ID)
}

func TestAllSortedAscending(t *testing.T) {
	c := newTestCatalog(t)
	for i := 0; i < 3; i++ {
		id, _ := c.NewID(trace.Production)
		_, err := c.RecordTrace(trace.Trace{ID: id, Program: "p"}, trace.Production)
		require.NoError(t, err)
	}

	all, err := c.All(trace.Production)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(1), all[0].ID)
	require.Equal(t, int64(3), all[2].ID)
}

func TestFindRecentSortedDescendingAndLimited(t *testing.T) {
	c := newTestCatalog(t)
	for i := 0; i < 12; i++ {
		id, _ := c.NewID(trace.Production)
		_, err := c.RecordTrace(trace.Trace{ID: id, Program: "p"}, trace.Production)
		require.NoError(t, err)
	}

	recent, err := c.FindRecent(10, trace.Production)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	require.Equal(t, int64(12), recent[0].ID)
	require.Equal(t, int64(3), recent[9].ID)
}

// Property 9: schema migrations are idempotent.
func TestSchemaMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prod.db")

	db1, err := openAndMigrate(path)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := openAndMigrate(path)
	require.NoError(t, err)
	defer db2.Close()

	var version int
	require.NoError(t, db2.QueryRow(`SELECT schemaVersion FROM trace_values WHERE id = 0`).Scan(&version))
	require.Equal(t, len(migrations), version)
}
