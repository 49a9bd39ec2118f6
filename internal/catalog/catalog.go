// Package catalog implements the Trace Catalog (§4.2, component C2):
// a per-partition embedded relational store with three tables (traces,
// trace_values, record_pid_trace_id_map).
// Grounded on petar-djukic-crumbs/internal/sqlite/backend.go (embedded
// schema, sync.RWMutex-guarded *sql.DB) and crumbs_table.go (hydrate/
// dehydrate row <-> struct, UUID-on-create pattern generalized here to
// monotonic integer IDs per §3).
package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// Catalog is the durable index of recordings (§2 C2). Each partition
// (production / test) owns an independent *sql.DB and therefore an
// independent ID space and database file (§3 invariant 2).
type Catalog struct {
	mu      sync.Mutex
	prodDB  *sql.DB
	testDB  *sql.DB
}

// Open creates a Catalog backed by the given file paths. Both files are
// opened and migrated immediately so that concurrent `ct` processes
// observe a consistent schema from the start (§5 "Multiple ct
// processes may open the same file concurrently").
func Open(prodDBPath, testDBPath string) (*Catalog, error) {
	prodDB, err := openAndMigrate(prodDBPath)
	if err != nil {
		return nil, fmt.Errorf("open production catalog: %w", err)
	}
	testDB, err := openAndMigrate(testDBPath)
	if err != nil {
		prodDB.Close()
		return nil, fmt.Errorf("open test catalog: %w", err)
	}
	return &Catalog{prodDB: prodDB, testDB: testDB}, nil
}

// Close releases both underlying database handles.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []string
	if err := c.prodDB.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.testDB.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("close catalog: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Catalog) db(test trace.Partition) *sql.DB {
	if test {
		return c.testDB
	}
	return c.prodDB
}

// NewID atomically increments trace_values.maxTraceID and returns the new
// value. Concurrent callers within the same process are serialized by c.mu;
// across processes the underlying SQLite write lock on the database file
// provides the same guarantee (§4.2 new_id, §5 "Shared resources").
func (c *Catalog) NewID(test trace.Partition) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.db(test)
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin new_id transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE trace_values SET maxTraceID = maxTraceID + 1 WHERE id = 0`); err != nil {
		return 0, fmt.Errorf("increment maxTraceID: %w", err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT maxTraceID FROM trace_values WHERE id = 0`).Scan(&id); err != nil {
		return 0, fmt.Errorf("read maxTraceID: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit new_id transaction: %w", err)
	}
	return id, nil
}

// RecordTrace upserts by (id, test), writing every field, and returns the
// stored row (§4.2 record_trace).
func (c *Catalog) RecordTrace(t trace.Trace, test trace.Partition) (trace.Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.db(test)
	_, err := db.Exec(`
		INSERT INTO traces (
			id, program, args, compileCommand, env, workdir, lang, outputFolder,
			sourceFolders, lowLevelFolder, imported, shellID, rrPid, exitCode,
			calltrace, calltraceMode, date, downloadId, controlId, key, remoteShareExpireTime
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			program = excluded.program,
			args = excluded.args,
			compileCommand = excluded.compileCommand,
			env = excluded.env,
			workdir = excluded.workdir,
			lang = excluded.lang,
			outputFolder = excluded.outputFolder,
			sourceFolders = excluded.sourceFolders,
			lowLevelFolder = excluded.lowLevelFolder,
			imported = excluded.imported,
			shellID = excluded.shellID,
			rrPid = excluded.rrPid,
			exitCode = excluded.exitCode,
			calltrace = excluded.calltrace,
			calltraceMode = excluded.calltraceMode,
			date = excluded.date,
			downloadId = excluded.downloadId,
			controlId = excluded.controlId,
			key = excluded.key,
			remoteShareExpireTime = excluded.remoteShareExpireTime
	`,
		t.ID, t.Program, joinArgs(t.Args), t.CompileCommand, t.Env, t.Workdir, string(t.Lang),
		t.OutputFolder, t.SourceFolders, t.LowLevelFolder, boolToInt(t.Imported), t.ShellID,
		t.RRPid, t.ExitCode, boolToInt(t.Calltrace), string(t.CalltraceMode), t.Date,
		t.DownloadID, t.ControlID, t.Key, t.RemoteShareExpireTime,
	)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("record trace %d: %w", t.ID, err)
	}
	return t, nil
}

// updatableFields whitelists the column names UpdateField may touch,
// matching the traces table schema (§4.2: unknown fields error).
var updatableFields = map[string]bool{
	"program": true, "args": true, "compileCommand": true, "env": true,
	"workdir": true, "lang": true, "outputFolder": true, "sourceFolders": true,
	"lowLevelFolder": true, "imported": true, "shellID": true, "rrPid": true,
	"exitCode": true, "calltrace": true, "calltraceMode": true, "date": true,
	"downloadId": true, "controlId": true, "key": true, "remoteShareExpireTime": true,
}

// UpdateField updates a single column of the traces row with the given id.
// Returns ErrUnknownField for any field not in updatableFields (§4.2
// update_field).
func (c *Catalog) UpdateField(id int64, field string, value any, test trace.Partition) error {
	if !updatableFields[field] {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.db(test)
	query := fmt.Sprintf(`UPDATE traces SET %s = ? WHERE id = ?`, field)
	if _, err := db.Exec(query, value, id); err != nil {
		return fmt.Errorf("update field %s on trace %d: %w", field, id, err)
	}
	return nil
}

// RegisterRecordTraceID inserts a (pid, id) row. Multiple rows per pid are
// permitted, and the history is kept intentionally: FindByRecordProcessID
// returns the most recently inserted one (§4.2 register_record_trace_id).
func (c *Catalog) RegisterRecordTraceID(pid int, id int64, test trace.Partition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.db(test)
	if _, err := db.Exec(`INSERT INTO record_pid_trace_id_map (pid, traceId) VALUES (?, ?)`, pid, id); err != nil {
		return fmt.Errorf("register record pid %d -> trace %d: %w", pid, id, err)
	}
	return nil
}

const selectColumns = `id, program, args, compileCommand, env, workdir, lang, outputFolder,
	sourceFolders, lowLevelFolder, imported, shellID, rrPid, exitCode,
	calltrace, calltraceMode, date, downloadId, controlId, key, remoteShareExpireTime`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrace(row rowScanner) (trace.Trace, error) {
	var t trace.Trace
	var argsStr, lang, calltraceMode string
	var imported, calltrace int
	err := row.Scan(
		&t.ID, &t.Program, &argsStr, &t.CompileCommand, &t.Env, &t.Workdir, &lang,
		&t.OutputFolder, &t.SourceFolders, &t.LowLevelFolder, &imported, &t.ShellID,
		&t.RRPid, &t.ExitCode, &calltrace, &calltraceMode, &t.Date,
		&t.DownloadID, &t.ControlID, &t.Key, &t.RemoteShareExpireTime,
	)
	if err != nil {
		return trace.Trace{}, err
	}
	t.Args = splitArgs(argsStr)
	t.Lang = trace.Lang(lang)
	t.CalltraceMode = trace.CalltraceMode(calltraceMode)
	t.Imported = imported != 0
	t.Calltrace = calltrace != 0
	return t, nil
}

// Find returns the Trace with the given id, or ErrNotFound (§4.2 find).
func (c *Catalog) Find(id int64, test trace.Partition) (*trace.Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db(test).QueryRow(`SELECT `+selectColumns+` FROM traces WHERE id = ?`, id)
	t, err := scanTrace(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, trace.ErrNotFound
		}
		return nil, fmt.Errorf("find trace %d: %w", id, err)
	}
	return &t, nil
}

// FindByPath matches on outputFolder with and without a trailing slash
// (§4.2 find_by_path, §8 property 3).
func (c *Catalog) FindByPath(path string, test trace.Partition) (*trace.Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	trimmed := strings.TrimSuffix(path, "/")
	row := c.db(test).QueryRow(
		`SELECT `+selectColumns+` FROM traces WHERE outputFolder = ? OR outputFolder = ? LIMIT 1`,
		trimmed, trimmed+"/",
	)
	t, err := scanTrace(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, trace.ErrNotFound
		}
		return nil, fmt.Errorf("find trace by path %s: %w", path, err)
	}
	return &t, nil
}

// FindByProgramPattern implements §4.2 find_by_program_pattern: if the
// pattern contains '#' it is a composite remote key (matched exactly
// against the key column); otherwise it is a substring match against
// program, and among matches the row with the largest id wins (§8
// property 4).
func (c *Catalog) FindByProgramPattern(pattern string, test trace.Partition) (*trace.Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.db(test)
	var row *sql.Row
	if strings.Contains(pattern, "#") {
		row = db.QueryRow(`SELECT `+selectColumns+` FROM traces WHERE key = ? ORDER BY id DESC LIMIT 1`, pattern)
	} else {
		like := "%" + pattern + "%"
		row = db.QueryRow(`SELECT `+selectColumns+` FROM traces WHERE program LIKE ? ESCAPE '\' ORDER BY id DESC LIMIT 1`, like)
	}

	t, err := scanTrace(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, trace.ErrNotFound
		}
		return nil, fmt.Errorf("find trace by pattern %s: %w", pattern, err)
	}
	return &t, nil
}

// FindByRecordProcessID joins via record_pid_trace_id_map and returns the
// Trace for the most recently registered id under pid (§4.2
// find_by_record_process_id).
func (c *Catalog) FindByRecordProcessID(pid int, test trace.Partition) (*trace.Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.db(test)
	var traceID int64
	err := db.QueryRow(
		`SELECT traceId FROM record_pid_trace_id_map WHERE pid = ? ORDER BY rowid_alias DESC LIMIT 1`,
		pid,
	).Scan(&traceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, trace.ErrNotFound
		}
		return nil, fmt.Errorf("find record pid %d: %w", pid, err)
	}

	row := db.QueryRow(`SELECT `+selectColumns+` FROM traces WHERE id = ?`, traceID)
	t, err := scanTrace(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, trace.ErrNotFound
		}
		return nil, fmt.Errorf("find trace %d for record pid %d: %w", traceID, pid, err)
	}
	return &t, nil
}

// All returns every Trace in the partition sorted by id ascending (§4.2 all).
func (c *Catalog) All(test trace.Partition) ([]trace.Trace, error) {
	return c.query(test, `SELECT `+selectColumns+` FROM traces ORDER BY id ASC`)
}

// FindRecent returns up to limit Traces sorted by id descending (§4.2
// find_recent, §4.7 interactive menu, §8 "Interactive menu" scenario).
func (c *Catalog) FindRecent(limit int, test trace.Partition) ([]trace.Trace, error) {
	return c.query(test, `SELECT `+selectColumns+` FROM traces ORDER BY id DESC LIMIT ?`, limit)
}

// Count returns the total number of Traces in the partition, so callers of
// FindRecent can tell whether older Traces exist beyond the returned page
// (§8 "Interactive menu" scenario: an "older traces not shown" line when
// more than the displayed rows exist).
func (c *Catalog) Count(test trace.Partition) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db(test).QueryRow(`SELECT COUNT(*) FROM traces`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count traces: %w", err)
	}
	return n, nil
}

func (c *Catalog) query(test trace.Partition, query string, args ...any) ([]trace.Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db(test).Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	var out []trace.Trace
	for rows.Next() {
		t, err := scanTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func joinArgs(args []string) string {
	return strings.Join(args, "\n")
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
