// Package paths resolves install/share/cache/tmp/trace/test directories
// from the environment and platform.
// Implements: §4.1 Paths & Config (C1).
// Grounded on petar-djukic-crumbs/internal/paths/paths.go for the XDG-style
// resolution, and petar-djukic-crumbs/cmd/cupboard/helpers.go's
// json.Unmarshal-a-config-blob shape for LoadRuntimePaths.
package paths

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Environment variable names recognized at process start (§4.1).
const (
	EnvRecordCore     = "CODETRACER_RECORD_CORE"
	EnvCtPaths        = "CODETRACER_CT_PATHS"
	EnvTraceFolder    = "CODETRACER_TRACE_FOLDER"
	EnvCalltraceMode  = "CODETRACER_CALLTRACE_MODE"
	EnvWrapperPid     = "CODETRACER_WRAPPER_PID"
	EnvNoirExePath    = "CODETRACER_NOIR_EXE_PATH"
	EnvElectronArgs   = "CODETRACER_ELECTRON_ARGS"
	EnvSessionID      = "CODETRACER_SESSION_ID"
	EnvShellRecordsOutput = "CODETRACER_SHELL_RECORDS_OUTPUT"
)

// platformDir holds platform-detection functions overridable in tests.
var platformDir = struct {
	homeDir func() (string, error)
}{
	homeDir: os.UserHomeDir,
}

// ShareDir returns $XDG_DATA_HOME/codetracer, falling back to
// $HOME/.local/share/codetracer (§4.1).
func ShareDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "codetracer"), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "codetracer"), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/codetracer, falling back to
// $HOME/.config/codetracer.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codetracer"), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "codetracer"), nil
}

// ConfigFile returns the path to the YAML config recognized by §4.1:
// $XDG_CONFIG_HOME/codetracer/.config.yaml (or platform equivalent).
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".config.yaml"), nil
}

// TraceDir returns share_dir/traces, the root under which production trace
// folders (trace-<id>) are created (§4.1, §4.5 step 3).
func TraceDir() (string, error) {
	share, err := ShareDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(share, "traces"), nil
}

// TestDir returns the partition-local root for test=true traces (§3
// invariant 2: each partition has an independent database/folder space).
func TestDir() (string, error) {
	share, err := ShareDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(share, "test-traces"), nil
}

// TmpDir returns the process temp directory used for scratch files (zip
// staging, downloaded archives before decryption).
func TmpDir() string {
	return os.TempDir()
}

// InstanceSocketPath returns the Unix-socket path the core listens on in
// `host` mode (§6 Core ↔ UI IPC): <tmp>/ct_instance_<pid>.
func InstanceSocketPath(pid int) string {
	return filepath.Join(TmpDir(), fmt.Sprintf("ct_instance_%d", pid))
}

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// EnsureLogPath returns (creating parent directories as needed) the log
// file path for a "frontend" or "core" child process, named by component
// and pid so concurrent sessions never collide (§4.4
// start_core_process: "an env-derived log file path
// (ensure_log_path(\"frontend\"/\"core\", pid, ...))").
func EnsureLogPath(component string, pid int) (string, error) {
	share, err := ShareDir()
	if err != nil {
		return "", err
	}
	logDir := filepath.Join(share, "logs")
	if err := EnsureDir(logDir); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return filepath.Join(logDir, fmt.Sprintf("%s-%d.log", component, pid)), nil
}

// RuntimePaths is the build/install-time directory triple a packaged
// CodeTracer installation publishes in its runtime-paths config file (§4.1
// "Resolves: install_dir (fixed by build), exe_dir, links_dir (bundled
// binaries)").
type RuntimePaths struct {
	InstallDir string `json:"installDir"`
	ExeDir     string `json:"exeDir"`
	LinksDir   string `json:"linksDir"`
}

// ErrRuntimePathsNotConfigured is returned when CODETRACER_CT_PATHS is
// unset, so LoadRuntimePaths has nowhere to read install_dir/exe_dir/
// links_dir from.
var ErrRuntimePathsNotConfigured = errors.New(
	"CODETRACER_CT_PATHS is not set: codetracer needs the runtime-paths " +
		"config file written by its installer; set CODETRACER_CT_PATHS to " +
		"point at it, or reinstall codetracer")

// LoadRuntimePaths reads and parses the JSON runtime-paths config file named
// by CODETRACER_CT_PATHS (§4.1). A missing env var or a missing/unreadable
// file are both fatal for any caller that needs install_dir, exe_dir, or
// links_dir (§4.1 "Failures: missing runtime-paths config file ⇒ fatal with
// a user-facing hint").
func LoadRuntimePaths() (RuntimePaths, error) {
	path := os.Getenv(EnvCtPaths)
	if path == "" {
		return RuntimePaths{}, ErrRuntimePathsNotConfigured
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RuntimePaths{}, fmt.Errorf(
				"runtime-paths config file %q (from CODETRACER_CT_PATHS) does "+
					"not exist: reinstall codetracer, or point CODETRACER_CT_PATHS "+
					"at a valid runtime-paths config", path)
		}
		return RuntimePaths{}, fmt.Errorf("read runtime-paths config %q: %w", path, err)
	}

	var rp RuntimePaths
	if err := json.Unmarshal(data, &rp); err != nil {
		return RuntimePaths{}, fmt.Errorf("parse runtime-paths config %q: %w", path, err)
	}
	return rp, nil
}

// InstallDir returns install_dir from the runtime-paths config (§4.1).
func InstallDir() (string, error) {
	rp, err := LoadRuntimePaths()
	if err != nil {
		return "", err
	}
	return rp.InstallDir, nil
}

// ExeDir returns exe_dir from the runtime-paths config: the directory
// holding the UI/core/console binaries built alongside this installation
// (§4.1).
func ExeDir() (string, error) {
	rp, err := LoadRuntimePaths()
	if err != nil {
		return "", err
	}
	return rp.ExeDir, nil
}

// LinksDir returns links_dir from the runtime-paths config: the directory
// holding bundled tracer binaries (§4.1).
func LinksDir() (string, error) {
	rp, err := LoadRuntimePaths()
	if err != nil {
		return "", err
	}
	return rp.LinksDir, nil
}

// ResolveExe joins ExeDir with name, for locating the UI/core/console
// binaries CodeTracer ships alongside itself.
func ResolveExe(name string) (string, error) {
	dir, err := ExeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ResolveLinkedExe joins LinksDir with name, for locating a bundled tracer
// binary (ruby/small tracers; Noir uses CODETRACER_NOIR_EXE_PATH instead,
// §4.5 table).
func ResolveLinkedExe(name string) (string, error) {
	dir, err := LinksDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
