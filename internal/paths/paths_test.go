package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShareDirUsesXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	dir, err := ShareDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/xdg-data", "codetracer"), dir)
}

func TestShareDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	restore := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return "/home/tester", nil }
	defer func() { platformDir.homeDir = restore }()

	dir, err := ShareDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/home/tester", ".local", "share", "codetracer"), dir)
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	path, err := ConfigFile()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/xdg-config", "codetracer", ".config.yaml"), path)
}

func TestTraceDirUnderShareDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	dir, err := TraceDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/xdg-data", "codetracer", "traces"), dir)
}

func TestInstanceSocketPath(t *testing.T) {
	got := InstanceSocketPath(4321)
	require.Equal(t, filepath.Join(TmpDir(), "ct_instance_4321"), got)
}

func TestLoadRuntimePathsRequiresEnv(t *testing.T) {
	t.Setenv(EnvCtPaths, "")
	_, err := LoadRuntimePaths()
	require.ErrorIs(t, err, ErrRuntimePathsNotConfigured)
}

func TestLoadRuntimePathsMissingFileIsFatalWithHint(t *testing.T) {
	t.Setenv(EnvCtPaths, filepath.Join(t.TempDir(), "does-not-exist.json"))
	_, err := LoadRuntimePaths()
	require.Error(t, err)
	require.Contains(t, err.Error(), "CODETRACER_CT_PATHS")
}

func TestLoadRuntimePathsParsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ct_paths.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installDir":"/opt/codetracer","exeDir":"/opt/codetracer/bin","linksDir":"/opt/codetracer/links"}`), 0o644))
	t.Setenv(EnvCtPaths, path)

	rp, err := LoadRuntimePaths()
	require.NoError(t, err)
	require.Equal(t, "/opt/codetracer", rp.InstallDir)
	require.Equal(t, "/opt/codetracer/bin", rp.ExeDir)
	require.Equal(t, "/opt/codetracer/links", rp.LinksDir)

	exe, err := ResolveExe("codetracer-ui")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/opt/codetracer/bin", "codetracer-ui"), exe)

	linked, err := ResolveLinkedExe("ruby_tracer")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/opt/codetracer/links", "ruby_tracer"), linked)
}
