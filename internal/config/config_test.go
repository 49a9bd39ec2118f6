package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.TraceSharingEnabled)
	require.Error(t, cfg.RequireSharing())
}

func TestLoadParsesRecognizedKeys(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	codetracerDir := filepath.Join(dir, "codetracer")
	require.NoError(t, os.MkdirAll(codetracerDir, 0o755))

	yaml := `
traceSharingEnabled: true
baseUrl: https://example.test
uploadApi: /upload
downloadApi: /download
deleteApi: /delete
defaultBuild: "make"
webApiRoot: https://legacy.example.test
`
	require.NoError(t, os.WriteFile(filepath.Join(codetracerDir, ".config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.TraceSharingEnabled)
	require.Equal(t, "https://example.test", cfg.BaseURL)
	require.Equal(t, "/upload", cfg.UploadAPI)
	require.Equal(t, "/download", cfg.DownloadAPI)
	require.Equal(t, "/delete", cfg.DeleteAPI)
	require.Equal(t, "make", cfg.DefaultBuild)
	require.Equal(t, "https://legacy.example.test", cfg.WebAPIRoot)
	require.NoError(t, cfg.RequireSharing())
}

func TestWriteDefaultIfMissingCreatesFileOnce(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := WriteDefaultIfMissing()
	require.NoError(t, err)
	require.FileExists(t, path)

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.TraceSharingEnabled)
	require.Equal(t, "debug", cfg.DefaultBuild)

	require.NoError(t, os.WriteFile(path, []byte("traceSharingEnabled: true\n"), 0o644))
	path2, err := WriteDefaultIfMissing()
	require.NoError(t, err)
	require.Equal(t, path, path2)

	cfg2, err := Load()
	require.NoError(t, err)
	require.True(t, cfg2.TraceSharingEnabled)
}
