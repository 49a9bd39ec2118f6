package importexport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompositeKey(t *testing.T) {
	key, err := ParseCompositeKey("myprog//dl-1//pw-1")
	require.NoError(t, err)
	require.Equal(t, CompositeKey{Program: "myprog", DownloadID: "dl-1", Password: "pw-1"}, key)
	require.Equal(t, "myprog//dl-1//pw-1", key.String())
}

func TestParseCompositeKeyRejectsWrongPartCount(t *testing.T) {
	_, err := ParseCompositeKey("only-one-part")
	require.Error(t, err)

	_, err = ParseCompositeKey("a//b//c//d")
	require.Error(t, err)
}

func TestUpload(t *testing.T) {
	var receivedFilename string
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		receivedFilename = header.Filename
		receivedBody, err = io.ReadAll(file)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "archived.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("fake-archive-bytes"), 0o644))

	err := Upload(server.URL, zipPath)
	require.NoError(t, err)
	require.Equal(t, "archived.zip", receivedFilename)
	require.Equal(t, []byte("fake-archive-bytes"), receivedBody)
}

func TestUploadFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "archived.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("x"), 0o644))

	err := Upload(server.URL, zipPath)
	require.Error(t, err)
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "dl-1", r.URL.Query().Get("DownloadId"))
		w.Write([]byte("encrypted-bytes"))
	}))
	defer server.Close()

	data, err := Download(server.URL, "/download", "dl-1")
	require.NoError(t, err)
	require.Equal(t, []byte("encrypted-bytes"), data)
}

func TestDelete(t *testing.T) {
	var receivedControlID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedControlID = r.URL.Query().Get("ControlId")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := Delete(server.URL, "/delete", "ctl-1")
	require.NoError(t, err)
	require.Equal(t, "ctl-1", receivedControlID)
}
