package importexport

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// sharingServer fakes the upload/download/delete endpoints of §6's
// sharing protocol, storing the single most recently uploaded blob.
func sharingServer(t *testing.T) (*httptest.Server, *[]byte) {
	t.Helper()
	var stored []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 1<<20)
		n, _ := file.Read(buf)
		stored = append([]byte(nil), buf[:n]...)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		w.Write(stored)
	})
	mux.HandleFunc("/delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &stored
}

func TestExportThenImportFromRemoteRoundTrips(t *testing.T) {
	cat := newTestCatalog(t)
	server, _ := sharingServer(t)
	ep := RemoteEndpoints{WebAPIRoot: server.URL, BaseURL: server.URL, DownloadAPI: "/download", DeleteAPI: "/delete"}

	traceRoot := t.TempDir()
	outputFolder := filepath.Join(traceRoot, "trace-1")
	require.NoError(t, os.MkdirAll(outputFolder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputFolder, "trace_metadata.json"), []byte(`{"id":1,"program":"/bin/prog"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputFolder, "trace.json"), []byte(`{}`), 0o644))

	id, err := cat.NewID(trace.Production)
	require.NoError(t, err)
	original := trace.Trace{ID: id, Program: "/bin/prog", OutputFolder: outputFolder}
	_, err = cat.RecordTrace(original, trace.Production)
	require.NoError(t, err)

	result, err := Export(cat, original, trace.Production, ep)
	require.NoError(t, err)
	require.Equal(t, "/bin/prog", result.Key.Program)
	require.Len(t, result.Password, PasswordSize)

	stored, err := cat.Find(1, trace.Production)
	require.NoError(t, err)
	require.Equal(t, result.Key.DownloadID, stored.DownloadID)
	require.NotEmpty(t, stored.ControlID)

	importRoot := t.TempDir()
	imported, err := ImportFromRemote(cat, result.Key, importRoot, trace.Production, ep)
	require.NoError(t, err)
	require.True(t, imported.Imported)
	require.Equal(t, "/bin/prog", imported.Program)
	require.NotEqual(t, int64(1), imported.ID)
}

func TestDeleteRemoteClearsCatalogFieldsOnSuccess(t *testing.T) {
	cat := newTestCatalog(t)
	server, _ := sharingServer(t)
	ep := RemoteEndpoints{WebAPIRoot: server.URL, BaseURL: server.URL, DownloadAPI: "/download", DeleteAPI: "/delete"}

	tr := trace.Trace{ID: 2, Program: "/bin/prog", DownloadID: "dl-2", ControlID: "ctl-2", Key: "k"}
	_, err := cat.RecordTrace(tr, trace.Production)
	require.NoError(t, err)

	require.NoError(t, DeleteRemote(cat, tr, trace.Production, ep))

	found, err := cat.Find(2, trace.Production)
	require.NoError(t, err)
	require.Empty(t, found.DownloadID)
	require.Empty(t, found.ControlID)
	require.Empty(t, found.Key)
	require.Empty(t, found.RemoteShareExpireTime)
}
