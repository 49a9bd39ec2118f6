// Implements: §4.6 "Export" (package + encrypt + upload) and "Import
// from remote share" (download + decrypt + unpack), plus remote delete.
// Grounded on petar-djukic-crumbs/internal/sqlite/json.go's "serialize to a
// temp file, then hand the path off" pipeline shape.
package importexport

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/metacraft-labs/codetracer-core/internal/catalog"
	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// RemoteEndpoints carries the sharing server's base URL and API paths (§6 "Sharing protocol"). The CLI fills them from the loaded Config's WebAPIRoot, BaseURL, DownloadAPI and DeleteAPI.
type RemoteEndpoints struct {
	WebAPIRoot  string
	BaseURL     string
	DownloadAPI string
	DeleteAPI   string
}

// ExportResult is returned by Export: the composite key a recipient needs to
// later download and decrypt the trace.
type ExportResult struct {
	Key      CompositeKey
	Password string
}

// Export implements §4.6 "Export (upload)": zip t.OutputFolder, encrypt
// the archive under a freshly generated password, upload it, mint
// downloadId/controlId client-side (nothing is read from the upload
// response), and persist downloadId/controlId/key on the catalog row.
func Export(cat *catalog.Catalog, t trace.Trace, test trace.Partition, ep RemoteEndpoints) (ExportResult, error) {
	plainZip := filepath.Join(t.OutputFolder, "archive.zip")
	if err := ZipDir(t.OutputFolder, plainZip); err != nil {
		return ExportResult{}, fmt.Errorf("package trace folder: %w", err)
	}
	defer os.Remove(plainZip)

	plaintext, err := os.ReadFile(plainZip)
	if err != nil {
		return ExportResult{}, fmt.Errorf("read archive: %w", err)
	}

	password, err := GeneratePassword()
	if err != nil {
		return ExportResult{}, fmt.Errorf("generate password: %w", err)
	}

	ciphertext, err := EncryptArchive(plaintext, password)
	if err != nil {
		return ExportResult{}, fmt.Errorf("encrypt archive: %w", err)
	}

	encryptedZip := filepath.Join(t.OutputFolder, "archived.zip")
	if err := os.WriteFile(encryptedZip, ciphertext, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write encrypted archive: %w", err)
	}
	defer os.Remove(encryptedZip)

	if err := Upload(ep.WebAPIRoot, encryptedZip); err != nil {
		return ExportResult{}, fmt.Errorf("upload archive: %w", err)
	}

	// The upload response is expected to echo back downloadId/controlId, but
	// this sharing server never returns one; the client mints both ids
	// itself with generateUUID instead.
	downloadID := generateUUID()
	controlID := generateUUID()

	if err := cat.UpdateField(t.ID, "downloadId", downloadID, test); err != nil {
		return ExportResult{}, fmt.Errorf("record downloadId: %w", err)
	}
	if err := cat.UpdateField(t.ID, "controlId", controlID, test); err != nil {
		return ExportResult{}, fmt.Errorf("record controlId: %w", err)
	}
	key := CompositeKey{Program: t.Program, DownloadID: downloadID, Password: password}
	if err := cat.UpdateField(t.ID, "key", key.String(), test); err != nil {
		return ExportResult{}, fmt.Errorf("record key: %w", err)
	}

	return ExportResult{Key: key, Password: password}, nil
}

// ImportFromRemote implements §4.6 "Import from remote share":
// download the encrypted archive by CompositeKey.DownloadID, decrypt with
// CompositeKey.Password, unpack into a fresh output folder, and register an
// imported=true Trace.
func ImportFromRemote(cat *catalog.Catalog, key CompositeKey, traceRootDir string, test trace.Partition, ep RemoteEndpoints) (trace.Trace, error) {
	ciphertext, err := Download(ep.BaseURL, ep.DownloadAPI, key.DownloadID)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("download trace: %w", err)
	}

	plaintext, err := DecryptArchive(ciphertext, key.Password)
	if err != nil {
		return trace.Trace{}, fmt.Errorf("decrypt trace: %w", err)
	}

	tmpZip, err := os.CreateTemp("", "codetracer-import-*.zip")
	if err != nil {
		return trace.Trace{}, fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmpZip.Name()
	defer os.Remove(tmpPath)
	if _, err := tmpZip.Write(plaintext); err != nil {
		tmpZip.Close()
		return trace.Trace{}, fmt.Errorf("write temp archive: %w", err)
	}
	if err := tmpZip.Close(); err != nil {
		return trace.Trace{}, fmt.Errorf("close temp archive: %w", err)
	}

	return ImportFromZip(cat, tmpPath, traceRootDir, test)
}

// generateUUID mints a v7 UUID for remote-sharing identifiers, falling back
// to v4 if time-based generation fails.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// DeleteRemote implements §4.6 "Remote delete": request deletion via
// ControlID and clear downloadId/controlId/key on the catalog row regardless
// of the server's response, since a stale local reference to a
// since-expired remote share is itself a defect (§7 taxonomy treats
// "remote already gone" as non-fatal).
func DeleteRemote(cat *catalog.Catalog, t trace.Trace, test trace.Partition, ep RemoteEndpoints) error {
	err := Delete(ep.BaseURL, ep.DeleteAPI, t.ControlID)

	if clearErr := cat.UpdateField(t.ID, "downloadId", "", test); clearErr != nil {
		return fmt.Errorf("clear downloadId: %w", clearErr)
	}
	if clearErr := cat.UpdateField(t.ID, "controlId", "", test); clearErr != nil {
		return fmt.Errorf("clear controlId: %w", clearErr)
	}
	if clearErr := cat.UpdateField(t.ID, "key", "", test); clearErr != nil {
		return fmt.Errorf("clear key: %w", clearErr)
	}
	if clearErr := cat.UpdateField(t.ID, "remoteShareExpireTime", "", test); clearErr != nil {
		return fmt.Errorf("clear remoteShareExpireTime: %w", clearErr)
	}

	if err != nil {
		return fmt.Errorf("remote delete request: %w", err)
	}
	return nil
}
