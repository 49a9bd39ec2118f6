// Implements: §4.6 sharing protocol, §6 "Sharing protocol" (upload,
// download, delete).
// Grounded on petar-djukic-mage-claude-orchestrator/pkg/orchestrator/token_stats.go's
// net/http POST idiom (see DESIGN.md for why net/http rather than a
// third-party client).
package importexport

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// CompositeKey is the parsed form of "<program-name>//<downloadId>//<password>"
// (§6): parsing requires exactly 3 "//"-separated parts rather than
// attempting general "//" escaping.
type CompositeKey struct {
	Program    string
	DownloadID string
	Password   string
}

// ParseCompositeKey splits key into exactly 3 "//"-separated parts. A key
// with more or fewer than 3 parts is a usage error (§9).
func ParseCompositeKey(key string) (CompositeKey, error) {
	parts := strings.SplitN(key, "//", 3)
	if len(parts) != 3 {
		return CompositeKey{}, fmt.Errorf("invalid composite remote key %q: expected exactly 3 \"//\"-separated parts", key)
	}
	// SplitN caps at 3 pieces but does not validate there isn't a 4th
	// embedded "//" inside the password; count separators explicitly.
	if strings.Count(key, "//") != 2 {
		return CompositeKey{}, fmt.Errorf("invalid composite remote key %q: expected exactly 3 \"//\"-separated parts", key)
	}
	return CompositeKey{Program: parts[0], DownloadID: parts[1], Password: parts[2]}, nil
}

// String renders the key back to "<program>//<downloadId>//<password>".
func (k CompositeKey) String() string {
	return k.Program + "//" + k.DownloadID + "//" + k.Password
}

// Upload POSTs the archive at zipPath to "<webAPIRoot>/upload" as a
// multipart "file" field (§6 "POST <webApiRoot>/upload multipart
// file=@<zip>").
func Upload(webAPIRoot, zipPath string) error {
	f, err := os.Open(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(zipPath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy archive into request body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := strings.TrimSuffix(webAPIRoot, "/") + "/upload"
	req, err := http.NewRequest(http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed with status %s", resp.Status)
	}
	return nil
}

// Download fetches "<baseUrl><downloadApi>?DownloadId=<id>" and returns the
// encrypted blob (§6).
func Download(baseURL, downloadAPI, downloadID string) ([]byte, error) {
	endpoint := baseURL + downloadAPI + "?" + url.Values{"DownloadId": {downloadID}}.Encode()
	resp, err := http.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed with status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Delete requests "<baseUrl><deleteApi>?ControlId=<id>" (§6, §4.6
// "Remote delete").
func Delete(baseURL, deleteAPI, controlID string) error {
	endpoint := baseURL + deleteAPI + "?" + url.Values{"ControlId": {controlID}}.Encode()
	resp, err := http.Get(endpoint)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("delete failed with status %s", resp.Status)
	}
	return nil
}
