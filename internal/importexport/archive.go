// Implements: §4.6 "Package a trace folder into a password-protected
// archive" / "Extract archive into a prepared empty output folder".
//
// Uses the standard library archive/zip package (see DESIGN.md for why).
package importexport

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipDir archives every regular file under dir into a new zip file at
// destZipPath, using paths relative to dir as archive entry names.
func ZipDir(dir, destZipPath string) error {
	out, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		w, err := zw.Create(rel)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", rel, err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return fmt.Errorf("write zip entry %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", dir, err)
	}
	return nil
}

// UnzipTo extracts every entry of the zip file at srcZipPath into destDir,
// rejecting entries whose relative path would escape destDir (path
// traversal via "../" or an absolute path), so that unpacking a trace
// archive can never write outside its destination directory (§3
// invariant 5: "an imported=true Trace never references absolute paths
// outside outputFolder/files/").
func UnzipTo(srcZipPath, destDir string) error {
	r, err := zip.OpenReader(srcZipPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", srcZipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", destDir, err)
	}

	for _, f := range r.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", filepath.Dir(target), err)
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", target, err)
	}
	return nil
}

// safeJoin joins base and rel, rejecting any result that escapes base.
func safeJoin(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("zip entry has an absolute path: %s", rel)
	}
	cleaned := filepath.Clean(filepath.Join(base, rel))
	baseWithSep := strings.TrimSuffix(base, string(filepath.Separator)) + string(filepath.Separator)
	if cleaned != strings.TrimSuffix(baseWithSep, string(filepath.Separator)) && !strings.HasPrefix(cleaned, baseWithSep) {
		return "", fmt.Errorf("zip entry escapes destination: %s", rel)
	}
	return cleaned, nil
}
