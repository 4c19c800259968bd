package download

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractZip unpacks path into dir and returns the number of files written.
// Entries resolving outside dir are rejected.
func extractZip(path, dir string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer func() { _ = zr.Close() }()

	root := filepath.Clean(dir) + string(os.PathSeparator)
	files := 0
	for _, f := range zr.File {
		target := filepath.Join(dir, f.Name)
		if !strings.HasPrefix(target, root) {
			return files, fmt.Errorf("%w: entry %q escapes the target directory", ErrInvalidArchive, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, fmt.Errorf("creating %s: %w", f.Name, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return files, err
		}
		files++
	}
	return files, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: extracting %s: %v", ErrInvalidArchive, f.Name, err)
	}
	return out.Close()
}
