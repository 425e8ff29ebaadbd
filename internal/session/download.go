package session

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// DownloadName is the file name offered for the processed photo.
const DownloadName = "passport-photo.jpg"

// Downloader writes processed photos into a directory.
type Downloader struct {
	// Dir is the output directory. Empty means the working directory.
	Dir string
}

// Download writes data as name inside Dir and returns the resulting path.
// The file is written to a temporary name first so a failed write never
// leaves a truncated photo behind.
func (d *Downloader) Download(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".passport-photo-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename to %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		log.Printf("chmod %s: %v", path, err)
	}
	return path, nil
}
