package imagestore

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"time"
)

// URLPrefix under which the disk store's files are served
const URLPrefix = "/uploads/images"

// Disk stores images in a local directory, served as static files.
// The default store; good enough for a single instance deployment.
type Disk struct {
	dir string
}

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("can't create upload dir %q. Err: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

// Dir reports the directory files are written to, for static file serving
func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) Save(_ context.Context, ext string, _ string, content io.Reader) (string, error) {
	name := fmt.Sprintf("grain-analysis-%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), ext)

	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return "", fmt.Errorf("can't create image file. Err: %w", err)
	}
	defer f.Close() // nolint:errcheck

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("can't write image file. Err: %w", err)
	}

	return path.Join(URLPrefix, name), nil
}
