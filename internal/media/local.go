package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk keeps images in a directory served at BaseURL. Used when no
// image host is configured.
type LocalDisk struct {
	Dir     string
	BaseURL string
}

func NewLocalDisk(dir, baseURL string) (*LocalDisk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalDisk{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *LocalDisk) Upload(_ context.Context, r io.Reader, name string) (string, error) {
	name = filepath.Base(name)
	f, err := os.OpenFile(filepath.Join(l.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}
	return l.BaseURL + "/" + name, nil
}

// Delete removes a file previously returned by Upload. URLs that do not
// point into BaseURL are ignored.
func (l *LocalDisk) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, l.BaseURL+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, l.BaseURL+"/"))
	if err := os.Remove(filepath.Join(l.Dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
