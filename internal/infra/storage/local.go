package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore saves blobs to disk under a base directory and serves them
// under URLPrefix (for example "/media/").
type LocalStore struct {
	basePath  string
	urlPrefix string
}

// NewLocalStore creates the base directory if missing.
func NewLocalStore(basePath, urlPrefix string) (*LocalStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/media/"
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{basePath: basePath, urlPrefix: urlPrefix}, nil
}

func (l *LocalStore) BasePath() string { return l.basePath }

func (l *LocalStore) URLPrefix() string { return l.urlPrefix }

func (l *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	target, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	// write to a temp file first so readers never see a partial image
	tmp := target + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit file: %w", err)
	}
	return l.urlPrefix + path.Clean(key), nil
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	target, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Check implements middleware.HealthChecker
func (l *LocalStore) Check(context.Context) error {
	_, err := os.Stat(l.basePath)
	return err
}

func (l *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(l.basePath, filepath.FromSlash(clean)), nil
}
