package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var _ Backend = (*FileBackend)(nil)

// FileBackend stores every entry in a single JSON document readable only by
// the owner. The document is re-read on each access so separate processes
// sharing the file see each other's writes.
type FileBackend struct {
	path string
	lock sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Get(_ context.Context, key string) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	entries, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	entries, err := f.read()
	if err != nil {
		// A corrupt document is replaced rather than blocking every write
		entries = map[string]string{}
	}
	entries[key] = value
	return f.write(entries)
}

func (f *FileBackend) Delete(_ context.Context, keys ...string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	entries, err := f.read()
	if err != nil {
		return f.remove()
	}
	for _, k := range keys {
		delete(entries, k)
	}
	if len(entries) == 0 {
		return f.remove()
	}
	return f.write(entries)
}

func (f *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read %s: %w", f.path, err)
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("tokenstore: decode %s: %w", f.path, err)
	}
	return entries, nil
}

func (f *FileBackend) write(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("tokenstore: rename: %w", err)
	}
	return nil
}

func (f *FileBackend) remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenstore: remove %s: %w", f.path, err)
	}
	return nil
}
