package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Placeholder is the reserved entry kept in the storage root so the directory
// is never listed by a web server. It is never treated as a stored file.
const Placeholder = "index.html"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrInvalidName   = errors.New("invalid name")
)

// Root is the directory uploads are stored in. The process is assumed to
// have exclusive write authority over it.
type Root struct {
	dir string
}

// Open ensures the storage directory and its placeholder exist and returns a
// Root for it.
func Open(dir string) (*Root, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	placeholder := filepath.Join(dir, Placeholder)
	f, err := os.OpenFile(placeholder, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", placeholder, err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return &Root{dir: dir}, nil
}

// Dir returns the storage directory.
func (r *Root) Dir() string {
	return r.dir
}

// Create creates name exclusively. It fails with ErrAlreadyExists when an
// entry with that name is already present, so two callers can never claim
// the same name.
func (r *Root) Create(name string) (*os.File, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return file, nil
}

// Open opens a stored file for reading. Directories are reported as
// ErrNotFound.
func (r *Root) Open(name string) (*os.File, error) {
	if name == Placeholder {
		return nil, ErrNotFound
	}
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}
	return file, nil
}

// Remove deletes a stored file. Removing a missing file reports ErrNotFound.
func (r *Root) Remove(name string) error {
	if name == Placeholder {
		return ErrInvalidName
	}
	path, err := r.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns every stored file in the root, skipping the placeholder and
// directories. The result is a snapshot; files created afterwards are not
// included and files listed may be gone by the time they are used.
func (r *Root) List() ([]fs.FileInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	files := make([]fs.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == Placeholder {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		files = append(files, info)
	}
	return files, nil
}

func (r *Root) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(r.dir, name), nil
}
