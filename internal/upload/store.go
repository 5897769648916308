package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marianozunino/ofu/internal/journal"
	"github.com/marianozunino/ofu/internal/naming"
	"github.com/marianozunino/ofu/internal/storage"
)

// Stored describes a file persisted by Store.
type Stored struct {
	Name         string
	Size         int64
	OriginalName string
}

// Store persists validated candidates in the storage root.
type Store struct {
	root  *storage.Root
	namer *naming.Namer
	audit *journal.Sink
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewStore returns a store writing into root under names from namer and
// recording each upload in audit.
func NewStore(root *storage.Root, namer *naming.Namer, audit *journal.Sink, log *zap.SugaredLogger) *Store {
	return &Store{
		root:  root,
		namer: namer,
		audit: audit,
		log:   log,
		now:   time.Now,
	}
}

// Save writes c under a freshly claimed name that keeps the original
// extension, then appends one line to the upload log. Any failure removes
// the partial file and is reported as a StorageFailure; nothing is retried.
func (s *Store) Save(c *Candidate) (Stored, error) {
	ext := naming.Extension(c.Filename)

	var dst *os.File
	name, err := s.namer.Acquire(ext, func(name string) error {
		f, err := s.root.Create(name)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return naming.ErrNameTaken
		}
		if err != nil {
			return err
		}
		dst = f
		return nil
	})
	if err != nil {
		return Stored{}, storageFailure("Could not reserve file name", err)
	}

	size, err := s.write(dst, c.File)
	if err != nil {
		s.discard(name)
		return Stored{}, storageFailure("Could not move file", err)
	}

	record := journal.Record(s.now(), c.ClientAddr, size, shellQuote(c.Filename), name)
	if err := s.audit.Append(record); err != nil {
		s.discard(name)
		return Stored{}, storageFailure("Could not write upload log", err)
	}

	s.log.Infow("Stored upload",
		"name", name,
		"original_name", c.Filename,
		"size", size,
		"client", c.ClientAddr,
	)

	return Stored{Name: name, Size: size, OriginalName: c.Filename}, nil
}

func (s *Store) write(dst *os.File, src io.ReadSeeker) (int64, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		dst.Close()
		return 0, err
	}

	size, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		return 0, fmt.Errorf("failed to save file: %w", err)
	}

	if err := dst.Sync(); err != nil {
		dst.Close()
		return 0, fmt.Errorf("failed to sync file: %w", err)
	}
	return size, dst.Close()
}

func (s *Store) discard(name string) {
	if err := s.root.Remove(name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warnw("Failed to clean up partial upload", "name", name, "error", err)
	}
}

func storageFailure(message string, err error) *Error {
	return &Error{Kind: StorageFailure, Code: StatusUnknownError, Message: message, Err: err}
}

// shellQuote wraps s in single quotes so the original filename reads back
// unambiguously from the log.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
