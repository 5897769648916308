// Package journal writes the tab-separated upload, purge and error logs.
//
// Each sink is configured with a path template; "{date}" in the template is
// replaced by the current date (YYYY-MM-DD), giving one file per day. A sink
// with an empty template is disabled and silently drops everything.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marianozunino/ofu/internal/config"
)

const dateLayout = "2006-01-02"

var fieldReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// Sink is an append-only log destination.
type Sink struct {
	pattern string
	now     func() time.Time
}

// New returns a sink writing to the file described by pattern.
func New(pattern string) *Sink {
	return &Sink{pattern: pattern, now: time.Now}
}

// Enabled reports whether the sink writes anywhere.
func (s *Sink) Enabled() bool {
	return s != nil && s.pattern != ""
}

// Path returns the file the sink writes to at t.
func (s *Sink) Path(t time.Time) string {
	return strings.ReplaceAll(s.pattern, "{date}", t.Format(dateLayout))
}

// Record builds a log line: the ISO-8601 timestamp followed by fields.
func Record(at time.Time, fields ...any) []string {
	record := make([]string, 0, len(fields)+1)
	record = append(record, at.Format(time.RFC3339))
	for _, f := range fields {
		record = append(record, fmt.Sprint(f))
	}
	return record
}

// Append writes every record as one tab-separated line. All lines go out in a
// single write so concurrent writers never interleave within a batch.
func (s *Sink) Append(records ...[]string) error {
	if !s.Enabled() || len(records) == 0 {
		return nil
	}

	var b strings.Builder
	for _, record := range records {
		for i, field := range record {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(fieldReplacer.Replace(field))
		}
		b.WriteByte('\n')
	}

	path := s.Path(s.now())
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open log %s: %w", path, err)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log %s: %w", path, err)
	}
	return f.Close()
}

// Journals groups the three sinks the service writes to.
type Journals struct {
	Upload *Sink
	Purge  *Sink
	Error  *Sink
}

// FromConfig returns the sinks configured in cfg.
func FromConfig(cfg *config.Config) Journals {
	return Journals{
		Upload: New(cfg.UploadLogPath),
		Purge:  New(cfg.PurgeLogPath),
		Error:  New(cfg.ErrorLogPath),
	}
}
