package purge

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marianozunino/ofu/internal/journal"
	"github.com/marianozunino/ofu/internal/metrics"
	"github.com/marianozunino/ofu/internal/retention"
	"github.com/marianozunino/ofu/internal/storage"
)

// Policy gives the maximum age in days of a file of a given size in MiB.
type Policy interface {
	MaxAgeDays(sizeMiB float64) float64
}

// Deletion is a file removed by a purge pass.
type Deletion struct {
	Name       string
	Size       int64
	AgeDays    float64
	MaxAgeDays float64
}

// FileError is a file a purge pass failed to remove. It never aborts the pass.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to purge %s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Report summarizes one purge pass.
type Report struct {
	Scanned int
	Skipped int // younger than the age floor
	Deleted []Deletion
	Failed  []*FileError
}

// DeletedCount is the number of files removed.
func (r Report) DeletedCount() int {
	return len(r.Deleted)
}

// ReclaimedBytes is the total size of the removed files.
func (r Report) ReclaimedBytes() int64 {
	var total int64
	for _, d := range r.Deleted {
		total += d.Size
	}
	return total
}

// Purger removes stored files that outlived their retention.
type Purger struct {
	root     *storage.Root
	policy   Policy
	ageFloor float64 // days
	journal  *journal.Sink
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
	now      func() time.Time
}

// New returns a purger for root. Files younger than ageFloor days are never
// considered; with the policy's minimum age as the floor the outcome is the
// same as with no floor.
func New(root *storage.Root, policy Policy, ageFloor float64, sink *journal.Sink, m *metrics.Metrics, log *zap.SugaredLogger) *Purger {
	return &Purger{
		root:     root,
		policy:   policy,
		ageFloor: ageFloor,
		journal:  sink,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Run performs one purge pass. Every file in the storage root older than the
// retention for its size is deleted. Files that cannot be deleted are
// reported and skipped. Once the scan completes, one purge log line per
// deleted file is appended in a single write.
//
// Run works on a snapshot of the directory and holds no state between
// passes, so it is safe to run concurrently with uploads and with itself.
func (p *Purger) Run() (Report, error) {
	files, err := p.root.List()
	if err != nil {
		return Report{}, err
	}
	return p.runOn(files)
}

func (p *Purger) runOn(files []fs.FileInfo) (Report, error) {
	var report Report

	now := p.now()
	for _, file := range files {
		report.Scanned++

		age := retention.AgeDays(now.Sub(file.ModTime()))
		if age < p.ageFloor {
			report.Skipped++
			continue
		}

		maxAge := p.policy.MaxAgeDays(retention.SizeMiB(file.Size()))
		if age <= maxAge {
			continue
		}

		if err := p.root.Remove(file.Name()); err != nil {
			ferr := &FileError{Name: file.Name(), Err: err}
			if errors.Is(err, storage.ErrNotFound) {
				p.log.Debugw("File already gone", "name", file.Name())
			} else {
				p.log.Errorw("Error removing expired file", "name", file.Name(), "error", err)
			}
			report.Failed = append(report.Failed, ferr)
			continue
		}

		report.Deleted = append(report.Deleted, Deletion{
			Name:       file.Name(),
			Size:       file.Size(),
			AgeDays:    age,
			MaxAgeDays: maxAge,
		})
		p.log.Infow("Removed expired file",
			"name", file.Name(),
			"size_mib", round(retention.SizeMiB(file.Size()), 2),
			"age_days", round(age, 1),
			"max_age_days", round(maxAge, 1),
		)
	}

	p.metrics.Purge(report.DeletedCount(), report.ReclaimedBytes(), len(report.Failed))
	p.log.Infof("Purge complete. Removed %d of %d files", report.DeletedCount(), report.Scanned)

	if err := p.writeJournal(now, report.Deleted); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Purger) writeJournal(at time.Time, deleted []Deletion) error {
	if len(deleted) == 0 {
		return nil
	}

	records := make([][]string, 0, len(deleted))
	for _, d := range deleted {
		records = append(records, journal.Record(at,
			d.Name,
			formatFloat(round(retention.SizeMiB(d.Size), 2)),
			formatFloat(round(d.AgeDays, 1)),
		))
	}
	return p.journal.Append(records...)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
