// Package retention maps a file's size to the number of days it is kept.
//
// The lifetime decays from MaxAge for an empty file down to MinAge for a file
// at the size limit:
//
//	retention = min_age + (max_age - min_age) * (1 - size/max_size) ^ decay_exponent
//
// Nothing is persisted; the policy is re-evaluated whenever it is needed, so
// changing the constants retroactively changes retention of stored files.
package retention

import (
	"errors"
	"math"
	"time"

	"github.com/marianozunino/ofu/internal/config"
)

const (
	bytesPerMiB = 1024 * 1024
	day         = 24 * time.Hour
)

// Policy is the size-based retention formula.
type Policy struct {
	MinAge        float64 // days
	MaxAge        float64 // days
	MaxSize       float64 // MiB
	DecayExponent float64
}

// New builds a policy from the retention settings of cfg.
func New(cfg *config.Config) (Policy, error) {
	p := Policy{
		MinAge:        cfg.MinAge,
		MaxAge:        cfg.MaxAge,
		MaxSize:       cfg.MaxSize,
		DecayExponent: cfg.DecayExponent,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate reports whether the constants describe a well-formed decay.
func (p Policy) Validate() error {
	if p.MinAge <= 0 {
		return errors.New("min age must be greater than 0")
	}
	if p.MaxAge <= p.MinAge {
		return errors.New("max age must be greater than min age")
	}
	if p.MaxSize <= 0 {
		return errors.New("max size must be greater than 0")
	}
	if p.DecayExponent <= 0 {
		return errors.New("decay exponent must be greater than 0")
	}
	return nil
}

// MaxAgeDays returns the retention in days for a file of sizeMiB. Sizes outside
// [0, MaxSize] are clamped to the nearest bound.
func (p Policy) MaxAgeDays(sizeMiB float64) float64 {
	if sizeMiB <= 0 || math.IsNaN(sizeMiB) {
		return p.MaxAge
	}
	if sizeMiB >= p.MaxSize {
		return p.MinAge
	}
	return p.MinAge + (p.MaxAge-p.MinAge)*math.Pow(1-sizeMiB/p.MaxSize, p.DecayExponent)
}

// Lifetime returns the retention of a file of size bytes as a duration.
func (p Policy) Lifetime(size int64) time.Duration {
	return time.Duration(p.MaxAgeDays(SizeMiB(size)) * float64(day))
}

// ExpiresAt returns the moment a file of size bytes last modified at modTime
// becomes eligible for purging.
func (p Policy) ExpiresAt(size int64, modTime time.Time) time.Time {
	return modTime.Add(p.Lifetime(size))
}

// SizeMiB converts a byte count to mebibytes.
func SizeMiB(size int64) float64 {
	return float64(size) / bytesPerMiB
}

// AgeDays converts a duration to fractional days.
func AgeDays(age time.Duration) float64 {
	return age.Hours() / 24
}
