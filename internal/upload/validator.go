package upload

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marianozunino/ofu/internal/config"
)

// Candidate is one file received by the transport, not yet validated.
type Candidate struct {
	File         io.ReadSeeker
	DeclaredSize int64
	Filename     string
	ClientAddr   string

	// Fault and TransportErr describe a failure the transport hit while
	// receiving the file; File is nil in that case.
	Fault        Fault
	TransportErr error
}

// Analysis is what the validator learned about an accepted candidate.
type Analysis struct {
	Size        int64
	ContentType string
}

// Validator decides whether a candidate may be stored.
type Validator struct {
	maxSizeMiB   float64
	maxBytes     int64
	blockedTypes []string
}

// NewValidator returns a validator enforcing the size limit and blocked
// types of cfg.
func NewValidator(cfg *config.Config) *Validator {
	return &Validator{
		maxSizeMiB:   cfg.MaxSize,
		maxBytes:     cfg.MaxSizeToBytes(),
		blockedTypes: cfg.BlockedTypes,
	}
}

// Validate checks c and returns the first reason it must be rejected as an
// *Error. The checks run in order: transport fault, empty file, size
// mismatch, size limit, blocked content type. The file is rewound before
// returning.
func (v *Validator) Validate(c *Candidate) (Analysis, error) {
	if c.Fault != FaultNone {
		return Analysis{}, transportError(c.Fault, v.maxSizeMiB, c.TransportErr)
	}
	if c.File == nil {
		return Analysis{}, transportError(FaultNoFile, v.maxSizeMiB, nil)
	}

	size, err := measure(c.File)
	if err != nil {
		return Analysis{}, transportError(FaultUnknown, v.maxSizeMiB, err)
	}

	if size == 0 {
		return Analysis{}, &Error{Kind: EmptyUpload, Code: http.StatusBadRequest, Message: "Uploaded file is empty"}
	}

	if size != c.DeclaredSize {
		return Analysis{}, &Error{
			Kind:    SizeMismatch,
			Code:    http.StatusBadRequest,
			Message: "Error while uploading file",
			Err:     fmt.Errorf("declared %d bytes, received %d", c.DeclaredSize, size),
		}
	}

	if size > v.maxBytes {
		return Analysis{}, &Error{
			Kind:    OversizeUpload,
			Code:    http.StatusRequestEntityTooLarge,
			Message: maxSizeMessage(v.maxSizeMiB),
		}
	}

	mtype, err := mimetype.DetectReader(c.File)
	if err != nil {
		return Analysis{}, transportError(FaultUnknown, v.maxSizeMiB, err)
	}
	if _, err := c.File.Seek(0, io.SeekStart); err != nil {
		return Analysis{}, transportError(FaultUnknown, v.maxSizeMiB, err)
	}

	contentType := mediaType(mtype.String())
	if v.isBlocked(mtype) {
		return Analysis{}, &Error{
			Kind:    BlockedType,
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid file type (%s)", contentType),
		}
	}

	return Analysis{Size: size, ContentType: mtype.String()}, nil
}

func (v *Validator) isBlocked(mtype *mimetype.MIME) bool {
	for _, blocked := range v.blockedTypes {
		if mtype.Is(blocked) {
			return true
		}
	}
	return false
}

// measure returns the length of f and leaves it positioned at the start.
func measure(f io.Seeker) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		return strings.TrimSpace(contentType[:i])
	}
	return contentType
}
