package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marianozunino/ofu/internal/upload"
)

// Multipart parts larger than this are spooled to temporary files.
const multipartMemory = 32 << 20

// Form fields files are accepted from.
var fileFields = []string{"files[]", "file"}

// uploadResult is the JSON description of one stored file.
type uploadResult struct {
	URL           string    `json:"url"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	ExpiresAt     time.Time `json:"expires_at"`
	ExpiresInDays int       `json:"expires_in_days"`
}

// HandleUpload stores every file of a multipart upload. All files are
// validated before any is stored; the first rejection fails the request.
func (h *Handler) HandleUpload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.cfg.MaxRequestBytes())

	candidates, cleanup := h.readCandidates(c)
	defer cleanup()

	if len(candidates) > h.cfg.MaxFiles {
		message := fmt.Sprintf("Too many files (max %d)", h.cfg.MaxFiles)
		return h.sendError(c, http.StatusBadRequest, message, true, message)
	}

	analyses := make([]upload.Analysis, len(candidates))
	for i, candidate := range candidates {
		analysis, err := h.validator.Validate(candidate)
		if err != nil {
			return h.reject(c, candidate, err)
		}
		analyses[i] = analysis
	}

	results := make([]uploadResult, 0, len(candidates))
	for i, candidate := range candidates {
		stored, err := h.store.Save(candidate)
		if err != nil {
			return h.reject(c, candidate, err)
		}
		h.metrics.Upload("stored", stored.Size)

		expiresAt := h.policy.ExpiresAt(stored.Size, h.now())
		results = append(results, uploadResult{
			URL:           h.cfg.BaseURL + url.PathEscape(stored.Name),
			Name:          stored.Name,
			Size:          stored.Size,
			ContentType:   analyses[i].ContentType,
			ExpiresAt:     expiresAt,
			ExpiresInDays: int(time.Until(expiresAt).Hours() / 24),
		})
	}

	return h.sendUploadResponse(c, results)
}

// readCandidates turns the multipart form into upload candidates. A transport
// failure yields a single candidate carrying the fault.
func (h *Handler) readCandidates(c echo.Context) ([]*upload.Candidate, func()) {
	req := c.Request()
	clientAddr := c.RealIP()

	var files []*multipart.FileHeader
	cleanup := func() {}

	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		return []*upload.Candidate{transportCandidate(clientAddr, err)}, cleanup
	}

	form := req.MultipartForm
	for _, field := range fileFields {
		files = append(files, form.File[field]...)
	}
	if len(files) == 0 {
		return []*upload.Candidate{transportCandidate(clientAddr, http.ErrMissingFile)}, func() {
			form.RemoveAll()
		}
	}

	var opened []multipart.File
	candidates := make([]*upload.Candidate, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			candidates = append(candidates, transportCandidate(clientAddr, err))
			continue
		}
		opened = append(opened, f)
		candidates = append(candidates, &upload.Candidate{
			File:         f,
			DeclaredSize: header.Size,
			Filename:     header.Filename,
			ClientAddr:   clientAddr,
		})
	}

	cleanup = func() {
		for _, f := range opened {
			f.Close()
		}
		if err := form.RemoveAll(); err != nil {
			h.log.Warnw("Failed to remove multipart temp files", "error", err)
		}
	}
	return candidates, cleanup
}

func transportCandidate(clientAddr string, err error) *upload.Candidate {
	return &upload.Candidate{
		ClientAddr:   clientAddr,
		Fault:        upload.ClassifyTransport(err),
		TransportErr: err,
	}
}

// reject answers a failed upload. Validation failures are the client's
// problem and logged quietly; internal failures are logged with full context.
func (h *Handler) reject(c echo.Context, candidate *upload.Candidate, err error) error {
	var uerr *upload.Error
	if !errors.As(err, &uerr) {
		uerr = &upload.Error{
			Kind:    upload.StorageFailure,
			Code:    upload.StatusUnknownError,
			Message: "Unknown upload error",
			Err:     err,
		}
	}

	h.metrics.Upload(uerr.Kind.String(), 0)

	fields := []any{
		"kind", uerr.Kind.String(),
		"code", uerr.Code,
		"client", candidate.ClientAddr,
		"filename", candidate.Filename,
		"error", uerr.Error(),
	}
	if uerr.Internal() {
		h.log.Errorw("Upload failed", fields...)
	} else {
		h.log.Debugw("Upload rejected", fields...)
	}

	return h.sendError(c, uerr.Code, uerr.PublicMessage(h.cfg.Debug), uerr.Journaled(), uerr.Error())
}

func (h *Handler) sendUploadResponse(c echo.Context, results []uploadResult) error {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, map[string]any{"files": results})
	}

	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.URL)
		b.WriteByte('\n')
	}
	return c.String(http.StatusOK, b.String())
}
