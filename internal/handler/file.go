package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/marianozunino/ofu/internal/storage"
)

// Sniffed types that would run script in the browser are served as text.
var scriptableTypes = []string{
	"text/html",
	"image/svg+xml",
	"text/xml",
	"application/xml",
	"application/xhtml+xml",
	"text/javascript",
	"application/javascript",
}

// HandleFile serves a stored file by name
func (h *Handler) HandleFile(c echo.Context) error {
	name := c.Param("name")

	file, err := h.root.Open(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return c.String(http.StatusNotFound, "File not found")
		}
		h.log.Errorw("Failed to open stored file", "name", name, "error", err)
		return c.String(http.StatusInternalServerError, "Failed to open file")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to stat file")
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to read file")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return c.String(http.StatusInternalServerError, "Failed to read file")
	}

	contentType := servedContentType(mtype)
	disposition := "attachment"
	if shouldDisplayInline(contentType) {
		disposition = "inline"
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, contentType)
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, name))
	header.Set("X-Expires", fmt.Sprintf("%d", h.policy.ExpiresAt(info.Size(), info.ModTime()).UnixMilli()))
	header.Set("Cache-Control", "public, max-age=3600, must-revalidate")

	http.ServeContent(c.Response(), c.Request(), name, info.ModTime(), file)
	return nil
}

func servedContentType(mtype *mimetype.MIME) string {
	for _, t := range scriptableTypes {
		if mtype.Is(t) {
			return "text/plain; charset=utf-8"
		}
	}
	return mtype.String()
}

// shouldDisplayInline reports whether browsers can render the type
func shouldDisplayInline(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") ||
		strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "image/") ||
		contentType == "application/pdf" ||
		strings.HasPrefix(contentType, "text/")
}
