package handler

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/marianozunino/ofu/internal/config"
	"github.com/marianozunino/ofu/internal/journal"
	"github.com/marianozunino/ofu/internal/metrics"
	"github.com/marianozunino/ofu/internal/retention"
	"github.com/marianozunino/ofu/internal/storage"
	"github.com/marianozunino/ofu/internal/upload"
)

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Config    *config.Config
	Policy    retention.Policy
	Validator *upload.Validator
	Store     *upload.Store
	Root      *storage.Root
	ErrorLog  *journal.Sink
	Metrics   *metrics.Metrics
	Logger    *zap.SugaredLogger
}

// Handler handles HTTP requests
type Handler struct {
	cfg       *config.Config
	policy    retention.Policy
	validator *upload.Validator
	store     *upload.Store
	root      *storage.Root
	errorLog  *journal.Sink
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewHandler creates a new handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:       d.Config,
		policy:    d.Policy,
		validator: d.Validator,
		store:     d.Store,
		root:      d.Root,
		errorLog:  d.ErrorLog,
		metrics:   d.Metrics,
		log:       d.Logger,
		now:       time.Now,
	}
}

// sendError answers with the plain-text error format and records the error
// in the error log when journal is set.
func (h *Handler) sendError(c echo.Context, code int, message string, journaled bool, detail string) error {
	if journaled {
		record := journal.Record(h.now(), c.RealIP(), code, detail)
		if err := h.errorLog.Append(record); err != nil {
			h.log.Warnw("Failed to write error log", "error", err)
		}
	}
	return c.String(code, fmt.Sprintf("Error %d: %s\n", code, message))
}
