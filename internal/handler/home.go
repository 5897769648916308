package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marianozunino/ofu/internal/utils"
)

// Sizes shown in the retention table of the index, in MiB.
var exampleSizes = []float64{0, 1, 16, 64, 128, 256, 384}

// HandleHome serves the plain-text index
func (h *Handler) HandleHome(c echo.Context) error {
	var b strings.Builder

	fmt.Fprintf(&b, "ofu - temporary file hosting\n\n")
	fmt.Fprintf(&b, "Upload:\n")
	fmt.Fprintf(&b, "    curl -F'files[]=@yourfile.png' %s\n", h.cfg.BaseURL)
	fmt.Fprintf(&b, "    curl -H 'Accept: application/json' -F'files[]=@yourfile.png' %s\n\n", h.cfg.BaseURL)

	fmt.Fprintf(&b, "Limits:\n")
	fmt.Fprintf(&b, "    max file size:   %s\n", utils.FormatFileSize(h.cfg.MaxSizeToBytes()))
	fmt.Fprintf(&b, "    files per request: %d\n\n", h.cfg.MaxFiles)

	fmt.Fprintf(&b, "Retention:\n")
	fmt.Fprintf(&b, "    max_age_days = %g + (%g - %g) * (1 - size / %g MiB)^%g\n\n",
		h.policy.MinAge, h.policy.MaxAge, h.policy.MinAge, h.policy.MaxSize, h.policy.DecayExponent)
	for _, size := range exampleSizes {
		fmt.Fprintf(&b, "    %6g MiB  %s\n", size, utils.FormatDays(h.policy.MaxAgeDays(size)))
	}
	fmt.Fprintf(&b, "    %6g MiB  %s\n\n", h.policy.MaxSize, utils.FormatDays(h.policy.MaxAgeDays(h.policy.MaxSize)))

	if len(h.cfg.BlockedTypes) > 0 {
		fmt.Fprintf(&b, "Blocked file types:\n    %s\n", strings.Join(h.cfg.BlockedTypes, "\n    "))
	}

	return c.String(http.StatusOK, b.String())
}
