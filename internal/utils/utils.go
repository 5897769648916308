package utils

import (
	"fmt"
	"strconv"
)

// FormatFileSize converts bytes to human-readable binary units
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// FormatDays renders a number of days with at most one decimal.
func FormatDays(days float64) string {
	s := strconv.FormatFloat(days, 'f', 1, 64)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		s = s[:len(s)-2]
	}
	if s == "1" {
		return s + " day"
	}
	return s + " days"
}
