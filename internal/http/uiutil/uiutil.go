package uiutil

import (
	"strconv"
	"strings"
	"time"
)

const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// FormatFriendlyDateTime returns a consistent, user-friendly local timestamp representation.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// TruncateWithEllipsis shortens text to the provided rune limit and appends an ellipsis when truncated.
func TruncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// FormatBytes renders a byte count with a binary unit, one decimal above KiB.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 3; v /= unit {
		div *= unit
		exp++
	}
	value := strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64)
	return strings.TrimSuffix(value, ".0") + " " + []string{"KB", "MB", "GB", "TB"}[exp]
}
