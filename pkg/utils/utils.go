package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber formats a number with comma separators for readability
func FormatNumber(n uint64) string {
	return humanize.Comma(int64(n))
}

// FormatBytes formats a byte count with binary units, e.g. "1.5 MiB".
func FormatBytes(n uint64) string {
	return humanize.IBytes(n)
}

// FormatLoss prints a loss value, keeping NaN and infinities readable.
func FormatLoss(loss float64) string {
	switch {
	case math.IsNaN(loss):
		return "NaN"
	case math.IsInf(loss, 1):
		return "+Inf"
	case math.IsInf(loss, -1):
		return "-Inf"
	default:
		return fmt.Sprintf("%.4f", loss)
	}
}

// FormatLatency prints d in whole milliseconds.
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%.0f ms", float64(d)/float64(time.Millisecond))
}

// FormatAge describes how long ago t was relative to now, e.g. "3 seconds ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
