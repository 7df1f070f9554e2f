package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseTimeFlexible accepts RFC3339, epoch milliseconds or any layout
// dateparse recognises. Results are in UTC.
func ParseTimeFlexible(timeStr string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.Parse(time.RFC3339Nano, timeStr); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(timeStr, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := dateparse.ParseIn(timeStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}
	return t.UTC(), nil
}
