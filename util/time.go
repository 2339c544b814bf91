// Package util provides a collection of domain-agnostic utility functions and cross-platform helpers.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTime renders a media timestamp in seconds as a compact clock string.
// Durations under one hour render as MM:SS, longer ones as H:MM:SS.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatTimePrecise renders a media timestamp with millisecond resolution, as HH:MM:SS.mmm.
func FormatTimePrecise(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	total := int(seconds)
	millis := int(math.Round((seconds - float64(total)) * 1000))
	if millis >= 1000 {
		total++
		millis -= 1000
	}

	return fmt.Sprintf("%02d:%02d:%02d.%03d", total/3600, (total%3600)/60, total%60, millis)
}

// ParseTime converts a clock string into a media timestamp in seconds.
// Accepted shapes: SS, SS.ss, MM:SS, HH:MM:SS and HH:MM:SS.ss.
func ParseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time string")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("malformed time string: %q", s)
	}

	var seconds float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("malformed time string: %q", s)
		}
		seconds = seconds*60 + v
	}

	return seconds, nil
}
