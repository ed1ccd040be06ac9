// Package validate holds the field checks shared by task and plan inputs.
// Each check records failures on an apperr.Fields collector and returns the
// normalized value, so one pass reports every bad field.
package validate

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
)

const (
	MaxTitle = 200
	MaxText  = 2000
)

// Title trims raw and requires 1..MaxTitle runes.
func Title(f *apperr.Fields, path, raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		f.Add(path, "is required")
	case utf8.RuneCountInString(s) > MaxTitle:
		f.Add(path, "must be at most 200 characters")
	}
	return s
}

// OptionalTitle is Title for fields that may be omitted. An empty result
// means "not given".
func OptionalTitle(f *apperr.Fields, path string, raw *string) string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return ""
	}
	return Title(f, path, *raw)
}

// Text trims an optional free-text field. Blank input becomes nil.
func Text(f *apperr.Fields, path string, raw *string) *string {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	if utf8.RuneCountInString(s) > MaxText {
		f.Add(path, "must be at most 2000 characters")
	}
	return &s
}

// Timestamp parses an RFC 3339 value into UTC.
func Timestamp(f *apperr.Fields, path, raw string) (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		f.Add(path, "must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// RequiredTimestamp is Timestamp for fields that must be present.
func RequiredTimestamp(f *apperr.Fields, path, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		f.Add(path, "is required")
		return time.Time{}, false
	}
	return Timestamp(f, path, raw)
}

// OptionalTimestamp parses raw when non-blank; blank yields nil.
func OptionalTimestamp(f *apperr.Fields, path, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	ts, ok := Timestamp(f, path, raw)
	if !ok {
		return nil
	}
	return &ts
}

// Ordered requires end to be strictly after start when both are set.
func Ordered(f *apperr.Fields, endPath, startName string, start, end *time.Time) {
	if start == nil || end == nil {
		return
	}
	if !end.After(*start) {
		f.Add(endPath, "must be after "+startName)
	}
}

// NonNegative requires n >= 0.
func NonNegative(f *apperr.Fields, path string, n int) {
	if n < 0 {
		f.Add(path, "must be zero or greater")
	}
}
