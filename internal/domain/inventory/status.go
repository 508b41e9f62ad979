package inventory

import (
	"fmt"
	"time"

	"github.com/pharmstock/backend/internal/domain/shared"
)

// ExpiryStatus classifies how close a batch is to its expiry date.
type ExpiryStatus string

const (
	StatusExpired ExpiryStatus = "expired"
	StatusSoon    ExpiryStatus = "soon" // expires within 30 days
	StatusNear    ExpiryStatus = "near" // expires within 90 days
	StatusOK      ExpiryStatus = "ok"
)

// Classification windows, inclusive upper bounds in whole days.
const (
	SoonWindowDays = 30
	NearWindowDays = 90
)

// DateLayout is the calendar-date form used on every external surface:
// request bodies, responses, and the file store document.
const DateLayout = "2006-01-02"

// Label returns the human-readable label shown alongside the status key.
func (s ExpiryStatus) Label() string {
	switch s {
	case StatusSoon:
		return "≤30d"
	case StatusNear:
		return "≤90d"
	default:
		return string(s)
	}
}

// ClassifyExpiry derives the status of an expiry date relative to today.
// Both sides are truncated to midnight so only whole calendar days count:
// a batch expiring later today is "soon", not "expired".
func ClassifyExpiry(expiryDate, today time.Time) ExpiryStatus {
	days := DaysBetween(today, expiryDate)
	switch {
	case days < 0:
		return StatusExpired
	case days <= SoonWindowDays:
		return StatusSoon
	case days <= NearWindowDays:
		return StatusNear
	default:
		return StatusOK
	}
}

// TruncateToDay drops the time-of-day component, normalizing to midnight UTC.
func TruncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative if b
// precedes a), after truncating both to midnight.
func DaysBetween(a, b time.Time) int {
	return int(TruncateToDay(b).Sub(TruncateToDay(a)).Hours() / 24)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Invalid date %q: expected YYYY-MM-DD", value))
	}
	return t, nil
}

// StatusFilter narrows a listing to batches in one status. The zero value
// (or "all") disables filtering.
type StatusFilter string

const StatusFilterAll StatusFilter = "all"

// ParseStatusFilter validates a status filter value from a request.
func ParseStatusFilter(value string) (StatusFilter, error) {
	switch value {
	case "", string(StatusFilterAll):
		return StatusFilterAll, nil
	case string(StatusExpired), string(StatusSoon), string(StatusNear), string(StatusOK):
		return StatusFilter(value), nil
	default:
		return "", shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Invalid status filter %q: expected one of all, expired, soon, near, ok", value))
	}
}

// Includes reports whether a batch with the given status passes the filter.
func (f StatusFilter) Includes(status ExpiryStatus) bool {
	return f == "" || f == StatusFilterAll || string(f) == string(status)
}
