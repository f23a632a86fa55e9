// Package timezone is the single source of truth for converting between the
// storage timezone (UTC) and the viewer's local timezone. Every date
// comparison and every date sent to the API passes through a Handler so that
// what the user sees and what is persisted stay consistent.
package timezone

import (
	"fmt"
	"time"
)

// InvalidDateError reports a value that cannot be serialized for the API,
// such as the zero time. Callers must not swallow it silently.
type InvalidDateError struct {
	Value any
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date for API serialization: %v", e.Value)
}

// Handler performs timezone-aware date arithmetic. The zone is resolved once
// at construction and stays constant for the handler's lifetime.
type Handler struct {
	loc *time.Location
}

func New(loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{loc: loc}
}

// NewLocal resolves the running client's local timezone.
func NewLocal() *Handler {
	return New(time.Local)
}

// NewZone resolves a named IANA zone, e.g. "America/New_York".
func NewZone(name string) (*Handler, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return New(loc), nil
}

// CurrentTimezone returns the handler's IANA zone name. Sent to the backend
// as request metadata on every API call.
func (h *Handler) CurrentTimezone() string {
	return h.loc.String()
}

// Location exposes the resolved zone for formatting helpers.
func (h *Handler) Location() *time.Location {
	return h.loc
}

// ToLocal converts a value to local time. A nil value yields "now" in local
// time. Accepts a native time.Time (or pointer) as well as a serialized
// RFC3339 timestamp.
func (h *Handler) ToLocal(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Now().In(h.loc), nil
	case time.Time:
		return t.In(h.loc), nil
	case *time.Time:
		if t == nil {
			return time.Now().In(h.loc), nil
		}
		return t.In(h.loc), nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", t, err)
		}
		return parsed.In(h.loc), nil
	default:
		return time.Time{}, &InvalidDateError{Value: v}
	}
}

// ToAPIString produces a zone-qualified RFC3339 serialization suitable for
// transmission. Fails with *InvalidDateError for an unrepresentable date.
func (h *Handler) ToAPIString(t time.Time) (string, error) {
	if t.IsZero() {
		return "", &InvalidDateError{Value: t}
	}
	return t.In(h.loc).Format(time.RFC3339), nil
}

// StartOfWeek returns local-timezone Sunday 00:00:00 of the week containing
// t. The week start is fixed at Sunday regardless of locale so the calendar
// layout stays deterministic.
func (h *Handler) StartOfWeek(t time.Time) time.Time {
	local := t.In(h.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.loc)
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// WeekDates returns the 7 consecutive days of the week containing t,
// starting on Sunday.
func (h *Handler) WeekDates(t time.Time) [7]time.Time {
	start := h.StartOfWeek(t)
	var days [7]time.Time
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// AddWeeks shifts t by whole weeks in local time. Negative values navigate
// backwards.
func (h *Handler) AddWeeks(t time.Time, weeks int) time.Time {
	return t.In(h.loc).AddDate(0, 0, 7*weeks)
}

// SameLocalDay reports timezone-aware equality at day granularity. Used for
// "is this cell today" highlighting and entry-to-day matching.
func (h *Handler) SameLocalDay(a, b time.Time) bool {
	la, lb := a.In(h.loc), b.In(h.loc)
	ay, am, ad := la.Date()
	by, bm, bd := lb.Date()
	return ay == by && am == bm && ad == bd
}

// FormatForDisplay renders t in local time. An empty layout falls back to a
// short readable default.
func (h *Handler) FormatForDisplay(t time.Time, layout string) string {
	if layout == "" {
		layout = "1/2/2006 3:04 PM"
	}
	return t.In(h.loc).Format(layout)
}
