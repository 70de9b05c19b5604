package aggregation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	coreerrors "github.com/aevon-lab/salespulse/internal/core/errors"
)

// dateLayout is the calendar-date form the dashboard sends (midnight UTC).
const dateLayout = "2006-01-02"

// DefaultRevenueStart is the lower bound the revenue query applies when startDate is omitted.
var DefaultRevenueStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Window is a date interval, inclusive on both bounds.
// A zero End means the window is open-ended; only the live window uses that.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	return w.End.IsZero() || !t.After(w.End)
}

// OpenEnded reports whether the window has no upper bound.
func (w Window) OpenEnded() bool {
	return w.End.IsZero()
}

// MarshalJSON renders an open end as null.
func (w Window) MarshalJSON() ([]byte, error) {
	out := struct {
		StartDate time.Time  `json:"startDate"`
		EndDate   *time.Time `json:"endDate"`
	}{StartDate: w.Start}
	if !w.End.IsZero() {
		end := w.End
		out.EndDate = &end
	}
	return json.Marshal(out)
}

// ParseWindow parses a window where both bounds are required.
// Missing or malformed bounds fail with ErrInvalidWindow.
func ParseWindow(startRaw, endRaw string) (Window, error) {
	if strings.TrimSpace(startRaw) == "" {
		return Window{}, fmt.Errorf("%w: startDate is required", coreerrors.ErrInvalidWindow)
	}
	if strings.TrimSpace(endRaw) == "" {
		return Window{}, fmt.Errorf("%w: endDate is required", coreerrors.ErrInvalidWindow)
	}
	return parseBounds(startRaw, endRaw)
}

// ParseWindowWithDefaults parses a window where each missing bound is defaulted:
// start to DefaultRevenueStart, end to now. Malformed bounds still fail.
func ParseWindowWithDefaults(startRaw, endRaw string, now time.Time) (Window, error) {
	if strings.TrimSpace(startRaw) == "" {
		startRaw = DefaultRevenueStart.Format(time.RFC3339Nano)
	}
	if strings.TrimSpace(endRaw) == "" {
		endRaw = now.UTC().Format(time.RFC3339Nano)
	}
	return parseBounds(startRaw, endRaw)
}

// ParseOpenWindow parses a window whose start is required and whose end may
// be omitted, leaving it open-ended.
func ParseOpenWindow(startRaw, endRaw string) (Window, error) {
	if strings.TrimSpace(startRaw) == "" {
		return Window{}, fmt.Errorf("%w: startDate is required", coreerrors.ErrInvalidWindow)
	}
	if strings.TrimSpace(endRaw) != "" {
		return parseBounds(startRaw, endRaw)
	}
	start, err := ParseBound(startRaw)
	if err != nil {
		return Window{}, fmt.Errorf("%w: startDate: %v", coreerrors.ErrInvalidWindow, err)
	}
	return Window{Start: start}, nil
}

func parseBounds(startRaw, endRaw string) (Window, error) {
	start, err := ParseBound(startRaw)
	if err != nil {
		return Window{}, fmt.Errorf("%w: startDate: %v", coreerrors.ErrInvalidWindow, err)
	}
	end, err := ParseBound(endRaw)
	if err != nil {
		return Window{}, fmt.Errorf("%w: endDate: %v", coreerrors.ErrInvalidWindow, err)
	}
	if start.After(end) {
		return Window{}, fmt.Errorf("%w: startDate %s is after endDate %s",
			coreerrors.ErrInvalidWindow, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

// ParseBound accepts RFC3339 timestamps and plain calendar dates (midnight UTC).
func ParseBound(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q (use YYYY-MM-DD or RFC3339)", raw)
	}
	return t, nil
}
