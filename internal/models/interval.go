package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidClock reports a wall-clock value that is not HH:MM or HH:MM:SS.
	ErrInvalidClock = errors.New("invalid clock value")
	// ErrInvalidTimeRange reports a range string that is not "HH:MM-HH:MM".
	ErrInvalidTimeRange = errors.New("invalid time range")
)

const clockLayout = "15:04:05"

// TimeInterval is the half-open range [Start, End) on one weekday. Start and End
// hold fixed-width HH:MM:SS strings so lexical order equals time order.
type TimeInterval struct {
	Weekday Weekday `json:"weekday"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
}

// NewTimeInterval normalises both clocks. It does not check that end is after start.
func NewTimeInterval(day Weekday, start, end string) (TimeInterval, error) {
	s, err := NormalizeClock(start)
	if err != nil {
		return TimeInterval{}, err
	}
	e, err := NormalizeClock(end)
	if err != nil {
		return TimeInterval{}, err
	}
	return TimeInterval{Weekday: day, Start: s, End: e}, nil
}

// Overlaps uses the half-open test, so back-to-back sessions do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Weekday == other.Weekday && i.Start < other.End && other.Start < i.End
}

// Empty reports a zero-length or inverted interval.
func (i TimeInterval) Empty() bool {
	return i.End <= i.Start
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("%s %s-%s", i.Weekday, i.Start, i.End)
}

// NormalizeClock accepts H:MM, HH:MM or HH:MM:SS and returns HH:MM:SS.
func NormalizeClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", clockLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(clockLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidClock, raw)
}

// ParseTimeRange splits an extractor range such as "07:00-09:00" into
// normalised start and end clocks.
func ParseTimeRange(raw string) (string, string, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, raw)
	}
	start, err := NormalizeClock(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, raw)
	}
	end, err := NormalizeClock(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, raw)
	}
	if end <= start {
		return "", "", fmt.Errorf("%w: %q ends before it starts", ErrInvalidTimeRange, raw)
	}
	return start, end, nil
}

// Clock is a normalised HH:MM:SS value stored in a TIME column. lib/pq decodes
// TIME as a time.Time on year 0, so Scan accepts that as well as text.
type Clock string

// Scan implements sql.Scanner.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = ""
		return nil
	case time.Time:
		*c = Clock(v.Format(clockLayout))
		return nil
	case []byte:
		return c.scanText(string(v))
	case string:
		return c.scanText(v)
	default:
		return fmt.Errorf("scan clock: unsupported type %T", src)
	}
}

func (c *Clock) scanText(raw string) error {
	if dot := strings.IndexByte(raw, '.'); dot >= 0 {
		raw = raw[:dot]
	}
	normalized, err := NormalizeClock(raw)
	if err != nil {
		return fmt.Errorf("scan clock: %w", err)
	}
	*c = Clock(normalized)
	return nil
}

// Value implements driver.Valuer.
func (c Clock) Value() (driver.Value, error) {
	return string(c), nil
}

// Short trims the seconds for display.
func (c Clock) Short() string {
	if len(c) == len(clockLayout) {
		return string(c[:5])
	}
	return string(c)
}
