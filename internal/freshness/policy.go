package freshness

import (
	"errors"
	"fmt"
	"time"
)

// KeySeparator joins a resource name and its window timestamp in cache keys
const KeySeparator = "_"

const (
	DefaultSecondKeyLayout   = "2006-01-02 15:04:05"
	DefaultMinuteKeyLayout   = "2006-01-02 15:04"
	DefaultDayKeyLayout      = "2006-01-02"
	DefaultLabelLayout       = "Mon Jan 2 2006 3:04 PM"
	DefaultSecondLabelLayout = "Mon Jan 2 2006 3:04:05 PM"

	day = 24 * time.Hour

	wallClockLayout = "2006-01-02 15:04:05.999999999"
)

// Rule describes how instants are bucketed into alignment windows for a resource
type Rule struct {
	Window      time.Duration // window length, must divide a day
	Offset      time.Duration // shift applied to the instant before flooring
	KeyLayout   string        // time layout of the key suffix
	LabelLayout string        // time layout of the human-readable label
}

// Stamp is the result of resolving a resource at an instant
type Stamp struct {
	Key         string
	Label       string
	WindowStart time.Time
}

// Policy maps (resource, instant) to a cache key and display label.
// It holds no mutable state and performs no I/O.
type Policy struct {
	location *time.Location
}

// NewPolicy creates a policy that aligns windows to the wall clock of loc
func NewPolicy(loc *time.Location) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	return &Policy{location: loc}
}

// Location returns the reference time zone
func (p *Policy) Location() *time.Location {
	return p.location
}

// Resolve computes the cache key and label for resource at now
func (p *Policy) Resolve(resource string, rule Rule, now time.Time) (Stamp, error) {
	if resource == "" {
		return Stamp{}, errors.New("resource cannot be empty")
	}

	rule = rule.WithDefaults()
	if err := rule.Validate(); err != nil {
		return Stamp{}, fmt.Errorf("invalid rule for resource %s: %w", resource, err)
	}

	start, midnight := p.windowStart(rule, now)

	key := start.Format(rule.KeyLayout)
	label := start.Format(rule.LabelLayout)
	if repeatsEarlierWallTime(start, midnight) {
		zone, _ := start.Zone()
		key += " " + zone
		label += " " + zone
	}

	return Stamp{
		Key:         Prefix(resource) + key,
		Label:       label,
		WindowStart: start,
	}, nil
}

// windowStart floors the shifted instant to its window. Windows are counted
// in elapsed time from local midnight so that days with a DST transition
// still tile into distinct, ordered windows.
func (p *Policy) windowStart(rule Rule, now time.Time) (start, midnight time.Time) {
	local := now.In(p.location).Add(rule.Offset)
	year, month, dd := local.Date()
	midnight = time.Date(year, month, dd, 0, 0, 0, 0, p.location)

	if rule.Window >= day {
		return midnight, midnight
	}

	elapsed := local.Sub(midnight)
	return midnight.Add(elapsed - elapsed%rule.Window), midnight
}

// repeatsEarlierWallTime reports whether the wall clock reading of start was
// already shown earlier the same day, which happens once clocks are set back.
func repeatsEarlierWallTime(start, midnight time.Time) bool {
	_, startOffset := start.Zone()
	_, midnightOffset := midnight.Zone()
	shift := time.Duration(midnightOffset-startOffset) * time.Second
	if shift <= 0 {
		return false
	}
	earlier := start.Add(-shift)
	return earlier.Format(wallClockLayout) == start.Format(wallClockLayout)
}

// Prefix returns the key prefix shared by every window of resource
func Prefix(resource string) string {
	return resource + KeySeparator
}

// WithDefaults fills in layouts that were left empty. Windows that are not
// whole minutes get layouts with seconds.
func (r Rule) WithDefaults() Rule {
	subMinute := r.Window%time.Minute != 0
	if r.KeyLayout == "" {
		switch {
		case r.Window >= day:
			r.KeyLayout = DefaultDayKeyLayout
		case subMinute:
			r.KeyLayout = DefaultSecondKeyLayout
		default:
			r.KeyLayout = DefaultMinuteKeyLayout
		}
	}
	if r.LabelLayout == "" {
		if subMinute {
			r.LabelLayout = DefaultSecondLabelLayout
		} else {
			r.LabelLayout = DefaultLabelLayout
		}
	}
	return r
}

// Validate checks that the window tiles a day evenly and that the key layout
// is fine enough to tell consecutive windows apart
func (r Rule) Validate() error {
	if r.Window <= 0 {
		return errors.New("window must be positive")
	}
	if r.Window > day {
		return fmt.Errorf("window %s exceeds one day", r.Window)
	}
	if day%r.Window != 0 {
		return fmt.Errorf("window %s does not divide a day evenly", r.Window)
	}

	// A midnight start sits on every calendar boundary, so a layout that
	// renders it and the next window start identically is too coarse.
	layout := r.WithDefaults().KeyLayout
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if ref.Format(layout) == ref.Add(r.Window).Format(layout) {
		return fmt.Errorf("key layout %q cannot tell consecutive %s windows apart", layout, r.Window)
	}
	return nil
}

// ParseWindow accepts a named alignment or a Go duration string
func ParseWindow(s string) (time.Duration, error) {
	switch s {
	case "minute":
		return time.Minute, nil
	case "ten_minutes":
		return 10 * time.Minute, nil
	case "hour":
		return time.Hour, nil
	case "day":
		return day, nil
	case "":
		return 0, errors.New("alignment cannot be empty")
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid alignment %q: %w", s, err)
	}
	return d, nil
}
