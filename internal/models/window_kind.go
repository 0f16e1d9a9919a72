package models

import (
	"fmt"
	"time"
)

// WindowKind names a calendar accumulation window. Boundaries are computed in
// the location of the time value passed in.
type WindowKind string

const (
	WindowDaily   WindowKind = "daily"
	WindowMonthly WindowKind = "monthly"
)

// WindowKinds lists every kind in rollover order: daily closes before monthly.
var WindowKinds = []WindowKind{WindowDaily, WindowMonthly}

func NewWindowKindFromString(s string) (WindowKind, error) {
	switch WindowKind(s) {
	case WindowDaily, WindowMonthly:
		return WindowKind(s), nil
	default:
		return "", fmt.Errorf("invalid window kind %q", s)
	}
}

// Start returns the start of the window containing t.
func (w WindowKind) Start(t time.Time) time.Time {
	switch w {
	case WindowDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case WindowMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		panic(fmt.Sprintf("invalid WindowKind: %q", w))
	}
}

// Next returns the start of the window following the one containing start.
func (w WindowKind) Next(start time.Time) time.Time {
	s := w.Start(start)
	switch w {
	case WindowDaily:
		return s.AddDate(0, 0, 1)
	default:
		return s.AddDate(0, 1, 0)
	}
}

// Contains reports whether t falls in the window that starts at start.
func (w WindowKind) Contains(start, t time.Time) bool {
	t = t.In(start.Location())
	return !t.Before(start) && t.Before(w.Next(start))
}

func (w WindowKind) FormatWindowStart(t time.Time) string {
	switch w {
	case WindowDaily:
		return w.Start(t).Format("20060102")
	case WindowMonthly:
		return w.Start(t).Format("200601")
	default:
		panic(fmt.Sprintf("invalid WindowKind: %q", w))
	}
}

func (w WindowKind) BucketID(t time.Time) string {
	switch w {
	case WindowDaily:
		return fmt.Sprintf("day-%02d", t.Day())
	case WindowMonthly:
		return fmt.Sprintf("month-%02d", int(t.Month()))
	default:
		panic(fmt.Sprintf("invalid WindowKind: %q", w))
	}
}

// Title is the human label used in report captions.
func (w WindowKind) Title() string {
	switch w {
	case WindowDaily:
		return "Daily"
	case WindowMonthly:
		return "Monthly"
	default:
		return string(w)
	}
}
