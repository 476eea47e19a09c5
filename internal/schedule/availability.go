package schedule

import (
	"iter"
	"slices"
	"time"

	"github.com/dkaragan/tempo/internal/store"
)

// Interval is a half-open [Start, End) span of calendar time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval's length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// MinuteSpan is a recurring daily interval in minutes from midnight,
// half-open [Start, End), contained within [0, 1440).
type MinuteSpan struct {
	Start int
	End   int
}

// Availability is the working-time model: which weekdays are workable,
// the daily working window, and recurring exclusion windows (breaks)
// that are never schedulable.
type Availability struct {
	WorkDays   map[time.Weekday]bool
	WorkStart  int // minutes from midnight
	WorkEnd    int // minutes from midnight, > WorkStart
	Exclusions []MinuteSpan
}

// DefaultAvailability returns the Mon–Fri 09:00–18:00 window with the
// 12:30–14:00 and 17:30–19:00 exclusion windows.
func DefaultAvailability() Availability {
	return Availability{
		WorkDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		WorkStart: 9 * 60,
		WorkEnd:   18 * 60,
		Exclusions: []MinuteSpan{
			{Start: 12*60 + 30, End: 14 * 60},
			{Start: 17*60 + 30, End: 19 * 60},
		},
	}
}

// IsAllowed reports whether [start, end) lies entirely inside the
// working window of a single work day: the weekday is workable, both
// endpoints fall within [WorkStart, WorkEnd], no exclusion window is
// touched, and the interval does not cross a day boundary.
func (a Availability) IsAllowed(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	if !a.WorkDays[start.Weekday()] {
		return false
	}

	startMin := minuteOfDay(start)
	endMin := minuteOfDay(end)
	if endMin == 0 && sameDay(start, end.Add(-time.Minute)) {
		endMin = 24 * 60 // block ends exactly at midnight
	} else if !sameDay(start, end) {
		return false // never split a block across two calendar days
	}

	if startMin < a.WorkStart || endMin > a.WorkEnd {
		return false
	}
	for _, ex := range a.mergedExclusions() {
		if startMin < ex.End && ex.Start < endMin {
			return false
		}
	}
	return true
}

// FreeSlotsForDay yields the day's free intervals in ascending order:
// the working window minus exclusions, minus any part occupied by the
// given blocks. The sequence is restartable; a non-work day yields
// nothing. Cancelled blocks do not occupy time.
func (a Availability) FreeSlotsForDay(date time.Time, blocks []store.TimeBlock) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if !a.WorkDays[date.Weekday()] {
			return
		}

		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		windows := []Interval{{
			Start: day.Add(time.Duration(a.WorkStart) * time.Minute),
			End:   day.Add(time.Duration(a.WorkEnd) * time.Minute),
		}}

		for _, ex := range a.mergedExclusions() {
			windows = subtract(windows, Interval{
				Start: day.Add(time.Duration(ex.Start) * time.Minute),
				End:   day.Add(time.Duration(ex.End) * time.Minute),
			})
		}

		busy := make([]Interval, 0, len(blocks))
		for _, b := range blocks {
			if b.Status == store.BlockCancelled {
				continue
			}
			busy = append(busy, Interval{Start: b.Start, End: b.End})
		}
		slices.SortFunc(busy, func(x, y Interval) int {
			return x.Start.Compare(y.Start)
		})
		for _, iv := range busy {
			windows = subtract(windows, iv)
		}

		for _, w := range windows {
			if w.End.After(w.Start) {
				if !yield(w) {
					return
				}
			}
		}
	}
}

// mergedExclusions returns the exclusion windows sorted and with
// adjacent or overlapping spans merged. The configuration invariant says
// they never overlap, but subtraction assumes disjoint spans, so merge
// defensively anyway.
func (a Availability) mergedExclusions() []MinuteSpan {
	if len(a.Exclusions) == 0 {
		return nil
	}
	spans := slices.Clone(a.Exclusions)
	slices.SortFunc(spans, func(x, y MinuteSpan) int { return x.Start - y.Start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// subtract removes iv from each interval in windows, keeping order.
func subtract(windows []Interval, iv Interval) []Interval {
	var out []Interval
	for _, w := range windows {
		if !iv.End.After(w.Start) || !w.End.After(iv.Start) {
			out = append(out, w) // no overlap
			continue
		}
		if iv.Start.After(w.Start) {
			out = append(out, Interval{Start: w.Start, End: iv.Start})
		}
		if w.End.After(iv.End) {
			out = append(out, Interval{Start: iv.End, End: w.End})
		}
	}
	return out
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
