package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"carehub/internal/model"
)

// Generate expands a pattern anchored at anchor into every calendar day
// that falls inside [windowStart, windowEnd], both ends inclusive, and
// on or before the pattern's end date. Days are UTC midnights in
// ascending order.
//
// The function is pure: no I/O, identical inputs always produce the
// identical slice. An anchor past the window end yields an empty result,
// not an error; callers decide whether that is meaningful.
func Generate(p Pattern, anchor, windowStart, windowEnd time.Time) ([]time.Time, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	anchorDay := DayOf(anchor)
	start := DayOf(windowStart)
	end := DayOf(windowEnd)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, DayKey(end), DayKey(start))
	}
	if p.EndDate != nil {
		if patternEnd := DayOf(*p.EndDate); patternEnd.Before(end) {
			end = patternEnd
		}
	}
	if anchorDay.After(end) {
		return nil, nil
	}
	if start.Before(anchorDay) {
		start = anchorDay
	}

	if p.Type == model.RecurrenceMonthly {
		return generateMonthly(anchorDay, start, end), nil
	}

	var freq rrule.Frequency
	interval := 1
	switch p.Type {
	case model.RecurrenceDaily:
		freq = rrule.DAILY
	case model.RecurrenceWeekly:
		freq = rrule.WEEKLY
	case model.RecurrenceBiweekly:
		freq = rrule.WEEKLY
		interval = 2
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  anchorDay,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	times := rule.Between(start, end, true)
	dates := make([]time.Time, 0, len(times))
	for _, t := range times {
		dates = append(dates, DayOf(t))
	}
	return dates, nil
}

// generateMonthly steps one calendar month at a time, preserving the
// anchor's day-of-month. When the target month is shorter, the date is
// clamped to the month's last day rather than skipped — this diverges
// from RFC 5545 (which rrule follows), so monthly stepping does not go
// through rrule.
func generateMonthly(anchor, start, end time.Time) []time.Time {
	var dates []time.Time
	wantDay := anchor.Day()
	for i := 0; ; i++ {
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		day := wantDay
		if last := daysInMonth(first.Month(), first.Year()); day > last {
			day = last
		}
		d := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
		if d.After(end) {
			return dates
		}
		if !d.Before(start) {
			dates = append(dates, d)
		}
	}
}

// daysInMonth moves to the next month and rolls back a day.
func daysInMonth(month time.Month, year int) int {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
