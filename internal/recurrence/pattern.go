package recurrence

import (
	"errors"
	"fmt"
	"time"

	"carehub/internal/model"
)

var (
	// ErrInvalidPattern is returned for an unknown recurrence type.
	ErrInvalidPattern = errors.New("invalid recurrence pattern")
	// ErrInvalidWindow is returned when a query window ends before it starts.
	ErrInvalidWindow = errors.New("invalid date window")
)

// Pattern is the declarative repeat rule attached to a series template:
// how it steps and, optionally, when the series stops.
type Pattern struct {
	Type    model.RecurrenceType `json:"type"`
	EndDate *time.Time           `json:"endDate,omitempty"`
}

// Validate checks the pattern type is one of the supported steps.
func (p Pattern) Validate() error {
	switch p.Type {
	case model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceBiweekly, model.RecurrenceMonthly:
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPattern, p.Type)
	}
}

// PatternOf extracts the pattern stored on a template row. ok is false
// when the task carries no recurrence rule.
func PatternOf(t model.Task) (Pattern, bool) {
	if t.RecurrenceType == nil {
		return Pattern{}, false
	}
	return Pattern{Type: *t.RecurrenceType, EndDate: t.RecurrenceEndDate}, true
}

// DayOf truncates a timestamp to its calendar day at UTC midnight. All
// day-granularity comparisons in the engine go through this single
// reference calendar.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a timestamp as the day-granularity key shared with the
// store's uniqueness index.
func DayKey(t time.Time) string {
	return t.UTC().Format(model.DueDayLayout)
}
