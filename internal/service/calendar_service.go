package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"carehub/internal/logger"
	"carehub/internal/recurrence"
)

// CalendarService publishes a family's merged occurrence window as an
// iCalendar feed, so phones and shared calendars can subscribe to the
// care plan. Occurrences are all-day events; virtual ones keep their
// synthetic id as the UID, so the feed stays stable across refreshes
// without persisting anything.
type CalendarService struct {
	occurrences *OccurrenceService
	log         *logger.Logger
}

func NewCalendarService(occurrences *OccurrenceService, baseLog *logger.Logger) *CalendarService {
	return &CalendarService{occurrences: occurrences, log: baseLog.With("service", "calendar")}
}

// BuildFeed serializes the family's occurrences inside [start, end] as
// an iCalendar document.
func (s *CalendarService) BuildFeed(ctx context.Context, familyID uuid.UUID, start, end time.Time) (string, error) {
	occs, err := s.occurrences.ListOccurrences(ctx, familyID, start, end, true)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//carehub//care plan//EN")

	now := time.Now().UTC()
	for _, occ := range occs {
		due := occ.DueDate()
		if due == nil {
			continue
		}
		day := recurrence.DayOf(*due)

		event := cal.AddEvent(fmt.Sprintf("%s@carehub", occ.ID()))
		event.SetDtStampTime(now)
		event.SetStartAt(day)
		event.SetEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(occ.Title())
		if !occ.IsVirtual() && occ.Physical.Description != "" {
			event.SetDescription(occ.Physical.Description)
		}
		if occ.Status().Terminal() {
			event.SetStatus(ics.ObjectStatusCancelled)
		} else {
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	s.log.Debug("calendar feed built", "family_id", familyID, "events", len(occs))
	return cal.Serialize(), nil
}
