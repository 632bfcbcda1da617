package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"carehub/internal/logger"
	"carehub/internal/model"
	"carehub/internal/recurrence"
)

const (
	digestLookbackDays = 7
	digestHorizonDays  = 7

	iconOverdue  = "⚠️"
	iconToday    = "⏳"
	iconUpcoming = "🟢"
	iconDone     = "✅"
)

// ReminderService builds the human-readable daily digest for a family:
// what slipped, what is due today, what is coming up. It reads through
// the merged occurrence view, so virtual occurrences of recurring care
// duties show up without ever being persisted.
type ReminderService struct {
	occurrences *OccurrenceService
	log         *logger.Logger
}

func NewReminderService(occurrences *OccurrenceService, baseLog *logger.Logger) *ReminderService {
	return &ReminderService{occurrences: occurrences, log: baseLog.With("service", "reminder")}
}

// DailyDigest renders the digest for one family as Telegram-flavored
// HTML. The second return value is false when there is nothing worth
// sending.
func (s *ReminderService) DailyDigest(ctx context.Context, family model.Family, now time.Time) (string, bool, error) {
	today := recurrence.DayOf(now)
	start := today.AddDate(0, 0, -digestLookbackDays)
	end := today.AddDate(0, 0, digestHorizonDays)

	occs, err := s.occurrences.ListOccurrences(ctx, family.ID, start, end, true)
	if err != nil {
		return "", false, fmt.Errorf("list occurrences for digest: %w", err)
	}

	var overdue, dueToday, upcoming []recurrence.Occurrence
	for _, occ := range occs {
		if occ.Status().Terminal() {
			continue
		}
		due := occ.DueDate()
		switch {
		case due == nil:
			continue
		case recurrence.DayOf(*due).Before(today):
			overdue = append(overdue, occ)
		case recurrence.DayOf(*due).Equal(today):
			dueToday = append(dueToday, occ)
		default:
			upcoming = append(upcoming, occ)
		}
	}

	if len(overdue) == 0 && len(dueToday) == 0 && len(upcoming) == 0 {
		return "", false, nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏠 <b>%s — care plan</b>\n", html.EscapeString(family.Name)))
	b.WriteString(fmt.Sprintf("🗓 %s\n", today.Format("Mon, 02 Jan 2006")))

	writeSection := func(title, icon string, items []recurrence.Occurrence) {
		if len(items) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
		for _, occ := range items {
			b.WriteString(formatDigestLine(icon, occ, today))
		}
	}
	writeSection("Overdue", iconOverdue, overdue)
	writeSection("Due today", iconToday, dueToday)
	writeSection("Coming up", iconUpcoming, upcoming)

	s.log.Debug("digest built",
		"family_id", family.ID,
		"overdue", len(overdue),
		"due_today", len(dueToday),
		"upcoming", len(upcoming),
	)
	return strings.TrimSpace(b.String()), true, nil
}

func formatDigestLine(icon string, occ recurrence.Occurrence, today time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(occ.Title()))))
	if occ.Priority() == model.PriorityHigh {
		sb.WriteString(" ‼️")
	}
	if due := occ.DueDate(); due != nil {
		day := recurrence.DayOf(*due)
		switch {
		case day.Before(today):
			days := int(today.Sub(day).Hours() / 24)
			sb.WriteString(fmt.Sprintf(" — was due %s (%d d ago)", day.Format("02 Jan"), days))
		case day.After(today):
			sb.WriteString(fmt.Sprintf(" — due %s", day.Format("02 Jan")))
		}
	}
	if occ.IsVirtual() {
		sb.WriteString(" ♻️")
	}
	sb.WriteByte('\n')
	return sb.String()
}
