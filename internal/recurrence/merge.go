package recurrence

import (
	"sort"

	"github.com/google/uuid"

	"carehub/internal/model"
)

type templateDay struct {
	templateID uuid.UUID
	day        string
}

// Merge combines persisted rows with generated virtual occurrences into
// one ordered view of a window.
//
// A virtual occurrence is dropped when a physical row already exists for
// the same (template, calendar day) — day granularity, not exact
// timestamp. Template rows are never occurrences and are dropped
// entirely. The result is totally ordered by status rank, then priority
// rank, then due date ascending with absent due dates last; the sort is
// stable and templates are visited in id order, so a fixed input always
// produces the identical ordering regardless of map iteration.
func Merge(physical []model.Task, virtual map[uuid.UUID][]VirtualOccurrence) []Occurrence {
	shadowed := make(map[templateDay]bool)
	merged := make([]Occurrence, 0, len(physical))

	for i := range physical {
		row := physical[i]
		if row.IsTemplate {
			continue
		}
		if row.ParentTemplateID != nil && row.DueDate != nil {
			shadowed[templateDay{*row.ParentTemplateID, DayKey(*row.DueDate)}] = true
		}
		merged = append(merged, Occurrence{Physical: &physical[i]})
	}

	templateIDs := make([]uuid.UUID, 0, len(virtual))
	for templateID := range virtual {
		templateIDs = append(templateIDs, templateID)
	}
	sort.Slice(templateIDs, func(i, j int) bool {
		return templateIDs[i].String() < templateIDs[j].String()
	})
	for _, templateID := range templateIDs {
		occs := virtual[templateID]
		for i := range occs {
			if shadowed[templateDay{templateID, DayKey(occs[i].DueDate)}] {
				continue
			}
			merged = append(merged, Occurrence{Virtual: &occs[i]})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if a, b := merged[i].Status().Rank(), merged[j].Status().Rank(); a != b {
			return a < b
		}
		if a, b := merged[i].Priority().Rank(), merged[j].Priority().Rank(); a != b {
			return a < b
		}
		di, dj := merged[i].DueDate(), merged[j].DueDate()
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	return merged
}
