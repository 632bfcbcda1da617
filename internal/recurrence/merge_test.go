package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"carehub/internal/model"
)

func physicalTask(templateID *uuid.UUID, due *time.Time, status model.Status, priority model.Priority) model.Task {
	return model.Task{
		ID:               uuid.New(),
		FamilyID:         uuid.New(),
		Title:            "task",
		DueDate:          due,
		Status:           status,
		Priority:         priority,
		ParentTemplateID: templateID,
	}
}

func TestMergeDropsShadowedVirtuals(t *testing.T) {
	templateID := uuid.New()
	shadowDay := day(2024, 1, 8)
	// Materialized at 09:00; dedup must still match on the calendar day.
	materializedAt := shadowDay.Add(9 * time.Hour)
	physical := []model.Task{
		physicalTask(&templateID, &materializedAt, model.StatusPending, model.PriorityMedium),
	}
	tpl := model.Task{ID: templateID, Priority: model.PriorityMedium}
	virtual := map[uuid.UUID][]VirtualOccurrence{
		templateID: {
			Project(tpl, shadowDay),
			Project(tpl, day(2024, 1, 15)),
		},
	}

	merged := Merge(physical, virtual)
	if len(merged) != 2 {
		t.Fatalf("expected 2 occurrences after dedup, got %d", len(merged))
	}
	var physicalCount, virtualOn8 int
	for _, occ := range merged {
		if !occ.IsVirtual() {
			physicalCount++
			continue
		}
		if occ.Virtual.DueDate.Equal(shadowDay) {
			virtualOn8++
		}
	}
	if physicalCount != 1 {
		t.Fatalf("expected exactly one physical entry, got %d", physicalCount)
	}
	if virtualOn8 != 0 {
		t.Fatalf("expected no virtual entry on the materialized day, got %d", virtualOn8)
	}
}

func TestMergeExcludesTemplates(t *testing.T) {
	due := day(2024, 1, 1)
	recur := model.RecurrenceDaily
	template := model.Task{
		ID:             uuid.New(),
		Title:          "give medication",
		DueDate:        &due,
		IsTemplate:     true,
		RecurrenceType: &recur,
		Status:         model.StatusPending,
	}
	merged := Merge([]model.Task{template}, nil)
	if len(merged) != 0 {
		t.Fatalf("templates are not occurrences, got %d entries", len(merged))
	}
}

func TestMergeTotalOrder(t *testing.T) {
	d1 := day(2024, 1, 5)
	d2 := day(2024, 1, 10)
	physical := []model.Task{
		physicalTask(nil, nil, model.StatusPending, model.PriorityHigh),
		physicalTask(nil, &d2, model.StatusCompleted, model.PriorityHigh),
		physicalTask(nil, &d2, model.StatusPending, model.PriorityHigh),
		physicalTask(nil, &d1, model.StatusPending, model.PriorityLow),
		physicalTask(nil, &d1, model.StatusInProgress, model.PriorityHigh),
		physicalTask(nil, &d1, model.StatusPending, model.PriorityHigh),
	}

	merged := Merge(physical, nil)
	if len(merged) != 6 {
		t.Fatalf("expected 6 occurrences, got %d", len(merged))
	}

	// pending/high dated before pending/high undated, then pending/low,
	// then in_progress, then completed.
	wantStatuses := []model.Status{
		model.StatusPending, model.StatusPending, model.StatusPending, model.StatusPending,
		model.StatusInProgress, model.StatusCompleted,
	}
	for i, want := range wantStatuses {
		if merged[i].Status() != want {
			t.Fatalf("position %d: expected status %s, got %s", i, want, merged[i].Status())
		}
	}
	if merged[0].DueDate() == nil || !merged[0].DueDate().Equal(d1) {
		t.Fatalf("expected earliest dated pending/high first, got %v", merged[0].DueDate())
	}
	if merged[1].DueDate() == nil || !merged[1].DueDate().Equal(d2) {
		t.Fatalf("expected later dated pending/high second, got %v", merged[1].DueDate())
	}
	if merged[2].DueDate() != nil {
		t.Fatalf("expected undated pending/high after dated ones, got %v", merged[2].DueDate())
	}
	if merged[3].Priority() != model.PriorityLow {
		t.Fatalf("expected pending/low last among pending, got %s", merged[3].Priority())
	}
}

func TestMergeOrderingIsStableAcrossTemplates(t *testing.T) {
	// Two templates tie on every sort key: same day, same priority, both
	// virtual (pending). Their relative order must not drift between
	// calls with identical input.
	d := day(2024, 2, 1)
	tplA := model.Task{ID: uuid.New(), Title: "morning medication", Priority: model.PriorityMedium}
	tplB := model.Task{ID: uuid.New(), Title: "evening walk", Priority: model.PriorityMedium}
	virtual := map[uuid.UUID][]VirtualOccurrence{
		tplA.ID: {Project(tplA, d)},
		tplB.ID: {Project(tplB, d)},
	}

	first := Merge(nil, virtual)
	if len(first) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(first))
	}
	for run := 0; run < 20; run++ {
		again := Merge(nil, virtual)
		for i := range first {
			if first[i].ID() != again[i].ID() {
				t.Fatalf("run %d position %d: ordering drifted, %s vs %s", run, i, first[i].ID(), again[i].ID())
			}
		}
	}
}

func TestMergeOrderingIsStable(t *testing.T) {
	templateID := uuid.New()
	d := day(2024, 2, 1)
	var physical []model.Task
	for i := 0; i < 5; i++ {
		physical = append(physical, physicalTask(nil, &d, model.StatusPending, model.PriorityMedium))
	}
	tpl := model.Task{ID: templateID, Priority: model.PriorityMedium}
	virtual := map[uuid.UUID][]VirtualOccurrence{
		templateID: {Project(tpl, day(2024, 2, 2)), Project(tpl, day(2024, 2, 3))},
	}

	first := Merge(physical, virtual)
	second := Merge(physical, virtual)
	if len(first) != len(second) {
		t.Fatalf("expected identical lengths, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID() != second[i].ID() {
			t.Fatalf("position %d differs between runs: %s vs %s", i, first[i].ID(), second[i].ID())
		}
	}
}
