package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"resops/internal/model"
	"resops/internal/repository"
	"resops/internal/schedule"
)

func newTestTimelineService(projects *fakeProjectStore, moderators *fakeModeratorStore) *TimelineService {
	log := zap.NewNop()
	availability := NewAvailabilityService(projects, moderators, log)
	return NewTimelineService(projects, availability, nil, log)
}

func TestApplyEditUpdatesProject(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	svc := newTestTimelineService(store, newFakeModeratorStore())

	outcome, err := svc.ApplyEdit(context.Background(), 1, 2, schedule.FieldEnd, mustDate(t, "2024-02-07"))
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}

	fielding, ok := outcome.Timeline.Segment(schedule.PhaseFielding)
	if !ok || !fielding.End.Equal(mustDate(t, "2024-02-07")) {
		t.Fatalf("fielding end = %v, want 2024-02-07", fielding.End)
	}
	// 2024-02-07 is a Wednesday; the follower moves to the next workday.
	postField, ok := outcome.Timeline.Segment(schedule.PhasePostField)
	if !ok || !postField.Start.Equal(mustDate(t, "2024-02-08")) {
		t.Fatalf("post_field start = %v, want 2024-02-08", postField.Start)
	}
	if outcome.Version != 2 {
		t.Fatalf("outcome version = %d, want 2", outcome.Version)
	}

	stored, _ := store.GetByID(context.Background(), 1)
	if !stored.Timeline.Equal(outcome.Timeline) {
		t.Fatal("stored timeline does not match outcome")
	}
	if len(store.routingKeys) != 1 || store.routingKeys[0] != "timeline.updated" {
		t.Fatalf("routing keys = %v, want [timeline.updated]", store.routingKeys)
	}
}

func TestApplyEditRetriesOnVersionConflict(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	store.failConflicts = 2
	svc := newTestTimelineService(store, newFakeModeratorStore())

	outcome, err := svc.ApplyEdit(context.Background(), 1, 2, schedule.FieldEnd, mustDate(t, "2024-02-07"))
	if err != nil {
		t.Fatalf("ApplyEdit after conflicts: %v", err)
	}
	if outcome.Version != 2 {
		t.Fatalf("outcome version = %d, want 2", outcome.Version)
	}
	if store.updateCalls != 3 {
		t.Fatalf("update calls = %d, want 3", store.updateCalls)
	}
}

func TestApplyEditGivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	store.failConflicts = maxEditRetries
	svc := newTestTimelineService(store, newFakeModeratorStore())

	_, err := svc.ApplyEdit(context.Background(), 1, 2, schedule.FieldEnd, mustDate(t, "2024-02-07"))
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestApplyEditRejectedLeavesProjectUntouched(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	svc := newTestTimelineService(store, newFakeModeratorStore())

	// Fielding end before its own start inverts the range.
	_, err := svc.ApplyEdit(context.Background(), 1, 2, schedule.FieldEnd, mustDate(t, "2024-01-10"))
	var verr *schedule.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if store.updateCalls != 0 {
		t.Fatalf("update calls = %d, want 0", store.updateCalls)
	}
	stored, _ := store.GetByID(context.Background(), 1)
	if !stored.Timeline.Equal(testTimeline(t)) {
		t.Fatal("stored timeline changed after rejected edit")
	}
}

func TestApplyEditUnknownProject(t *testing.T) {
	t.Parallel()

	svc := newTestTimelineService(newFakeProjectStore(), newFakeModeratorStore())
	_, err := svc.ApplyEdit(context.Background(), 99, 2, schedule.FieldEnd, mustDate(t, "2024-02-07"))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyEditFieldingPrecheckWarns(t *testing.T) {
	t.Parallel()

	p := testProject(t, 1)
	moderatorID := 7
	p.ModeratorID = &moderatorID
	store := newFakeProjectStore(p)

	moderators := newFakeModeratorStore(&model.Moderator{ID: 7, Name: "Dana", Active: true})
	moderators.entries[7] = []*model.ScheduleEntry{{
		ID:          1,
		ModeratorID: 7,
		Start:       mustDate(t, "2024-01-25"),
		End:         mustDate(t, "2024-01-26"),
		Kind:        schedule.BookingUnavailable,
		Label:       "PTO",
	}}
	svc := newTestTimelineService(store, moderators)

	outcome, err := svc.ApplyEdit(context.Background(), 1, 2, schedule.FieldEnd, mustDate(t, "2024-02-07"))
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	// Conflicts warn, they never block the edit.
	if len(outcome.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(outcome.Conflicts))
	}
	if store.updateCalls != 1 {
		t.Fatalf("update calls = %d, want 1", store.updateCalls)
	}
}

func TestApplyEditNonFieldingSkipsPrecheck(t *testing.T) {
	t.Parallel()

	p := testProject(t, 1)
	moderatorID := 7
	p.ModeratorID = &moderatorID
	store := newFakeProjectStore(p)

	moderators := newFakeModeratorStore(&model.Moderator{ID: 7, Name: "Dana", Active: true})
	moderators.entries[7] = []*model.ScheduleEntry{{
		ID:          1,
		ModeratorID: 7,
		Start:       mustDate(t, "2024-01-25"),
		End:         mustDate(t, "2024-01-26"),
		Kind:        schedule.BookingUnavailable,
	}}
	svc := newTestTimelineService(store, moderators)

	// Editing pre_field does not touch the fielding window.
	outcome, err := svc.ApplyEdit(context.Background(), 1, 1, schedule.FieldEnd, mustDate(t, "2024-01-18"))
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if len(outcome.Conflicts) != 0 {
		t.Fatalf("conflicts = %d, want 0", len(outcome.Conflicts))
	}
}

func TestDeadlinesMergesDerivedAndManual(t *testing.T) {
	t.Parallel()

	p := testProject(t, 1)
	p.Deadlines = []schedule.KeyDeadline{{Label: "Stimuli Due", Date: mustDate(t, "2024-01-15")}}
	store := newFakeProjectStore(p)
	svc := newTestTimelineService(store, newFakeModeratorStore())

	deadlines, err := svc.Deadlines(context.Background(), 1)
	if err != nil {
		t.Fatalf("Deadlines: %v", err)
	}
	// Three derived milestones plus the manual entry.
	if len(deadlines) != 4 {
		t.Fatalf("deadline count = %d, want 4", len(deadlines))
	}
	if deadlines[len(deadlines)-1].Label != "Stimuli Due" {
		t.Fatalf("last deadline = %q, want manual entry", deadlines[len(deadlines)-1].Label)
	}
}

func TestAddAndRemoveDeadline(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	svc := newTestTimelineService(store, newFakeModeratorStore())

	kd := schedule.KeyDeadline{Label: "Screener Approved", Date: mustDate(t, "2024-01-10")}
	if err := svc.AddDeadline(context.Background(), 1, kd); err != nil {
		t.Fatalf("AddDeadline: %v", err)
	}
	stored, _ := store.GetByID(context.Background(), 1)
	if len(stored.Deadlines) != 1 {
		t.Fatalf("stored deadlines = %d, want 1", len(stored.Deadlines))
	}

	if err := svc.RemoveDeadline(context.Background(), 1, "Screener Approved"); err != nil {
		t.Fatalf("RemoveDeadline: %v", err)
	}
	stored, _ = store.GetByID(context.Background(), 1)
	if len(stored.Deadlines) != 0 {
		t.Fatalf("stored deadlines = %d, want 0", len(stored.Deadlines))
	}

	err := svc.RemoveDeadline(context.Background(), 1, "Screener Approved")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("removing missing deadline: err = %v, want ErrNotFound", err)
	}
}

func TestAssignModeratorReportsConflictsButAssigns(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	moderators := newFakeModeratorStore(&model.Moderator{ID: 7, Name: "Dana", Active: true})
	moderators.entries[7] = []*model.ScheduleEntry{{
		ID:          1,
		ModeratorID: 7,
		Start:       mustDate(t, "2024-02-02"),
		End:         mustDate(t, "2024-02-02"),
		Kind:        schedule.BookingConfirmed,
		Label:       "Other project handoff",
	}}
	svc := newTestTimelineService(store, moderators)

	outcome, err := svc.AssignModerator(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("AssignModerator: %v", err)
	}
	// Same-day handoff counts as a conflict, but the assignment still lands.
	if len(outcome.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(outcome.Conflicts))
	}
	stored, _ := store.GetByID(context.Background(), 1)
	if stored.ModeratorID == nil || *stored.ModeratorID != 7 {
		t.Fatal("moderator not assigned")
	}
}

func TestSeedTimeline(t *testing.T) {
	t.Parallel()

	p := testProject(t, 1)
	p.Timeline = nil
	store := newFakeProjectStore(p)
	svc := newTestTimelineService(store, newFakeModeratorStore())

	segments := []schedule.PhaseSegment{
		seg(t, schedule.PhaseKickoff, "2024-01-01", "2024-01-01"),
		seg(t, schedule.PhasePreField, "2024-01-02", "2024-01-19"),
	}
	if err := svc.SeedTimeline(context.Background(), 1, segments); err != nil {
		t.Fatalf("SeedTimeline: %v", err)
	}
	stored, _ := store.GetByID(context.Background(), 1)
	if len(stored.Timeline) != 2 {
		t.Fatalf("stored timeline = %d segments, want 2", len(stored.Timeline))
	}
	if stored.LastPhase != string(schedule.PhaseKickoff) {
		t.Fatalf("last phase = %q, want kickoff", stored.LastPhase)
	}

	// Redelivery: a project with a timeline is never reseeded.
	before := store.updateCalls
	if err := svc.SeedTimeline(context.Background(), 1, segments); err != nil {
		t.Fatalf("SeedTimeline redelivery: %v", err)
	}
	if store.updateCalls != before {
		t.Fatal("redelivered seed wrote the project again")
	}
}

func TestSeedTimelineRejectsInvalidScaffold(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore(testProject(t, 1))
	svc := newTestTimelineService(store, newFakeModeratorStore())

	segments := []schedule.PhaseSegment{
		seg(t, schedule.PhaseKickoff, "2024-01-05", "2024-01-01"),
	}
	err := svc.SeedTimeline(context.Background(), 1, segments)
	var verr *schedule.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
