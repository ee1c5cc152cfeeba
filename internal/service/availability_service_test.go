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

func TestBookingsForMergesSources(t *testing.T) {
	t.Parallel()

	moderatorID := 7

	assigned := testProject(t, 1)
	assigned.ModeratorID = &moderatorID

	archived := testProject(t, 2)
	archived.ModeratorID = &moderatorID
	archived.Archived = true

	unassigned := testProject(t, 3)

	store := newFakeProjectStore(assigned, archived, unassigned)
	moderators := newFakeModeratorStore(&model.Moderator{ID: 7, Name: "Dana", Active: true})
	moderators.entries[7] = []*model.ScheduleEntry{{
		ID:          1,
		ModeratorID: 7,
		Start:       mustDate(t, "2024-03-04"),
		End:         mustDate(t, "2024-03-08"),
		Kind:        schedule.BookingHold,
		Label:       "Tentative automotive study",
	}}

	svc := NewAvailabilityService(store, moderators, zap.NewNop())

	bookings, err := svc.BookingsFor(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("BookingsFor: %v", err)
	}
	// One fielding window from the live assigned project plus one manual
	// entry; the archived project contributes nothing.
	if len(bookings) != 2 {
		t.Fatalf("bookings = %d, want 2", len(bookings))
	}

	bookings, err = svc.BookingsFor(context.Background(), 7, assigned.ID)
	if err != nil {
		t.Fatalf("BookingsFor with exclusion: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("bookings with exclusion = %d, want 1", len(bookings))
	}
	if bookings[0].Kind != schedule.BookingHold {
		t.Fatalf("remaining booking kind = %q, want hold", bookings[0].Kind)
	}
}

func TestCheckUnknownModerator(t *testing.T) {
	t.Parallel()

	svc := NewAvailabilityService(newFakeProjectStore(), newFakeModeratorStore(), zap.NewNop())
	_, err := svc.Check(context.Background(), 99,
		schedule.DateRange{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-05")}, 0)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckSameDayHandoff(t *testing.T) {
	t.Parallel()

	moderatorID := 7
	p := testProject(t, 1)
	p.ModeratorID = &moderatorID

	store := newFakeProjectStore(p)
	moderators := newFakeModeratorStore(&model.Moderator{ID: 7, Name: "Dana", Active: true})
	svc := NewAvailabilityService(store, moderators, zap.NewNop())

	// Candidate starts the day the existing fielding window ends. A
	// moderator cannot wrap one study and open another the same day.
	res, err := svc.Check(context.Background(), 7,
		schedule.DateRange{Start: mustDate(t, "2024-02-02"), End: mustDate(t, "2024-02-09")}, 0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Available {
		t.Fatal("same-day handoff reported as available")
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(res.Conflicts))
	}

	// Starting the next day is fine.
	res, err = svc.Check(context.Background(), 7,
		schedule.DateRange{Start: mustDate(t, "2024-02-03"), End: mustDate(t, "2024-02-09")}, 0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Available {
		t.Fatalf("next-day start reported unavailable: %v", res.Conflicts)
	}
}
