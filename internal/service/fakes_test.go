package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"resops/internal/model"
	"resops/internal/repository"
	"resops/internal/schedule"
)

// fakeProjectStore is an in-memory ProjectStore with version checking,
// so the retry path behaves like the real repository.
type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[int]*model.Project

	// failConflicts makes the next N writes fail with ErrVersionConflict.
	failConflicts int

	getCalls    int
	updateCalls int
	routingKeys []string
}

func newFakeProjectStore(projects ...*model.Project) *fakeProjectStore {
	s := &fakeProjectStore{projects: make(map[int]*model.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func cloneProject(p *model.Project) *model.Project {
	cp := *p
	cp.Timeline = p.Timeline.Clone()
	cp.Deadlines = append([]schedule.KeyDeadline(nil), p.Deadlines...)
	if p.ModeratorID != nil {
		id := *p.ModeratorID
		cp.ModeratorID = &id
	}
	return &cp
}

func (s *fakeProjectStore) GetByID(_ context.Context, id int) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %d", repository.ErrNotFound, id)
	}
	return cloneProject(p), nil
}

func (s *fakeProjectStore) ListByModerator(_ context.Context, moderatorID int) ([]*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Project
	for _, p := range s.projects {
		if p.ModeratorID != nil && *p.ModeratorID == moderatorID {
			out = append(out, cloneProject(p))
		}
	}
	return out, nil
}

func (s *fakeProjectStore) UpdateTimeline(_ context.Context, p *model.Project, routingKey string, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.failConflicts > 0 {
		s.failConflicts--
		return repository.ErrVersionConflict
	}
	stored, ok := s.projects[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != p.Version {
		return repository.ErrVersionConflict
	}
	next := cloneProject(p)
	next.Version++
	s.projects[p.ID] = next
	p.Version++
	s.routingKeys = append(s.routingKeys, routingKey)
	return nil
}

func (s *fakeProjectStore) AssignModerator(_ context.Context, projectID, moderatorID, version int, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != version {
		return repository.ErrVersionConflict
	}
	id := moderatorID
	stored.ModeratorID = &id
	stored.Version++
	return nil
}

type fakeModeratorStore struct {
	moderators map[int]*model.Moderator
	entries    map[int][]*model.ScheduleEntry
}

func newFakeModeratorStore(moderators ...*model.Moderator) *fakeModeratorStore {
	s := &fakeModeratorStore{
		moderators: make(map[int]*model.Moderator),
		entries:    make(map[int][]*model.ScheduleEntry),
	}
	for _, m := range moderators {
		s.moderators[m.ID] = m
	}
	return s
}

func (s *fakeModeratorStore) GetByID(_ context.Context, id int) (*model.Moderator, error) {
	m, ok := s.moderators[id]
	if !ok {
		return nil, fmt.Errorf("%w: moderator %d", repository.ErrNotFound, id)
	}
	return m, nil
}

func (s *fakeModeratorStore) ListScheduleEntries(_ context.Context, moderatorID int) ([]*model.ScheduleEntry, error) {
	return s.entries[moderatorID], nil
}

func mustDate(t *testing.T, s string) schedule.CalendarDate {
	t.Helper()
	d, err := schedule.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func seg(t *testing.T, phase schedule.PhaseTag, start, end string) schedule.PhaseSegment {
	t.Helper()
	return schedule.PhaseSegment{
		Phase: phase,
		Start: mustDate(t, start),
		End:   mustDate(t, end),
	}
}

// testTimeline is a valid five-phase plan over January 2024.
func testTimeline(t *testing.T) schedule.Timeline {
	t.Helper()
	return schedule.Timeline{
		seg(t, schedule.PhaseKickoff, "2024-01-01", "2024-01-01"),
		seg(t, schedule.PhasePreField, "2024-01-02", "2024-01-19"),
		seg(t, schedule.PhaseFielding, "2024-01-22", "2024-02-02"),
		seg(t, schedule.PhasePostField, "2024-02-05", "2024-02-16"),
		seg(t, schedule.PhaseReporting, "2024-02-19", "2024-03-01"),
	}
}

func testProject(t *testing.T, id int) *model.Project {
	t.Helper()
	return &model.Project{
		ID:        id,
		Title:     "Snack Brand Focus Groups",
		LastPhase: string(schedule.StatusAwaitingKickoff),
		Timeline:  testTimeline(t),
		Version:   1,
	}
}
