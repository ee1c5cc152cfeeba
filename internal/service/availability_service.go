package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"resops/internal/schedule"
	"resops/pkg/metrics"
)

// AvailabilityService 负责主持人档期冲突检查。
// 它把两种来源的占用统一成 schedule.Booking 再交给引擎：
// 项目派生（已指派项目的 Fielding 分段）与手工档期条目。
type AvailabilityService struct {
	projects   ProjectStore
	moderators ModeratorStore
	logger     *zap.Logger
}

func NewAvailabilityService(projects ProjectStore, moderators ModeratorStore, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		projects:   projects,
		moderators: moderators,
		logger:     logger,
	}
}

// BookingsFor 收集一个主持人的全部占用。excludeProjectID 用于编辑预检：
// 检查某项目自己的 Fielding 改期时，不能把该项目现有的派生占用算成冲突。
func (s *AvailabilityService) BookingsFor(ctx context.Context, moderatorID, excludeProjectID int) ([]schedule.Booking, error) {
	var bookings []schedule.Booking

	// 项目派生占用：已指派项目的 Fielding 分段
	projects, err := s.projects.ListByModerator(ctx, moderatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load moderator projects: %w", err)
	}
	for _, p := range projects {
		if p.ID == excludeProjectID || p.Archived {
			continue
		}
		fielding, ok := p.Timeline.Segment(schedule.PhaseFielding)
		if !ok {
			continue
		}
		bookings = append(bookings, schedule.Booking{
			ResourceID: moderatorID,
			Start:      fielding.Start,
			End:        fielding.End,
			Kind:       schedule.BookingConfirmed,
			Label:      p.Title,
			ProjectID:  p.ID,
		})
	}

	// 手工档期条目
	entries, err := s.moderators.ListScheduleEntries(ctx, moderatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule entries: %w", err)
	}
	for _, e := range entries {
		bookings = append(bookings, schedule.Booking{
			ResourceID: moderatorID,
			Start:      e.Start,
			End:        e.End,
			Kind:       e.Kind,
			Label:      e.Label,
		})
	}

	return bookings, nil
}

// Check 检查候选区间对主持人是否可用，返回全部冲突。
// 冲突是决策点而不是硬性阻断：调用方可以带着告警继续。
func (s *AvailabilityService) Check(ctx context.Context, moderatorID int, candidate schedule.DateRange, excludeProjectID int) (schedule.AvailabilityResult, error) {
	if _, err := s.moderators.GetByID(ctx, moderatorID); err != nil {
		return schedule.AvailabilityResult{}, err
	}

	bookings, err := s.BookingsFor(ctx, moderatorID, excludeProjectID)
	if err != nil {
		return schedule.AvailabilityResult{}, err
	}

	result := schedule.CheckAvailability(moderatorID, candidate, bookings)
	if result.Available {
		metrics.IncrementConflictCheck("available")
	} else {
		metrics.IncrementConflictCheck("conflicts")
		s.logger.Info("Availability check found conflicts",
			zap.Int("moderator_id", moderatorID),
			zap.String("range_start", candidate.Start.String()),
			zap.String("range_end", candidate.End.String()),
			zap.Int("conflict_count", len(result.Conflicts)),
		)
	}
	return result, nil
}
