package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	contracts "resops/contracts/mq"
	"resops/internal/repository"
	"resops/internal/schedule"
	"resops/pkg/metrics"
	"resops/pkg/reqid"
)

// maxEditRetries 是乐观并发冲突时重读重放编辑的次数上限
const maxEditRetries = 3

// cacheTTL 是阶段/截止日缓存的过期时间
const cacheTTL = 10 * time.Minute

// EditOutcome 是一次时间线编辑的完整结果。
// Conflicts 仅在编辑移动 Fielding 分段且项目已指派主持人时填写，
// 冲突不阻断编辑，只作为告警返回。
type EditOutcome struct {
	Timeline  schedule.Timeline      `json:"timeline"`
	Deadlines []schedule.KeyDeadline `json:"deadlines"`
	Version   int                    `json:"version"`
	Conflicts []schedule.Booking     `json:"conflicts,omitempty"`
}

// AssignOutcome 是指派主持人的结果：指派总会生效，冲突只是告警。
type AssignOutcome struct {
	ProjectID   int                `json:"project_id"`
	ModeratorID int                `json:"moderator_id"`
	Conflicts   []schedule.Booking `json:"conflicts,omitempty"`
}

// TimelineService 封装"读取项目 → 跑引擎 → 写回"的完整循环。
// 引擎本身是纯函数；丢失更新问题由仓储层的版本校验兜底，
// 冲突时这里重读重放，最多 maxEditRetries 次。
type TimelineService struct {
	projects     ProjectStore
	availability *AvailabilityService
	rdb          *redis.Client // 可为 nil（测试或缓存关闭时）
	logger       *zap.Logger
}

func NewTimelineService(projects ProjectStore, availability *AvailabilityService, rdb *redis.Client, logger *zap.Logger) *TimelineService {
	return &TimelineService{
		projects:     projects,
		availability: availability,
		rdb:          rdb,
		logger:       logger,
	}
}

// ValidateTimeline 校验一组分段，返回全部违规项（合法时为空）。
func (s *TimelineService) ValidateTimeline(segments []schedule.PhaseSegment) (schedule.Timeline, []schedule.Violation) {
	return schedule.Validate(segments)
}

// CurrentPhase 解析项目在指定日期的阶段与状态，结果带缓存。
func (s *TimelineService) CurrentPhase(ctx context.Context, projectID int, date schedule.CalendarDate) (PhaseResult, error) {
	key := fmt.Sprintf("phase:%d:%s", projectID, date)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var res PhaseResult
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				metrics.IncrementPhaseResolve("cache")
				return res, nil
			}
		}
	}

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return PhaseResult{}, err
	}

	res := StatusFor(p, date)
	if res.Fallback {
		metrics.IncrementPhaseResolve("fallback")
	} else {
		metrics.IncrementPhaseResolve("computed")
	}

	if s.rdb != nil {
		if data, err := json.Marshal(res); err == nil {
			s.rdb.Set(ctx, key, data, cacheTTL)
		}
	}
	return res, nil
}

// Deadlines 返回派生截止日加用户手工条目。派生条目每次从时间线重算，
// 手工条目原样附加在后面。
func (s *TimelineService) Deadlines(ctx context.Context, projectID int) ([]schedule.KeyDeadline, error) {
	key := fmt.Sprintf("deadlines:%d", projectID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var deadlines []schedule.KeyDeadline
			if err := json.Unmarshal([]byte(cached), &deadlines); err == nil {
				return deadlines, nil
			}
		}
	}

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	deadlines := append(schedule.DeriveKeyDeadlines(p.Timeline), p.Deadlines...)

	if s.rdb != nil {
		if data, err := json.Marshal(deadlines); err == nil {
			s.rdb.Set(ctx, key, data, cacheTTL)
		}
	}
	return deadlines, nil
}

// ApplyEdit 对项目时间线应用一次边界编辑。
// 编辑被引擎拒绝（校验失败）时返回 *schedule.ValidationError，项目不变；
// 版本冲突时自动重读重放；编辑移动 Fielding 且已有主持人时附带冲突预检。
func (s *TimelineService) ApplyEdit(ctx context.Context, projectID, index int, field schedule.BoundaryField, newDate schedule.CalendarDate) (*EditOutcome, error) {
	var lastErr error

	for attempt := 0; attempt < maxEditRetries; attempt++ {
		p, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}

		editedPhase := schedule.PhaseTag("")
		if index >= 0 && index < len(p.Timeline) {
			editedPhase = p.Timeline[index].Phase
		}

		newTimeline, newDeadlines, err := schedule.ApplyEdit(p.Timeline, p.Deadlines, index, field, newDate)
		if err != nil {
			var verr *schedule.ValidationError
			if errors.As(err, &verr) {
				metrics.IncrementTimelineEdit("rejected")
				s.logger.Info("Timeline edit rejected",
					zap.Int("project_id", projectID),
					zap.Int("segment_index", index),
					zap.String("field", string(field)),
					zap.String("new_date", newDate.String()),
					zap.Int("violation_count", len(verr.Violations)),
				)
			}
			return nil, err
		}

		outcome := &EditOutcome{
			Timeline:  newTimeline,
			Deadlines: append(schedule.DeriveKeyDeadlines(newTimeline), newDeadlines...),
		}

		// Fielding 改期且已指派主持人：冲突预检（告警，不阻断）
		if p.ModeratorID != nil {
			if fielding, ok := newTimeline.Segment(schedule.PhaseFielding); ok && editedPhase == schedule.PhaseFielding {
				res, err := s.availability.Check(ctx, *p.ModeratorID,
					schedule.DateRange{Start: fielding.Start, End: fielding.End}, p.ID)
				if err != nil {
					s.logger.Warn("Availability pre-check failed",
						zap.Int("project_id", projectID),
						zap.Error(err),
					)
				} else {
					outcome.Conflicts = res.Conflicts
				}
			}
		}

		p.Timeline = newTimeline
		p.Deadlines = newDeadlines

		payload := contracts.TimelineUpdatedPayload{
			ProjectID:  projectID,
			Phase:      string(editedPhase),
			Field:      string(field),
			NewDate:    newDate.String(),
			NewVersion: p.Version + 1,
			RequestID:  reqid.FromContext(ctx),
		}
		err = s.projects.UpdateTimeline(ctx, p, contracts.RoutingTimelineUpdated, payload)
		if err == nil {
			metrics.IncrementTimelineEdit("applied")
			outcome.Version = p.Version
			s.invalidate(ctx, projectID)
			return outcome, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}

		metrics.IncrementTimelineEdit("version_conflict")
		s.logger.Warn("Timeline edit hit version conflict, retrying",
			zap.Int("project_id", projectID),
			zap.Int("attempt", attempt+1),
		)
		lastErr = err
	}

	return nil, fmt.Errorf("edit abandoned after %d version conflicts: %w", maxEditRetries, lastErr)
}

// AddDeadline 添加一条手工截止日（永不被编辑级联触碰的来源在这里落库）。
func (s *TimelineService) AddDeadline(ctx context.Context, projectID int, kd schedule.KeyDeadline) error {
	for attempt := 0; attempt < maxEditRetries; attempt++ {
		p, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		p.Deadlines = append(p.Deadlines, kd)

		payload := contracts.DeadlineChangedPayload{
			ProjectID: projectID,
			Label:     kd.Label,
			Date:      kd.Date.String(),
		}
		err = s.projects.UpdateTimeline(ctx, p, contracts.RoutingDeadlineChanged, payload)
		if err == nil {
			s.invalidate(ctx, projectID)
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return repository.ErrVersionConflict
}

// RemoveDeadline 删除指定标签的手工截止日。
func (s *TimelineService) RemoveDeadline(ctx context.Context, projectID int, label string) error {
	for attempt := 0; attempt < maxEditRetries; attempt++ {
		p, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}

		kept := p.Deadlines[:0:0]
		removed := false
		for _, kd := range p.Deadlines {
			if kd.Label == label && !removed {
				removed = true
				continue
			}
			kept = append(kept, kd)
		}
		if !removed {
			return fmt.Errorf("%w: deadline %q", repository.ErrNotFound, label)
		}
		p.Deadlines = kept

		payload := contracts.DeadlineChangedPayload{
			ProjectID: projectID,
			Label:     label,
			Removed:   true,
		}
		err = s.projects.UpdateTimeline(ctx, p, contracts.RoutingDeadlineChanged, payload)
		if err == nil {
			s.invalidate(ctx, projectID)
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return repository.ErrVersionConflict
}

// AssignModerator 把主持人指派到项目的 Fielding 窗口。
// 档期冲突不会阻断指派（界面以告警展示），但会记入结果与事件。
func (s *TimelineService) AssignModerator(ctx context.Context, projectID, moderatorID int) (*AssignOutcome, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	outcome := &AssignOutcome{ProjectID: projectID, ModeratorID: moderatorID}

	if fielding, ok := p.Timeline.Segment(schedule.PhaseFielding); ok {
		res, err := s.availability.Check(ctx, moderatorID,
			schedule.DateRange{Start: fielding.Start, End: fielding.End}, projectID)
		if err != nil {
			return nil, err
		}
		outcome.Conflicts = res.Conflicts
	}

	payload := contracts.ModeratorAssignedPayload{
		ProjectID:   projectID,
		ModeratorID: moderatorID,
		Conflicted:  len(outcome.Conflicts) > 0,
	}
	if err := s.projects.AssignModerator(ctx, projectID, moderatorID, p.Version, payload); err != nil {
		return nil, err
	}

	s.invalidate(ctx, projectID)
	return outcome, nil
}

// invalidate 清掉项目的阶段与截止日缓存
func (s *TimelineService) invalidate(ctx context.Context, projectID int) {
	if s.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("phase:%d:*", projectID)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		s.rdb.Del(ctx, iter.Val())
	}
	s.rdb.Del(ctx, fmt.Sprintf("deadlines:%d", projectID))
}

// SeedTimeline 用向导脚手架日期生成并保存初始时间线（由 project.created 消费者调用）。
// 脚手架非法时返回 *schedule.ValidationError，由调用方决定进 DLQ。
func (s *TimelineService) SeedTimeline(ctx context.Context, projectID int, segments []schedule.PhaseSegment) error {
	timeline, violations := schedule.Validate(segments)
	if violations != nil {
		return &schedule.ValidationError{Violations: violations}
	}
	if len(timeline) == 0 {
		return fmt.Errorf("scaffold produced an empty timeline: %w", schedule.ErrNoSegments)
	}

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if len(p.Timeline) > 0 {
		// 已有时间线的项目不重复播种（消息重投）
		s.logger.Info("Timeline already seeded, skipping",
			zap.Int("project_id", projectID),
		)
		return nil
	}

	p.Timeline = timeline
	p.LastPhase = string(timeline[0].Phase)

	payload := contracts.TimelineUpdatedPayload{
		ProjectID:  projectID,
		NewVersion: p.Version + 1,
	}
	if err := s.projects.UpdateTimeline(ctx, p, contracts.RoutingTimelineUpdated, payload); err != nil {
		return err
	}
	s.invalidate(ctx, projectID)
	return nil
}
