package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	contracts "resops/contracts/mq"
	"resops/internal/schedule"
	"resops/internal/service"
	"resops/pkg/mq"
	"resops/pkg/util"
)

// ProjectCreatedHandler 消费 project.created 事件，
// 用向导提供的脚手架日期为新项目播种初始时间线。
type ProjectCreatedHandler struct {
	timelines *service.TimelineService
	deduper   *util.Deduper
	publisher *mq.Publisher // DLQ 用，可为 nil
	logger    *zap.Logger
}

func NewProjectCreatedHandler(
	timelines *service.TimelineService,
	deduper *util.Deduper,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *ProjectCreatedHandler {
	return &ProjectCreatedHandler{
		timelines: timelines,
		deduper:   deduper,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *ProjectCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p contracts.ProjectCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal ProjectCreatedPayload", zap.Error(err))
		// 格式错误重投也不会成功，直接进 DLQ
		h.sendToDLQ(raw, err)
		return nil
	}

	h.logger.Info("Handling project.created event",
		zap.Int("project_id", p.ProjectID),
		zap.String("kickoff_date", p.KickoffDate),
	)

	if p.ProjectID <= 0 {
		h.logger.Error("Invalid project_id in project.created event",
			zap.Int("project_id", p.ProjectID),
		)
		h.sendToDLQ(raw, fmt.Errorf("invalid project_id: %d", p.ProjectID))
		return nil
	}

	// 消息去重：同一项目只播种一次
	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, "project_created", p.ProjectID) {
		return nil
	}

	segments, err := scaffoldSegments(p)
	if err != nil {
		h.logger.Error("Invalid timeline scaffold",
			zap.Int("project_id", p.ProjectID),
			zap.Error(err),
		)
		h.sendToDLQ(raw, err)
		return nil
	}

	if err := h.timelines.SeedTimeline(ctx, p.ProjectID, segments); err != nil {
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			// 脚手架数据问题，重试无意义
			h.sendToDLQ(raw, err)
			return nil
		}
		if retryable, errType := util.IsRetryableError(err); !retryable {
			h.logger.Error("Non-retryable error seeding timeline",
				zap.Int("project_id", p.ProjectID),
				zap.String("error_type", errType),
				zap.Error(err),
			)
			h.sendToDLQ(raw, err)
			return nil
		}
		// 可重试错误：返回给消费者 nack 重投
		return err
	}

	h.logger.Info("Initial timeline seeded",
		zap.Int("project_id", p.ProjectID),
	)
	return nil
}

// scaffoldSegments 把向导的五个日期翻成分段列表：
// Kickoff 是单日，后续每段从上一段结束的下一个工作日开始。
func scaffoldSegments(p contracts.ProjectCreatedPayload) ([]schedule.PhaseSegment, error) {
	kickoff, err := schedule.ParseDate(p.KickoffDate)
	if err != nil {
		return nil, fmt.Errorf("kickoff_date: %w", err)
	}

	bounds := []struct {
		phase schedule.PhaseTag
		end   string
	}{
		{schedule.PhasePreField, p.PreFieldEnd},
		{schedule.PhaseFielding, p.FieldingEnd},
		{schedule.PhasePostField, p.AnalysisEnd},
		{schedule.PhaseReporting, p.ReportingEnd},
	}

	segments := []schedule.PhaseSegment{
		{Phase: schedule.PhaseKickoff, Start: kickoff, End: kickoff},
	}
	prevEnd := kickoff
	for _, b := range bounds {
		if b.end == "" {
			// 向导允许省略后面的阶段
			continue
		}
		end, err := schedule.ParseDate(b.end)
		if err != nil {
			return nil, fmt.Errorf("%s end: %w", b.phase, err)
		}
		segments = append(segments, schedule.PhaseSegment{
			Phase: b.phase,
			Start: prevEnd.NextWorkday(),
			End:   end,
		})
		prevEnd = end
	}
	return segments, nil
}

func (h *ProjectCreatedHandler) sendToDLQ(raw json.RawMessage, cause error) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishToDLQ(contracts.RoutingProjectCreated, raw, cause.Error()); err != nil {
		h.logger.Error("Failed to publish to DLQ",
			zap.String("routing_key", contracts.RoutingProjectCreated),
			zap.Error(err),
		)
	}
}
