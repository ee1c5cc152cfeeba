package service

import (
	"context"

	"resops/internal/model"
)

// ProjectStore 是服务层对项目持久化协作者的最小依赖。
// 实现方必须支持写入时的版本前置校验（见 repository.ErrVersionConflict）。
type ProjectStore interface {
	GetByID(ctx context.Context, id int) (*model.Project, error)
	ListByModerator(ctx context.Context, moderatorID int) ([]*model.Project, error)
	UpdateTimeline(ctx context.Context, p *model.Project, routingKey string, payload any) error
	AssignModerator(ctx context.Context, projectID, moderatorID, version int, payload any) error
}

// ModeratorStore 是服务层对主持人记录的最小依赖。
type ModeratorStore interface {
	GetByID(ctx context.Context, id int) (*model.Moderator, error)
	ListScheduleEntries(ctx context.Context, moderatorID int) ([]*model.ScheduleEntry, error)
}
