package model

import (
	"time"

	"resops/internal/schedule"
)

type Project struct {
	ID          int                    `json:"id"`
	Title       string                 `json:"title"`
	Client      string                 `json:"client"`
	Archived    bool                   `json:"archived"`
	ModeratorID *int                   `json:"moderator_id,omitempty"`
	// LastPhase 是时间线为空时的回退阶段（NoSegments 时使用）
	LastPhase string                 `json:"last_phase"`
	Timeline  schedule.Timeline      `json:"timeline"`
	// Deadlines 只存用户手工添加的条目；派生条目每次读取时重新计算
	Deadlines []schedule.KeyDeadline `json:"deadlines"`
	// Version 用于乐观并发控制，写入时校验
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
