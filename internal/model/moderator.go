package model

import (
	"time"

	"resops/internal/schedule"
)

type Moderator struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Specialty string    `json:"specialty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleEntry 是主持人记录上手工维护的档期条目（显式 booking 来源）。
type ScheduleEntry struct {
	ID          int                   `json:"id"`
	ModeratorID int                   `json:"moderator_id"`
	Start       schedule.CalendarDate `json:"start"`
	End         schedule.CalendarDate `json:"end"`
	Kind        schedule.BookingKind  `json:"kind"` // confirmed / hold / unavailable
	Label       string                `json:"label"`
	CreatedAt   time.Time             `json:"created_at"`
}
