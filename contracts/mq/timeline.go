package mq

// Routing keys published and consumed by the service.
const (
	RoutingTimelineUpdated   = "timeline.updated"
	RoutingModeratorAssigned = "moderator.assigned"
	RoutingDeadlineChanged   = "project.deadline.changed"
	RoutingProjectCreated    = "project.created"
)

type TimelineUpdatedPayload struct {
	ProjectID  int    `json:"project_id"`
	Phase      string `json:"phase"`
	Field      string `json:"field"` // start / end
	NewDate    string `json:"new_date"` // YYYY-MM-DD
	NewVersion int    `json:"new_version"`
	RequestID  string `json:"request_id,omitempty"`
}

type ModeratorAssignedPayload struct {
	ProjectID   int  `json:"project_id"`
	ModeratorID int  `json:"moderator_id"`
	Conflicted  bool `json:"conflicted"` // 指派时已检出档期冲突（允许但告警）
}

type DeadlineChangedPayload struct {
	ProjectID int    `json:"project_id"`
	Label     string `json:"label"`
	Date      string `json:"date,omitempty"` // YYYY-MM-DD, empty on removal
	Removed   bool   `json:"removed,omitempty"`
}

// ProjectCreatedPayload 由项目创建向导发出，带初始时间线脚手架。
// 所有日期均为 YYYY-MM-DD。
type ProjectCreatedPayload struct {
	ProjectID    int    `json:"project_id"`
	KickoffDate  string `json:"kickoff_date"`
	PreFieldEnd  string `json:"pre_field_end"`
	FieldingEnd  string `json:"fielding_end"`
	AnalysisEnd  string `json:"analysis_end"`
	ReportingEnd string `json:"reporting_end"`
}
