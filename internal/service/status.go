package service

import (
	"resops/internal/model"
	"resops/internal/schedule"
)

// PhaseResult 是阶段解析加终态分层后的结果。
// Phase 是解析器给出的时间线阶段（可能为空），Status 是叠加了
// 项目级终态（Awaiting Kickoff / Complete）之后对外展示的状态。
type PhaseResult struct {
	Phase  schedule.PhaseTag `json:"phase,omitempty"`
	Status schedule.PhaseTag `json:"status"`
	// Fallback 为 true 表示时间线为空，Status 取自项目存储的 last_phase
	Fallback bool `json:"fallback,omitempty"`
}

// StatusFor 计算项目在给定日期的阶段与状态。终态是项目级计算，
// 引擎本身从不返回它们：归档 → Complete；未到首个分段 → Awaiting Kickoff。
// 时间线为空时回退到项目最后存储的阶段。
func StatusFor(p *model.Project, today schedule.CalendarDate) PhaseResult {
	if p.Archived {
		res := PhaseResult{Status: schedule.StatusComplete}
		if phase, err := schedule.Resolve(p.Timeline, today); err == nil {
			res.Phase = phase
		}
		return res
	}

	phase, err := schedule.Resolve(p.Timeline, today)
	if err != nil {
		// NoSegments：回退到存储的阶段
		return PhaseResult{Status: schedule.PhaseTag(p.LastPhase), Fallback: true}
	}

	if today.Before(p.Timeline[0].Start) {
		return PhaseResult{Phase: phase, Status: schedule.StatusAwaitingKickoff}
	}
	return PhaseResult{Phase: phase, Status: phase}
}
