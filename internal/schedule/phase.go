// Package schedule implements the project phase timeline and moderator
// scheduling engine: phase segments, timeline validation and editing,
// key-deadline derivation, and resource conflict checking.
//
// Everything in this package is a pure, synchronous computation over
// in-memory values. Functions never mutate their inputs and hold no
// global state, so they are safe to call from any number of goroutines.
package schedule

// PhaseTag identifies one lifecycle phase of a project.
type PhaseTag string

// Timeline phases, in their canonical lifecycle order.
const (
	PhaseKickoff   PhaseTag = "kickoff"
	PhasePreField  PhaseTag = "pre_field"
	PhaseFielding  PhaseTag = "fielding"
	PhasePostField PhaseTag = "post_field_analysis"
	PhaseReporting PhaseTag = "reporting"
)

// 终态标签：项目级状态，由调用方在时间线之上计算，从不出现在分段列表里。
const (
	StatusAwaitingKickoff PhaseTag = "awaiting_kickoff"
	StatusComplete        PhaseTag = "complete"
)

var phaseLabels = map[PhaseTag]string{
	PhaseKickoff:          "Kickoff",
	PhasePreField:         "Pre-Field",
	PhaseFielding:         "Fielding",
	PhasePostField:        "Post-Field Analysis",
	PhaseReporting:        "Reporting",
	StatusAwaitingKickoff: "Awaiting Kickoff",
	StatusComplete:        "Complete",
}

// Label returns the human-readable name of the phase, e.g. "Pre-Field".
func (p PhaseTag) Label() string {
	if l, ok := phaseLabels[p]; ok {
		return l
	}
	return string(p)
}

// Terminal reports whether p is a computed project-level status rather
// than a timeline phase.
func (p PhaseTag) Terminal() bool {
	return p == StatusAwaitingKickoff || p == StatusComplete
}

// Known reports whether p is one of the fixed phase or status tags.
func (p PhaseTag) Known() bool {
	_, ok := phaseLabels[p]
	return ok
}

// PhaseSegment is a contiguous date range tagged with one project phase.
// Invariant: Start <= End.
type PhaseSegment struct {
	Phase PhaseTag     `json:"phase"`
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// Contains reports whether d falls inside the segment (inclusive both ends).
func (s PhaseSegment) Contains(d CalendarDate) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

// Overlaps reports whether two segments share at least one day.
func (s PhaseSegment) Overlaps(o PhaseSegment) bool {
	return !s.Start.After(o.End) && !o.Start.After(s.End)
}

// Days returns the segment length in days, inclusive of both endpoints.
func (s PhaseSegment) Days() int {
	return s.Start.DaysUntil(s.End) + 1
}

// Timeline is the ordered, non-overlapping set of phase segments
// belonging to one project. Timelines are only ever produced by Validate
// or ApplyEdit, so a Timeline value always satisfies the invariants:
// sorted ascending by start, no inclusive overlap, and each non-terminal
// phase appearing at most once. Back-to-back segments are allowed.
type Timeline []PhaseSegment

// Clone returns an independent copy of the timeline.
func (t Timeline) Clone() Timeline {
	if t == nil {
		return nil
	}
	out := make(Timeline, len(t))
	copy(out, t)
	return out
}

// Segment returns the segment carrying the given phase, if present.
func (t Timeline) Segment(p PhaseTag) (PhaseSegment, bool) {
	for _, s := range t {
		if s.Phase == p {
			return s, true
		}
	}
	return PhaseSegment{}, false
}

// Span returns the overall start and end of the timeline. The second
// return value is false for an empty timeline.
func (t Timeline) Span() (PhaseSegment, bool) {
	if len(t) == 0 {
		return PhaseSegment{}, false
	}
	return PhaseSegment{Start: t[0].Start, End: t[len(t)-1].End}, true
}

// Equal reports whether two timelines hold the same segments in the
// same order.
func (t Timeline) Equal(o Timeline) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}
