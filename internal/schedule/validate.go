package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// ViolationKind classifies a single timeline consistency failure.
type ViolationKind string

const (
	// InvertedRange: a segment whose start falls after its end.
	InvertedRange ViolationKind = "inverted_range"
	// OverlappingSegments: two segments share at least one day.
	OverlappingSegments ViolationKind = "overlapping_segments"
	// DuplicatePhase: a non-terminal phase tag appears more than once.
	DuplicatePhase ViolationKind = "duplicate_phase"
	// TerminalPhaseInTimeline: a computed status tag used as a segment phase.
	TerminalPhaseInTimeline ViolationKind = "terminal_phase_in_timeline"
)

// Violation is one consistency failure found by Validate.
type Violation struct {
	Kind  ViolationKind `json:"kind"`
	Phase PhaseTag      `json:"phase"`
	// Other 仅在 OverlappingSegments 时填写：与 Phase 重叠的另一个分段。
	Other PhaseTag `json:"other,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case InvertedRange:
		return fmt.Sprintf("%s: start after end", v.Phase.Label())
	case OverlappingSegments:
		return fmt.Sprintf("%s overlaps %s", v.Phase.Label(), v.Other.Label())
	case DuplicatePhase:
		return fmt.Sprintf("%s appears more than once", v.Phase.Label())
	case TerminalPhaseInTimeline:
		return fmt.Sprintf("%s is a project status, not a timeline phase", v.Phase.Label())
	}
	return string(v.Kind)
}

// ValidationError carries every violation found in a candidate timeline.
// It is always recoverable: the caller keeps its prior valid state.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "invalid timeline: " + strings.Join(msgs, "; ")
}

// Validate checks an unordered list of phase segments and either returns
// a start-sorted Timeline or the full list of violations. It reports all
// problems rather than stopping at the first, and never mutates its input.
func Validate(segments []PhaseSegment) (Timeline, []Violation) {
	var violations []Violation

	seen := make(map[PhaseTag]bool, len(segments))
	dup := make(map[PhaseTag]bool)
	for _, s := range segments {
		if s.Start.After(s.End) {
			violations = append(violations, Violation{Kind: InvertedRange, Phase: s.Phase})
		}
		if s.Phase.Terminal() {
			violations = append(violations, Violation{Kind: TerminalPhaseInTimeline, Phase: s.Phase})
		}
		if seen[s.Phase] && !dup[s.Phase] {
			violations = append(violations, Violation{Kind: DuplicatePhase, Phase: s.Phase})
			dup[s.Phase] = true
		}
		seen[s.Phase] = true
	}

	// 两两检查闭区间重叠，每对只报一次。
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			if segments[i].Overlaps(segments[j]) {
				violations = append(violations, Violation{
					Kind:  OverlappingSegments,
					Phase: segments[i].Phase,
					Other: segments[j].Phase,
				})
			}
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}

	sorted := make(Timeline, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted, nil
}
