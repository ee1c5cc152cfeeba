package schedule

import "testing"

func seg(t *testing.T, phase PhaseTag, start, end string) PhaseSegment {
	t.Helper()
	return PhaseSegment{Phase: phase, Start: mustDate(t, start), End: mustDate(t, end)}
}

func hasViolation(vs []Violation, kind ViolationKind) bool {
	for _, v := range vs {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func TestValidateSortsValidSegments(t *testing.T) {
	t.Parallel()

	// 输入乱序，输出必须按 start 排序。
	in := []PhaseSegment{
		seg(t, PhaseFielding, "2025-01-21", "2025-02-03"),
		seg(t, PhaseKickoff, "2025-01-06", "2025-01-06"),
		seg(t, PhasePreField, "2025-01-07", "2025-01-20"),
	}
	tl, violations := Validate(in)
	if violations != nil {
		t.Fatalf("unexpected violations: %v", violations)
	}
	want := []PhaseTag{PhaseKickoff, PhasePreField, PhaseFielding}
	for i, p := range want {
		if tl[i].Phase != p {
			t.Errorf("segment %d = %s, want %s", i, tl[i].Phase, p)
		}
	}
	// 输入不能被修改
	if in[0].Phase != PhaseFielding {
		t.Error("Validate mutated its input")
	}
}

func TestValidateBackToBackSegmentsAllowed(t *testing.T) {
	t.Parallel()

	// 相邻分段允许首尾相接（next.start == prev.end + 1 天）。
	_, violations := Validate([]PhaseSegment{
		seg(t, PhaseKickoff, "2025-01-06", "2025-01-06"),
		seg(t, PhasePreField, "2025-01-07", "2025-01-20"),
	})
	if violations != nil {
		t.Errorf("back-to-back segments rejected: %v", violations)
	}
}

func TestValidateInvertedRange(t *testing.T) {
	t.Parallel()

	_, violations := Validate([]PhaseSegment{
		seg(t, PhasePreField, "2025-01-20", "2025-01-07"),
	})
	if !hasViolation(violations, InvertedRange) {
		t.Errorf("want InvertedRange, got %v", violations)
	}
}

func TestValidateSharedEndpointOverlaps(t *testing.T) {
	t.Parallel()

	// 共享同一天即为重叠（闭区间）。
	_, violations := Validate([]PhaseSegment{
		seg(t, PhasePreField, "2025-01-01", "2025-01-10"),
		seg(t, PhaseFielding, "2025-01-10", "2025-01-20"),
	})
	if !hasViolation(violations, OverlappingSegments) {
		t.Fatalf("want OverlappingSegments, got %v", violations)
	}
	v := violations[0]
	if v.Phase != PhasePreField || v.Other != PhaseFielding {
		t.Errorf("violation names %s/%s, want pre_field/fielding", v.Phase, v.Other)
	}
}

func TestValidateDuplicatePhase(t *testing.T) {
	t.Parallel()

	_, violations := Validate([]PhaseSegment{
		seg(t, PhaseFielding, "2025-01-01", "2025-01-10"),
		seg(t, PhaseFielding, "2025-02-01", "2025-02-10"),
	})
	if !hasViolation(violations, DuplicatePhase) {
		t.Errorf("want DuplicatePhase, got %v", violations)
	}
}

func TestValidateTerminalTagRejected(t *testing.T) {
	t.Parallel()

	_, violations := Validate([]PhaseSegment{
		seg(t, StatusComplete, "2025-01-01", "2025-01-10"),
	})
	if !hasViolation(violations, TerminalPhaseInTimeline) {
		t.Errorf("want TerminalPhaseInTimeline, got %v", violations)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	t.Parallel()

	// 校验器不在第一个错误处停下。
	_, violations := Validate([]PhaseSegment{
		seg(t, PhaseKickoff, "2025-01-10", "2025-01-05"), // inverted
		seg(t, PhasePreField, "2025-01-01", "2025-01-15"),
		seg(t, PhasePreField, "2025-01-14", "2025-01-20"), // duplicate + overlapping
	})
	for _, kind := range []ViolationKind{InvertedRange, DuplicatePhase, OverlappingSegments} {
		if !hasViolation(violations, kind) {
			t.Errorf("missing %s in %v", kind, violations)
		}
	}
}

func TestValidateEmptyIsValid(t *testing.T) {
	t.Parallel()

	tl, violations := Validate(nil)
	if violations != nil {
		t.Errorf("empty input produced violations: %v", violations)
	}
	if len(tl) != 0 {
		t.Errorf("empty input produced segments: %v", tl)
	}
}
