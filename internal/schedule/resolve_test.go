package schedule

import (
	"errors"
	"testing"
)

// standardTimeline 是贯穿测试的基准时间线：
// Kickoff 单日 -> Pre-Field -> Fielding。
func standardTimeline(t *testing.T) Timeline {
	t.Helper()
	tl, violations := Validate([]PhaseSegment{
		seg(t, PhaseKickoff, "2025-01-06", "2025-01-06"),
		seg(t, PhasePreField, "2025-01-07", "2025-01-20"),
		seg(t, PhaseFielding, "2025-01-21", "2025-02-03"),
	})
	if violations != nil {
		t.Fatalf("standard timeline invalid: %v", violations)
	}
	return tl
}

func TestResolveInsideSegment(t *testing.T) {
	t.Parallel()

	tl := standardTimeline(t)
	got, err := Resolve(tl, mustDate(t, "2025-01-25"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != PhaseFielding {
		t.Errorf("Resolve(01-25) = %s, want fielding", got)
	}
}

func TestResolveBoundaryDays(t *testing.T) {
	t.Parallel()

	tl := standardTimeline(t)
	cases := []struct {
		date string
		want PhaseTag
	}{
		{"2025-01-06", PhaseKickoff},  // single-day segment
		{"2025-01-07", PhasePreField}, // first day of a segment
		{"2025-01-20", PhasePreField}, // last day of a segment
		{"2025-02-03", PhaseFielding},
	}
	for _, tc := range cases {
		got, err := Resolve(tl, mustDate(t, tc.date))
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tc.date, err)
		}
		if got != tc.want {
			t.Errorf("Resolve(%s) = %s, want %s", tc.date, got, tc.want)
		}
	}
}

func TestResolveBeforeFirstSegment(t *testing.T) {
	t.Parallel()

	// 项目未开始但被预览：返回第一个分段的阶段，而不是终态。
	tl := standardTimeline(t)
	got, err := Resolve(tl, mustDate(t, "2024-12-01"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != PhaseKickoff {
		t.Errorf("before-first = %s, want kickoff", got)
	}
}

func TestResolveAfterLastSegment(t *testing.T) {
	t.Parallel()

	tl := standardTimeline(t)
	got, err := Resolve(tl, mustDate(t, "2025-06-01"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != PhaseFielding {
		t.Errorf("after-last = %s, want fielding (not a terminal status)", got)
	}
}

func TestResolveGapBetweenSegments(t *testing.T) {
	t.Parallel()

	// 分段之间的空档归属于之前最近开始的分段。
	tl, violations := Validate([]PhaseSegment{
		seg(t, PhasePreField, "2025-01-01", "2025-01-10"),
		seg(t, PhaseFielding, "2025-01-20", "2025-01-31"),
	})
	if violations != nil {
		t.Fatalf("timeline invalid: %v", violations)
	}
	got, err := Resolve(tl, mustDate(t, "2025-01-15"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != PhasePreField {
		t.Errorf("gap date = %s, want pre_field", got)
	}
}

func TestResolveEmptyTimeline(t *testing.T) {
	t.Parallel()

	_, err := Resolve(nil, mustDate(t, "2025-01-01"))
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("err = %v, want ErrNoSegments", err)
	}
}

// Resolve must return exactly one phase for every date of a valid
// timeline, boundaries and far-out dates included.
func TestResolveTotalOverDateSweep(t *testing.T) {
	t.Parallel()

	tl := standardTimeline(t)
	d := mustDate(t, "2024-12-20")
	end := mustDate(t, "2025-02-20")
	for !d.After(end) {
		phase, err := Resolve(tl, d)
		if err != nil {
			t.Fatalf("Resolve(%v): %v", d, err)
		}
		if !phase.Known() || phase.Terminal() {
			t.Fatalf("Resolve(%v) = %q, want a non-terminal phase", d, phase)
		}
		d = d.AddDays(1)
	}
}
