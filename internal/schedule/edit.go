package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// BoundaryField selects which end of a segment an edit moves.
type BoundaryField string

const (
	FieldStart BoundaryField = "start"
	FieldEnd   BoundaryField = "end"
)

// Valid reports whether f is one of the two boundary fields.
func (f BoundaryField) Valid() bool {
	return f == FieldStart || f == FieldEnd
}

// ErrPhaseNotFound is returned when an edit addresses a segment index
// outside the timeline.
var ErrPhaseNotFound = errors.New("phase not found")

// ApplyEdit moves one boundary of one segment and cascades the minimal
// adjustments needed to keep the timeline contiguous:
//
//  1. Moving the first segment's start collapses it to a single day
//     (kickoff is a one-day phase).
//  2. Moving an end pushes the following segment's start to the next
//     workday — phases hand off on business days, never on a weekend.
//  3. Moving a start pulls the preceding segment's end to the day before.
//
// The result is re-validated; an edit that would produce an invalid
// timeline is rejected as a whole and the input returned unchanged, so a
// partially applied edit is never observable. Deadlines whose label
// textually references both the edited phase and the edited boundary
// word follow the new date; all others, ad-hoc entries included, are
// left alone.
//
// ApplyEdit is pure: it never mutates its inputs and depends on nothing
// but them.
func ApplyEdit(t Timeline, deadlines []KeyDeadline, index int, field BoundaryField, newDate CalendarDate) (Timeline, []KeyDeadline, error) {
	if index < 0 || index >= len(t) {
		return t, deadlines, fmt.Errorf("%w: segment index %d", ErrPhaseNotFound, index)
	}
	if !field.Valid() {
		return t, deadlines, fmt.Errorf("invalid boundary field %q", field)
	}

	next := t.Clone()

	switch {
	case field == FieldStart && index == 0:
		next[0].Start = newDate
		next[0].End = newDate
	case field == FieldStart:
		next[index].Start = newDate
		next[index-1].End = newDate.AddDays(-1)
	case field == FieldEnd:
		next[index].End = newDate
		if index+1 < len(next) {
			next[index+1].Start = newDate.NextWorkday()
		}
	}

	validated, violations := Validate(next)
	if violations != nil {
		return t, deadlines, &ValidationError{Violations: violations}
	}

	return validated, cascadeDeadlines(deadlines, t[index].Phase, field, newDate), nil
}

// cascadeDeadlines rewrites the deadlines that name the edited phase and
// the edited boundary word, e.g. "Fielding start" when the fielding
// segment's start moves. Matching is case-insensitive on the phase's
// display label.
func cascadeDeadlines(deadlines []KeyDeadline, phase PhaseTag, field BoundaryField, newDate CalendarDate) []KeyDeadline {
	if len(deadlines) == 0 {
		return deadlines
	}
	out := make([]KeyDeadline, len(deadlines))
	copy(out, deadlines)

	phaseRef := strings.ToLower(phase.Label())
	boundaryRef := string(field)
	for i, kd := range out {
		label := strings.ToLower(kd.Label)
		if strings.Contains(label, phaseRef) && strings.Contains(label, boundaryRef) {
			out[i].Date = newDate
		}
	}
	return out
}
