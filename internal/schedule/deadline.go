package schedule

// Labels of the deadlines derived from segment boundaries.
const (
	DeadlineKickoff       = "Project Kickoff"
	DeadlineFieldingStart = "Fielding Start"
	DeadlineFinalReport   = "Final Report"
)

// KeyDeadline is a named single-date milestone. Derived entries are
// recomputed from the timeline on every read; ad-hoc entries are
// user-added and owned by the project record.
type KeyDeadline struct {
	Label string       `json:"label"`
	Date  CalendarDate `json:"date"`
}

// DeriveKeyDeadlines projects the standard milestones from a timeline:
// the first segment's start, the Fielding segment's start, and the last
// segment's end. A milestone whose source segment is missing is dropped
// rather than emitted with a placeholder date.
func DeriveKeyDeadlines(t Timeline) []KeyDeadline {
	if len(t) == 0 {
		return nil
	}
	deadlines := []KeyDeadline{
		{Label: DeadlineKickoff, Date: t[0].Start},
	}
	if fielding, ok := t.Segment(PhaseFielding); ok {
		deadlines = append(deadlines, KeyDeadline{Label: DeadlineFieldingStart, Date: fielding.Start})
	}
	deadlines = append(deadlines, KeyDeadline{Label: DeadlineFinalReport, Date: t[len(t)-1].End})
	return deadlines
}
