package schedule

import "errors"

// ErrNoSegments is returned when resolving against an empty timeline.
// The caller should fall back to the project's last stored phase.
var ErrNoSegments = errors.New("timeline has no segments")

// Resolve returns the phase applicable on the given date.
//
// Dates before the first segment resolve to the first segment's phase
// (the project is being previewed before it starts); dates after the
// last segment resolve to the last segment's phase. Terminal statuses
// such as Awaiting Kickoff or Complete are a project-level computation
// layered on top by the caller, never returned here.
func Resolve(t Timeline, d CalendarDate) (PhaseTag, error) {
	if len(t) == 0 {
		return "", ErrNoSegments
	}
	for _, s := range t {
		if s.Contains(d) {
			return s.Phase, nil
		}
	}
	if d.Before(t[0].Start) {
		return t[0].Phase, nil
	}
	// 在最后一个分段之后，或落在分段之间的空档：取不晚于 d 的最后一个分段。
	for i := len(t) - 1; i >= 0; i-- {
		if !t[i].Start.After(d) {
			return t[i].Phase, nil
		}
	}
	return t[len(t)-1].Phase, nil
}
