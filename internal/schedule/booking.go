package schedule

// BookingKind distinguishes how firmly a date range is held.
type BookingKind string

const (
	BookingConfirmed   BookingKind = "confirmed"
	BookingHold        BookingKind = "hold"
	BookingUnavailable BookingKind = "unavailable"
)

// Booking is a date range held against a resource (a moderator). It
// arises either implicitly, from a project's fielding segment plus an
// assigned moderator, or explicitly, from a schedule entry on the
// moderator record. Both shapes are unified here before conflict
// checking — the checker never sees the two sources as different types.
type Booking struct {
	ResourceID int          `json:"resource_id"`
	Start      CalendarDate `json:"start"`
	End        CalendarDate `json:"end"`
	Kind       BookingKind  `json:"kind"`
	Label      string       `json:"label"`
	// ProjectID 仅对项目派生的 booking 有值；手工日程条目为 0。
	ProjectID int `json:"project_id,omitempty"`
}

// DateRange is a candidate fielding window to test against bookings.
type DateRange struct {
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// Overlaps is the closed-interval overlap test, inclusive on both ends.
// A range ending the same day another begins is an overlap: fieldwork
// cannot hand off between moderators on the same day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// AvailabilityResult reports whether a candidate range is free, and if
// not, every booking it collides with. Conflicts are a decision point
// for the caller, not a hard block: assigning a conflicted moderator is
// allowed, only flagged.
type AvailabilityResult struct {
	Available bool      `json:"available"`
	Conflicts []Booking `json:"conflicts,omitempty"`
}

// CheckAvailability tests the candidate range against every booking held
// by the given resource. Bookings for other resources are ignored; Hold
// and Unavailable bookings conflict exactly like Confirmed ones. All
// conflicting bookings are returned so the caller can present a full
// explanation.
func CheckAvailability(resourceID int, candidate DateRange, bookings []Booking) AvailabilityResult {
	var conflicts []Booking
	for _, b := range bookings {
		if b.ResourceID != resourceID {
			continue
		}
		if candidate.Overlaps(DateRange{Start: b.Start, End: b.End}) {
			conflicts = append(conflicts, b)
		}
	}
	return AvailabilityResult{Available: len(conflicts) == 0, Conflicts: conflicts}
}
