package domain

// Status is a signup lifecycle status. The numeric order is load-bearing:
// queries and workflow checks select lifecycle subsets with >= comparisons,
// so new codes must slot into the existing order.
type Status int32

const (
	StatusUserCancelled     Status = 10
	StatusSessionCancelled  Status = 20 // reserved, never issued
	StatusDeclined          Status = 30
	StatusRequested         Status = 40
	StatusApproved          Status = 50
	StatusWaitlisted        Status = 60
	StatusBooked            Status = 70
	StatusNoShow            Status = 80
	StatusPartiallyAttended Status = 90
	StatusFullyAttended     Status = 100
)

// Lifecycle cutoffs. The roster (fairness order, capacity counting) uses
// the APPROVED cutoff; per-user submission listings and the deletion
// cascade use the REQUESTED cutoff. These intentionally stay separate
// constants rather than one unified rule.
const (
	StatusActiveCutoff Status = StatusRequested
	StatusRosterCutoff Status = StatusApproved
)

func (s Status) String() string {
	switch s {
	case StatusUserCancelled:
		return "user_cancelled"
	case StatusSessionCancelled:
		return "session_cancelled"
	case StatusDeclined:
		return "declined"
	case StatusRequested:
		return "requested"
	case StatusApproved:
		return "approved"
	case StatusWaitlisted:
		return "waitlisted"
	case StatusBooked:
		return "booked"
	case StatusNoShow:
		return "no_show"
	case StatusPartiallyAttended:
		return "partially_attended"
	case StatusFullyAttended:
		return "fully_attended"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the defined status codes.
func (s Status) Valid() bool {
	switch s {
	case StatusUserCancelled, StatusSessionCancelled, StatusDeclined,
		StatusRequested, StatusApproved, StatusWaitlisted, StatusBooked,
		StatusNoShow, StatusPartiallyAttended, StatusFullyAttended:
		return true
	}
	return false
}

// IsAttendance reports whether s is an attendance outcome.
func (s Status) IsAttendance() bool {
	return s == StatusNoShow || s == StatusPartiallyAttended || s == StatusFullyAttended
}

// AttendanceGrade maps an attendance status to its grade.
// NO_SHOW scores 0, PARTIALLY_ATTENDED 50, FULLY_ATTENDED 100.
func AttendanceGrade(s Status) (float64, bool) {
	switch s {
	case StatusNoShow:
		return 0, true
	case StatusPartiallyAttended:
		return 50, true
	case StatusFullyAttended:
		return 100, true
	}
	return 0, false
}
