package service

import (
	"context"

	"bookingdesk-backend/internal/domain"
)

// SignupResult is the outcome of a signup or approval. NotificationErr,
// when set, is a *domain.NotificationError for a notice that failed after
// the booking state committed; the booking itself is final.
type SignupResult struct {
	Signup          *domain.Signup
	Status          domain.Status
	NotificationErr error
}

type BookingService interface {
	// Signup registers the user on the session, deciding BOOKED vs
	// WAITLISTED (or REQUESTED when approval is required) from the
	// session's current capacity.
	Signup(ctx context.Context, sessionID, userID int64, discountCode string, notify domain.NotificationType) (*SignupResult, error)
	// Cancel moves the user's signup to USER_CANCELLED and backfills the
	// vacated seat from the waitlist. A missing signup is a no-op.
	Cancel(ctx context.Context, sessionID, userID int64, reason string) error
	// Approve moves a requested signup to APPROVED and re-enters the
	// signup path to place the registrant with current capacity.
	Approve(ctx context.Context, sessionID, signupID, actorID int64) (*SignupResult, error)
	// Decline moves a requested signup to DECLINED. No reconcile runs: a
	// declined request never held a seat.
	Decline(ctx context.Context, sessionID, signupID, actorID int64) error
	// ReconcileCapacity rebalances the BOOKED/WAITLISTED partition after
	// direct capacity or date edits.
	ReconcileCapacity(ctx context.Context, sessionID int64) error

	CreateSession(ctx context.Context, session *domain.Session) error
	UpdateSession(ctx context.Context, session *domain.Session) error
	// DeleteSession force-cancels every active signup, notifies the
	// registrants and removes the session with its signups and history.
	DeleteSession(ctx context.Context, sessionID, actorID int64) error

	ListAttendees(ctx context.Context, sessionID int64) ([]domain.Attendee, error)
	ListWaitlist(ctx context.Context, sessionID int64) ([]domain.Attendee, error)
	ListCancellations(ctx context.Context, sessionID int64) ([]domain.Cancellation, error)
	ListRequests(ctx context.Context, sessionID int64) ([]domain.Request, error)
	ListDeclined(ctx context.Context, sessionID int64) ([]domain.Request, error)
	UserBookings(ctx context.Context, activityID, userID int64, includeCancelled bool) ([]domain.UserBooking, error)
	StatusHistory(ctx context.Context, signupID int64) ([]domain.StatusRecord, error)
}

type AttendanceService interface {
	// TakeAttendance records the given marks. Marks commit one by one;
	// a failure leaves earlier marks of the same call in place.
	TakeAttendance(ctx context.Context, sessionID int64, marks map[int64]domain.Status, actorID int64) error
}

// EmailService sends registrant notices. Implementations deliver a
// manager copy when the activity template defines manager text and the
// user has a manager email.
type EmailService interface {
	SendBookingConfirmation(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session, waitlisted bool, notify domain.NotificationType) error
	// SendRequestNotice must reach both the user and their manager; an
	// unreachable manager is an error, since the approval step is driven
	// by that email.
	SendRequestNotice(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session) error
	SendCancellationNotice(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session, reason string, notify domain.NotificationType) error
	SendBookingReminder(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session) error
	SendNoShowNotice(ctx context.Context, user *domain.User, activity *domain.Activity, upcoming []domain.Session) error
}

// CalendarService syncs per-user calendar entries. Implementations live
// outside the core; failures are reported but never roll back bookings.
type CalendarService interface {
	AddSessionEntry(ctx context.Context, session *domain.Session, activity *domain.Activity, userID int64, description string) error
	RemoveSessionEntry(ctx context.Context, session *domain.Session, userID int64) error
}

// GradeSink receives attendance grades for projection into an external
// gradebook.
type GradeSink interface {
	PostGrade(ctx context.Context, activityID, userID int64, grade float64) error
}
