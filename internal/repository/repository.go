package repository

import (
	"context"
	"time"

	"bookingdesk-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	GetByID(ctx context.Context, id int64) (*domain.Activity, error)
	Update(ctx context.Context, activity *domain.Activity) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	// Update rewrites the session row and replaces its dates in one
	// transaction.
	Update(ctx context.Context, session *domain.Session) error
	// DeleteCascade removes the session with its signups and status
	// records in one transaction.
	DeleteCascade(ctx context.Context, id int64) error
	ListByActivity(ctx context.Context, activityID int64) ([]domain.Session, error)
	// ListUpcoming returns date-known sessions of the activity whose
	// earliest date starts after the given time.
	ListUpcoming(ctx context.Context, activityID int64, after time.Time) ([]domain.Session, error)
}

type SignupRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Signup, error)
	// FindBySessionAndUser returns nil without error when no signup
	// exists for the pair.
	FindBySessionAndUser(ctx context.Context, sessionID, userID int64) (*domain.Signup, error)
	// Register inserts a new signup together with its first status
	// record in one transaction, so a failed status write leaves no
	// registrant-less signup behind.
	Register(ctx context.Context, signup *domain.Signup, record *domain.StatusRecord) error
	Update(ctx context.Context, signup *domain.Signup) error
	MarkReminderMailed(ctx context.Context, signupID int64, mailedAt time.Time) error

	// Attendees returns the roster in fairness order: current status at
	// or above the roster cutoff, ordered by earliest booked/waitlisted
	// qualification, tie-broken by status record insertion order.
	Attendees(ctx context.Context, sessionID int64) ([]domain.Attendee, error)
	// ActiveSignups lists registrants at or above the REQUESTED cutoff,
	// used by the session-deletion cascade.
	ActiveSignups(ctx context.Context, sessionID int64) ([]domain.Attendee, error)
	CountByStatus(ctx context.Context, sessionID int64, min domain.Status) (int32, error)
	Cancellations(ctx context.Context, sessionID int64) ([]domain.Cancellation, error)
	Requests(ctx context.Context, sessionID int64) ([]domain.Request, error)
	Declined(ctx context.Context, sessionID int64) ([]domain.Request, error)
	UserBookings(ctx context.Context, activityID, userID int64, includeCancelled bool) ([]domain.UserBooking, error)
	// CancelAllActive appends a USER_CANCELLED record for every active
	// signup of the session in a single transaction (all-or-nothing),
	// returning the affected signup ids.
	CancelAllActive(ctx context.Context, sessionID, actorID int64, reason string) ([]int64, error)
}

type StatusHistoryRepository interface {
	// Append inserts the record with superceded=false and marks every
	// other non-superceded record of the signup superseded, atomically.
	Append(ctx context.Context, record *domain.StatusRecord) error
	// Current returns nil without error when the signup has no status.
	Current(ctx context.Context, signupID int64) (*domain.StatusRecord, error)
	History(ctx context.Context, signupID int64) ([]domain.StatusRecord, error)
}
