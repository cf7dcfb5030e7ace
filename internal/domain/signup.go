package domain

import "time"

// NotificationType is a bitmask of the channels a registrant wants
// notices on, plus modifiers describing the kind of notice.
type NotificationType int32

const (
	NotifyICal NotificationType = 1
	NotifyText NotificationType = 2
	NotifyBoth NotificationType = NotifyICal | NotifyText
	// Modifiers set by the workflows, not by registrants.
	NotifyInvite NotificationType = 4
	NotifyCancel NotificationType = 8
)

// Normalize guarantees at least one delivery channel is set.
func (n NotificationType) Normalize() NotificationType {
	if n&NotifyBoth == 0 {
		return n | NotifyText
	}
	return n
}

// Signup is a user's registration record for one session. At most one
// row exists per (session, user); re-signups reuse it.
type Signup struct {
	ID               int64            `json:"id"`
	SessionID        int64            `json:"session_id"`
	UserID           int64            `json:"user_id"`
	DiscountCode     *string          `json:"discount_code,omitempty"`
	NotificationType NotificationType `json:"notification_type"`
	MailedReminder   *time.Time       `json:"mailed_reminder,omitempty"`
	CreatedOn        time.Time        `json:"created_on"`
	UpdatedOn        time.Time        `json:"updated_on"`
}

// StatusRecord is one entry in a signup's append-only status history.
// For a given signup exactly one record has Superceded=false; appending
// a new record supersedes all others in the same transaction.
type StatusRecord struct {
	ID         int64     `json:"id"`
	SignupID   int64     `json:"signup_id"`
	Status     Status    `json:"status"`
	CreatedBy  int64     `json:"created_by"`
	Note       string    `json:"note"`
	Grade      *float64  `json:"grade,omitempty"`
	Superceded bool      `json:"superceded"`
	CreatedOn  time.Time `json:"created_on"`
}

// Attendee is a roster row: a registrant with their current status, in
// fairness order (earliest booked/waitlisted qualification first).
type Attendee struct {
	User     User       `json:"user"`
	Signup   Signup     `json:"signup"`
	Status   Status     `json:"status"`
	Grade    *float64   `json:"grade,omitempty"`
	SignedUp *time.Time `json:"signed_up,omitempty"`
}

// Cancellation is a row of the cancellation listing.
type Cancellation struct {
	User      User       `json:"user"`
	SignupID  int64      `json:"signup_id"`
	SignedUp  *time.Time `json:"signed_up,omitempty"`
	Cancelled time.Time  `json:"cancelled"`
	Reason    string     `json:"reason"`
}

// Request is a row of the pending-approval (or declined) listing.
type Request struct {
	User      User      `json:"user"`
	SignupID  int64     `json:"signup_id"`
	Requested time.Time `json:"requested"`
}

// UserBooking is one of a user's submissions across an activity.
type UserBooking struct {
	SignupID  int64     `json:"signup_id"`
	SessionID int64     `json:"session_id"`
	Status    Status    `json:"status"`
	CreatedOn time.Time `json:"created_on"`
}
