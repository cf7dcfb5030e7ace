package domain

import "time"

// Activity is the bookable activity owning zero or more sessions. It
// carries the approval flag and the notification templates; the engine
// reads it but never writes it.
type Activity struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ApprovalRequired bool   `json:"approval_required"`
	UserCalendar     bool   `json:"user_calendar"`
	// ThirdPartyRecipients is a comma-separated list of extra addresses
	// copied on confirmations (and cancellations when ThirdPartyWaitlist).
	ThirdPartyRecipients string `json:"third_party_recipients"`
	ThirdPartyWaitlist   bool   `json:"third_party_waitlist"`

	ConfirmationSubject     string `json:"confirmation_subject"`
	ConfirmationMessage     string `json:"confirmation_message"`
	ConfirmationManagerCopy string `json:"confirmation_manager_copy"`
	WaitlistedSubject       string `json:"waitlisted_subject"`
	WaitlistedMessage       string `json:"waitlisted_message"`
	RequestSubject          string `json:"request_subject"`
	RequestMessage          string `json:"request_message"`
	RequestManagerCopy      string `json:"request_manager_copy"`
	CancellationSubject     string `json:"cancellation_subject"`
	CancellationMessage     string `json:"cancellation_message"`
	CancellationManagerCopy string `json:"cancellation_manager_copy"`
	ReminderSubject         string `json:"reminder_subject"`
	ReminderMessage         string `json:"reminder_message"`
	ReminderManagerCopy     string `json:"reminder_manager_copy"`

	// ReminderPeriodDays is how many days before the session start the
	// booking reminder goes out.
	ReminderPeriodDays int32     `json:"reminder_period_days"`
	CreatedOn          time.Time `json:"created_on"`
	UpdatedOn          time.Time `json:"updated_on"`
}

// ManagerNeeded reports whether signups on this activity require a
// resolvable manager email: either approval is required (the request
// notice must reach the manager) or a manager copy is configured on any
// template.
func (a *Activity) ManagerNeeded() bool {
	return a.ApprovalRequired ||
		a.ConfirmationManagerCopy != "" ||
		a.RequestManagerCopy != "" ||
		a.CancellationManagerCopy != "" ||
		a.ReminderManagerCopy != ""
}
