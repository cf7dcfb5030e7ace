package postgres

import (
	"context"
	"database/sql"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/repository"
)

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, name, approval_required, user_calendar, third_party_recipients, third_party_waitlist,
	confirmation_subject, confirmation_message, confirmation_manager_copy,
	waitlisted_subject, waitlisted_message,
	request_subject, request_message, request_manager_copy,
	cancellation_subject, cancellation_message, cancellation_manager_copy,
	reminder_subject, reminder_message, reminder_manager_copy,
	reminder_period_days, created_on, updated_on`

func (r *activityRepository) Create(ctx context.Context, a *domain.Activity) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO activities (name, approval_required, user_calendar, third_party_recipients, third_party_waitlist,
		     confirmation_subject, confirmation_message, confirmation_manager_copy,
		     waitlisted_subject, waitlisted_message,
		     request_subject, request_message, request_manager_copy,
		     cancellation_subject, cancellation_message, cancellation_manager_copy,
		     reminder_subject, reminder_message, reminder_manager_copy,
		     reminder_period_days, created_on, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21)
		 RETURNING id`,
		a.Name, a.ApprovalRequired, a.UserCalendar, a.ThirdPartyRecipients, a.ThirdPartyWaitlist,
		a.ConfirmationSubject, a.ConfirmationMessage, a.ConfirmationManagerCopy,
		a.WaitlistedSubject, a.WaitlistedMessage,
		a.RequestSubject, a.RequestMessage, a.RequestManagerCopy,
		a.CancellationSubject, a.CancellationMessage, a.CancellationManagerCopy,
		a.ReminderSubject, a.ReminderMessage, a.ReminderManagerCopy,
		a.ReminderPeriodDays, now).Scan(&a.ID)
	if err != nil {
		return &domain.PersistenceError{Op: "activity create", Err: err}
	}
	a.CreatedOn = now
	a.UpdatedOn = now
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	a := &domain.Activity{}
	err := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.ApprovalRequired, &a.UserCalendar, &a.ThirdPartyRecipients, &a.ThirdPartyWaitlist,
			&a.ConfirmationSubject, &a.ConfirmationMessage, &a.ConfirmationManagerCopy,
			&a.WaitlistedSubject, &a.WaitlistedMessage,
			&a.RequestSubject, &a.RequestMessage, &a.RequestManagerCopy,
			&a.CancellationSubject, &a.CancellationMessage, &a.CancellationManagerCopy,
			&a.ReminderSubject, &a.ReminderMessage, &a.ReminderManagerCopy,
			&a.ReminderPeriodDays, &a.CreatedOn, &a.UpdatedOn)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "activity get", Err: err}
	}
	return a, nil
}

func (r *activityRepository) Update(ctx context.Context, a *domain.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activities SET name = $1, approval_required = $2, user_calendar = $3, third_party_recipients = $4,
		     third_party_waitlist = $5,
		     confirmation_subject = $6, confirmation_message = $7, confirmation_manager_copy = $8,
		     waitlisted_subject = $9, waitlisted_message = $10,
		     request_subject = $11, request_message = $12, request_manager_copy = $13,
		     cancellation_subject = $14, cancellation_message = $15, cancellation_manager_copy = $16,
		     reminder_subject = $17, reminder_message = $18, reminder_manager_copy = $19,
		     reminder_period_days = $20, updated_on = $21
		 WHERE id = $22`,
		a.Name, a.ApprovalRequired, a.UserCalendar, a.ThirdPartyRecipients, a.ThirdPartyWaitlist,
		a.ConfirmationSubject, a.ConfirmationMessage, a.ConfirmationManagerCopy,
		a.WaitlistedSubject, a.WaitlistedMessage,
		a.RequestSubject, a.RequestMessage, a.RequestManagerCopy,
		a.CancellationSubject, a.CancellationMessage, a.CancellationManagerCopy,
		a.ReminderSubject, a.ReminderMessage, a.ReminderManagerCopy,
		a.ReminderPeriodDays, time.Now(), a.ID)
	if err != nil {
		return &domain.PersistenceError{Op: "activity update", Err: err}
	}
	return nil
}
