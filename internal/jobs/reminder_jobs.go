package jobs

import (
	"context"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/logger"
)

// SendBookingReminders emails booked registrants whose session starts
// within the activity's reminder window and who have not been reminded
// yet. Each signup is reminded at most once: the mailed timestamp is
// written right after the send.
func (jr *JobRunner) SendBookingReminders() {
	jr.runWithRecovery("SendBookingReminders", func() {
		ctx := context.Background()

		// Booked signups on dated sessions inside the reminder window.
		query := `
			SELECT s.id, s.session_id, s.user_id, se.activity_id
			FROM signups s
			JOIN signup_status ss ON ss.signup_id = s.id
				AND ss.superceded = FALSE AND ss.status_code = $1
			JOIN sessions se ON s.session_id = se.id AND se.dates_known = TRUE
			JOIN activities a ON se.activity_id = a.id
			JOIN (
				SELECT session_id, MIN(start_time) AS first_start
				FROM session_dates
				GROUP BY session_id
			) sd ON sd.session_id = se.id
			WHERE s.mailed_reminder IS NULL
			  AND sd.first_start > $2
			  AND sd.first_start <= $2 + (a.reminder_period_days * INTERVAL '1 day')
		`

		now := time.Now()
		rows, err := jr.db.QueryContext(ctx, query, domain.StatusBooked, now)
		if err != nil {
			logger.Error("Failed to query reminder candidates", "error", err)
			return
		}
		defer rows.Close()

		type candidate struct {
			signupID   int64
			sessionID  int64
			userID     int64
			activityID int64
		}
		var candidates []candidate
		for rows.Next() {
			var c candidate
			if err := rows.Scan(&c.signupID, &c.sessionID, &c.userID, &c.activityID); err != nil {
				logger.Error("Failed to scan reminder candidate", "error", err)
				continue
			}
			candidates = append(candidates, c)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating reminder candidates", "error", err)
			return
		}

		count := 0
		for _, c := range candidates {
			user, err := jr.store.Users.GetByID(ctx, c.userID)
			if err != nil {
				logger.Error("Failed to load reminder user", "signup_id", c.signupID, "error", err)
				continue
			}
			activity, err := jr.store.Activities.GetByID(ctx, c.activityID)
			if err != nil {
				logger.Error("Failed to load reminder activity", "signup_id", c.signupID, "error", err)
				continue
			}
			session, err := jr.store.Sessions.GetByID(ctx, c.sessionID)
			if err != nil {
				logger.Error("Failed to load reminder session", "signup_id", c.signupID, "error", err)
				continue
			}

			if err := jr.services.Email.SendBookingReminder(ctx, user, activity, session); err != nil {
				logger.Error("Failed to send booking reminder",
					"signup_id", c.signupID,
					"user_id", c.userID,
					"error", err)
				continue
			}
			if err := jr.store.Signups.MarkReminderMailed(ctx, c.signupID, now); err != nil {
				logger.Error("Failed to record mailed reminder", "signup_id", c.signupID, "error", err)
				continue
			}

			count++
			logger.Debug("Sent booking reminder",
				"signup_id", c.signupID,
				"session_id", c.sessionID,
				"user_id", c.userID)
		}

		logger.Info("Booking reminders sent", "count", count)
	})
}
