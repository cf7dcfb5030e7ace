package postgres

import (
	"context"
	"database/sql"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/repository"
)

type signupRepository struct {
	db *sql.DB
}

func NewSignupRepository(db *sql.DB) repository.SignupRepository {
	return &signupRepository{db: db}
}

const signupColumns = `id, session_id, user_id, discount_code, notification_type, mailed_reminder, created_on, updated_on`

func scanSignup(row interface{ Scan(...interface{}) error }, su *domain.Signup) error {
	return row.Scan(&su.ID, &su.SessionID, &su.UserID, &su.DiscountCode, &su.NotificationType, &su.MailedReminder, &su.CreatedOn, &su.UpdatedOn)
}

func (r *signupRepository) GetByID(ctx context.Context, id int64) (*domain.Signup, error) {
	su := &domain.Signup{}
	err := scanSignup(r.db.QueryRowContext(ctx,
		`SELECT `+signupColumns+` FROM signups WHERE id = $1`, id), su)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup get", Err: err}
	}
	return su, nil
}

func (r *signupRepository) FindBySessionAndUser(ctx context.Context, sessionID, userID int64) (*domain.Signup, error) {
	su := &domain.Signup{}
	err := scanSignup(r.db.QueryRowContext(ctx,
		`SELECT `+signupColumns+` FROM signups WHERE session_id = $1 AND user_id = $2`, sessionID, userID), su)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup find", Err: err}
	}
	return su, nil
}

// Register creates the signup shell and its first status record in one
// transaction, so a failed status write never leaves a signup without a
// registration state.
func (r *signupRepository) Register(ctx context.Context, su *domain.Signup, rec *domain.StatusRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "signup register", Err: err}
	}

	now := time.Now()
	err = tx.QueryRowContext(ctx,
		`INSERT INTO signups (session_id, user_id, discount_code, notification_type, mailed_reminder, created_on, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		su.SessionID, su.UserID, su.DiscountCode, su.NotificationType, su.MailedReminder, now).Scan(&su.ID)
	if err == nil {
		rec.SignupID = su.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO signup_status (signup_id, status_code, created_by, note, grade, superceded, created_on)
			 VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id`,
			rec.SignupID, rec.Status, rec.CreatedBy, rec.Note, rec.Grade, now).Scan(&rec.ID)
	}
	if err != nil {
		tx.Rollback()
		return &domain.PersistenceError{Op: "signup register", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "signup register", Err: err}
	}

	su.CreatedOn = now
	su.UpdatedOn = now
	rec.CreatedOn = now
	return nil
}

func (r *signupRepository) Update(ctx context.Context, su *domain.Signup) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE signups SET discount_code = $1, notification_type = $2, mailed_reminder = $3, updated_on = $4 WHERE id = $5`,
		su.DiscountCode, su.NotificationType, su.MailedReminder, time.Now(), su.ID)
	if err != nil {
		return &domain.PersistenceError{Op: "signup update", Err: err}
	}
	return nil
}

func (r *signupRepository) MarkReminderMailed(ctx context.Context, signupID int64, mailedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE signups SET mailed_reminder = $1, updated_on = $1 WHERE id = $2`, mailedAt, signupID)
	if err != nil {
		return &domain.PersistenceError{Op: "signup mark reminder", Err: err}
	}
	return nil
}

// rosterQuery selects current registrants at or above the cutoff in
// fairness order: earliest booked/waitlisted qualification first, ties
// broken by status record insertion order.
const rosterQuery = `
	SELECT u.id, u.name, u.email, u.manager_email, u.trainer,
	       su.id, su.session_id, su.user_id, su.discount_code, su.notification_type, su.mailed_reminder, su.created_on, su.updated_on,
	       ss.status_code, ss.grade, q.signed_up
	FROM signups su
	JOIN signup_status ss ON ss.signup_id = su.id AND ss.superceded = FALSE
	JOIN users u ON u.id = su.user_id
	LEFT JOIN (
	    SELECT ss2.signup_id, MIN(ss2.created_on) AS signed_up
	    FROM signup_status ss2
	    JOIN signups su2 ON su2.id = ss2.signup_id AND su2.session_id = $1
	    WHERE ss2.status_code IN ($2, $3)
	    GROUP BY ss2.signup_id
	) q ON q.signup_id = su.id
	WHERE su.session_id = $1 AND ss.status_code >= $4
	ORDER BY q.signed_up ASC NULLS LAST, ss.created_on ASC, ss.id ASC`

func (r *signupRepository) roster(ctx context.Context, sessionID int64, cutoff domain.Status) ([]domain.Attendee, error) {
	rows, err := r.db.QueryContext(ctx, rosterQuery,
		sessionID, domain.StatusBooked, domain.StatusWaitlisted, cutoff)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup roster", Err: err}
	}
	defer rows.Close()

	var attendees []domain.Attendee
	for rows.Next() {
		var a domain.Attendee
		err := rows.Scan(&a.User.ID, &a.User.Name, &a.User.Email, &a.User.ManagerEmail, &a.User.Trainer,
			&a.Signup.ID, &a.Signup.SessionID, &a.Signup.UserID, &a.Signup.DiscountCode, &a.Signup.NotificationType,
			&a.Signup.MailedReminder, &a.Signup.CreatedOn, &a.Signup.UpdatedOn,
			&a.Status, &a.Grade, &a.SignedUp)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "signup roster", Err: err}
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "signup roster", Err: err}
	}
	return attendees, nil
}

func (r *signupRepository) Attendees(ctx context.Context, sessionID int64) ([]domain.Attendee, error) {
	return r.roster(ctx, sessionID, domain.StatusRosterCutoff)
}

func (r *signupRepository) ActiveSignups(ctx context.Context, sessionID int64) ([]domain.Attendee, error) {
	return r.roster(ctx, sessionID, domain.StatusActiveCutoff)
}

func (r *signupRepository) CountByStatus(ctx context.Context, sessionID int64, min domain.Status) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx,
		`SELECT count(ss.id)
		 FROM signups su
		 JOIN signup_status ss ON ss.signup_id = su.id
		 WHERE su.session_id = $1 AND ss.superceded = FALSE AND ss.status_code >= $2`,
		sessionID, min).Scan(&count)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "signup count", Err: err}
	}
	return count, nil
}

func (r *signupRepository) Cancellations(ctx context.Context, sessionID int64) ([]domain.Cancellation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, su.id, b.signed_up, c.created_on, c.note
		 FROM signups su
		 JOIN users u ON u.id = su.user_id
		 JOIN signup_status c ON c.signup_id = su.id AND c.superceded = FALSE AND c.status_code = $2
		 LEFT JOIN (
		     SELECT signup_id, MAX(created_on) AS signed_up
		     FROM signup_status
		     WHERE status_code IN ($3, $4, $5) AND superceded = TRUE
		     GROUP BY signup_id
		 ) b ON b.signup_id = su.id
		 WHERE su.session_id = $1
		 ORDER BY u.name ASC, c.created_on ASC`,
		sessionID, domain.StatusUserCancelled, domain.StatusBooked, domain.StatusWaitlisted, domain.StatusRequested)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup cancellations", Err: err}
	}
	defer rows.Close()

	var cancellations []domain.Cancellation
	for rows.Next() {
		var c domain.Cancellation
		if err := rows.Scan(&c.User.ID, &c.User.Name, &c.User.Email, &c.SignupID, &c.SignedUp, &c.Cancelled, &c.Reason); err != nil {
			return nil, &domain.PersistenceError{Op: "signup cancellations", Err: err}
		}
		cancellations = append(cancellations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "signup cancellations", Err: err}
	}
	return cancellations, nil
}

func (r *signupRepository) requestsByStatus(ctx context.Context, sessionID int64, status domain.Status) ([]domain.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.manager_email, su.id, ss.created_on
		 FROM signups su
		 JOIN signup_status ss ON ss.signup_id = su.id AND ss.superceded = FALSE AND ss.status_code = $2
		 JOIN users u ON u.id = su.user_id
		 WHERE su.session_id = $1
		 ORDER BY u.name ASC, ss.created_on ASC`,
		sessionID, status)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup requests", Err: err}
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		var req domain.Request
		if err := rows.Scan(&req.User.ID, &req.User.Name, &req.User.Email, &req.User.ManagerEmail, &req.SignupID, &req.Requested); err != nil {
			return nil, &domain.PersistenceError{Op: "signup requests", Err: err}
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "signup requests", Err: err}
	}
	return requests, nil
}

func (r *signupRepository) Requests(ctx context.Context, sessionID int64) ([]domain.Request, error) {
	return r.requestsByStatus(ctx, sessionID, domain.StatusRequested)
}

func (r *signupRepository) Declined(ctx context.Context, sessionID int64) ([]domain.Request, error) {
	return r.requestsByStatus(ctx, sessionID, domain.StatusDeclined)
}

func (r *signupRepository) UserBookings(ctx context.Context, activityID, userID int64, includeCancelled bool) ([]domain.UserBooking, error) {
	query := `
		SELECT su.id, su.session_id, ss.status_code, ss.created_on
		FROM sessions s
		JOIN signups su ON su.session_id = s.id
		JOIN signup_status ss ON ss.signup_id = su.id AND ss.superceded = FALSE
		WHERE s.activity_id = $1 AND su.user_id = $2`
	args := []interface{}{activityID, userID}
	if !includeCancelled {
		query += ` AND ss.status_code >= $3 AND ss.status_code < $4`
		args = append(args, domain.StatusActiveCutoff, domain.StatusNoShow)
	}
	query += ` ORDER BY ss.created_on ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup user bookings", Err: err}
	}
	defer rows.Close()

	var bookings []domain.UserBooking
	for rows.Next() {
		var b domain.UserBooking
		if err := rows.Scan(&b.SignupID, &b.SessionID, &b.Status, &b.CreatedOn); err != nil {
			return nil, &domain.PersistenceError{Op: "signup user bookings", Err: err}
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "signup user bookings", Err: err}
	}
	return bookings, nil
}

// CancelAllActive supersedes every active status record of the session
// and appends USER_CANCELLED for each affected signup in one transaction.
// Used by session deletion; either every forced cancellation commits or
// none do.
func (r *signupRepository) CancelAllActive(ctx context.Context, sessionID, actorID int64, reason string) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "signup cancel all", Err: err}
	}

	rows, err := tx.QueryContext(ctx,
		`UPDATE signup_status ss SET superceded = TRUE
		 FROM signups su
		 WHERE su.id = ss.signup_id AND su.session_id = $1 AND ss.superceded = FALSE AND ss.status_code >= $2
		 RETURNING ss.signup_id`,
		sessionID, domain.StatusActiveCutoff)
	if err != nil {
		tx.Rollback()
		return nil, &domain.PersistenceError{Op: "signup cancel all", Err: err}
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			tx.Rollback()
			return nil, &domain.PersistenceError{Op: "signup cancel all", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		tx.Rollback()
		return nil, &domain.PersistenceError{Op: "signup cancel all", Err: err}
	}
	rows.Close()

	now := time.Now()
	for _, id := range ids {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO signup_status (signup_id, status_code, created_by, note, superceded, created_on)
			 VALUES ($1, $2, $3, $4, FALSE, $5)`,
			id, domain.StatusUserCancelled, actorID, reason, now)
		if err != nil {
			tx.Rollback()
			return nil, &domain.PersistenceError{Op: "signup cancel all", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, &domain.PersistenceError{Op: "signup cancel all", Err: err}
	}
	return ids, nil
}
