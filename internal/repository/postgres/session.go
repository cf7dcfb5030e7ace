package postgres

import (
	"context"
	"database/sql"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "session create", Err: err}
	}

	now := time.Now()
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sessions (activity_id, capacity, dates_known, allow_overbook, allow_cancellations, details, created_on, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		s.ActivityID, s.Capacity, s.DatesKnown, s.AllowOverbook, s.AllowCancellations, s.Details, now).Scan(&s.ID)
	if err == nil {
		err = insertDates(ctx, tx, s)
	}
	if err != nil {
		tx.Rollback()
		return &domain.PersistenceError{Op: "session create", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "session create", Err: err}
	}
	s.CreatedOn = now
	s.UpdatedOn = now
	return nil
}

func insertDates(ctx context.Context, tx *sql.Tx, s *domain.Session) error {
	for i := range s.Dates {
		d := &s.Dates[i]
		d.SessionID = s.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO session_dates (session_id, start_time, finish_time) VALUES ($1, $2, $3) RETURNING id`,
			d.SessionID, d.Start, d.Finish).Scan(&d.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	s := &domain.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, activity_id, capacity, dates_known, allow_overbook, allow_cancellations, details, created_on, updated_on
		 FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.ActivityID, &s.Capacity, &s.DatesKnown, &s.AllowOverbook, &s.AllowCancellations, &s.Details, &s.CreatedOn, &s.UpdatedOn)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "session get", Err: err}
	}

	dates, err := r.dates(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Dates = dates
	return s, nil
}

func (r *sessionRepository) dates(ctx context.Context, sessionID int64) ([]domain.SessionDate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, start_time, finish_time FROM session_dates WHERE session_id = $1 ORDER BY start_time ASC`,
		sessionID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "session dates", Err: err}
	}
	defer rows.Close()

	var dates []domain.SessionDate
	for rows.Next() {
		var d domain.SessionDate
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Start, &d.Finish); err != nil {
			return nil, &domain.PersistenceError{Op: "session dates", Err: err}
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "session dates", Err: err}
	}
	return dates, nil
}

// Update rewrites the session row and replaces its dates together.
func (r *sessionRepository) Update(ctx context.Context, s *domain.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "session update", Err: err}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET capacity = $1, dates_known = $2, allow_overbook = $3, allow_cancellations = $4, details = $5, updated_on = $6 WHERE id = $7`,
		s.Capacity, s.DatesKnown, s.AllowOverbook, s.AllowCancellations, s.Details, time.Now(), s.ID)
	if err == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM session_dates WHERE session_id = $1`, s.ID)
	}
	if err == nil {
		err = insertDates(ctx, tx, s)
	}
	if err != nil {
		tx.Rollback()
		return &domain.PersistenceError{Op: "session update", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "session update", Err: err}
	}
	return nil
}

// DeleteCascade removes the session together with its signups, their
// status records and its dates in one transaction.
func (r *sessionRepository) DeleteCascade(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "session delete", Err: err}
	}

	statements := []string{
		`DELETE FROM signup_status WHERE signup_id IN (SELECT id FROM signups WHERE session_id = $1)`,
		`DELETE FROM signups WHERE session_id = $1`,
		`DELETE FROM session_dates WHERE session_id = $1`,
		`DELETE FROM sessions WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			tx.Rollback()
			return &domain.PersistenceError{Op: "session delete", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "session delete", Err: err}
	}
	return nil
}

func (r *sessionRepository) ListByActivity(ctx context.Context, activityID int64) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT id, activity_id, capacity, dates_known, allow_overbook, allow_cancellations, details, created_on, updated_on
		 FROM sessions WHERE activity_id = $1 ORDER BY id ASC`, activityID)
}

func (r *sessionRepository) ListUpcoming(ctx context.Context, activityID int64, after time.Time) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT s.id, s.activity_id, s.capacity, s.dates_known, s.allow_overbook, s.allow_cancellations, s.details, s.created_on, s.updated_on
		 FROM sessions s
		 JOIN (
		     SELECT session_id, MIN(start_time) AS first_start
		     FROM session_dates GROUP BY session_id
		 ) d ON d.session_id = s.id
		 WHERE s.activity_id = $1 AND s.dates_known = TRUE AND d.first_start > $2
		 ORDER BY d.first_start ASC`, activityID, after)
}

func (r *sessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "session list", Err: err}
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.ActivityID, &s.Capacity, &s.DatesKnown, &s.AllowOverbook, &s.AllowCancellations, &s.Details, &s.CreatedOn, &s.UpdatedOn); err != nil {
			return nil, &domain.PersistenceError{Op: "session list", Err: err}
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "session list", Err: err}
	}

	for i := range sessions {
		dates, err := r.dates(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Dates = dates
	}
	return sessions, nil
}
