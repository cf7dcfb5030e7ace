package postgres

import (
	"context"
	"database/sql"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/repository"
)

type statusHistoryRepository struct {
	db *sql.DB
}

func NewStatusHistoryRepository(db *sql.DB) repository.StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

// Append inserts the new record and supersedes all prior current records
// of the signup in one transaction. Either both writes commit or neither
// does; a reader never sees two current records for a signup.
func (r *statusHistoryRepository) Append(ctx context.Context, rec *domain.StatusRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "status append", Err: err}
	}

	now := time.Now()
	err = tx.QueryRowContext(ctx,
		`INSERT INTO signup_status (signup_id, status_code, created_by, note, grade, superceded, created_on)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id`,
		rec.SignupID, rec.Status, rec.CreatedBy, rec.Note, rec.Grade, now).Scan(&rec.ID)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE signup_status SET superceded = TRUE WHERE signup_id = $1 AND superceded = FALSE AND id <> $2`,
			rec.SignupID, rec.ID)
	}
	if err != nil {
		tx.Rollback()
		return &domain.PersistenceError{Op: "status append", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "status append", Err: err}
	}

	rec.Superceded = false
	rec.CreatedOn = now
	return nil
}

func (r *statusHistoryRepository) Current(ctx context.Context, signupID int64) (*domain.StatusRecord, error) {
	rec := &domain.StatusRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, signup_id, status_code, created_by, note, grade, superceded, created_on
		 FROM signup_status WHERE signup_id = $1 AND superceded = FALSE`,
		signupID).Scan(&rec.ID, &rec.SignupID, &rec.Status, &rec.CreatedBy, &rec.Note, &rec.Grade, &rec.Superceded, &rec.CreatedOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "status current", Err: err}
	}
	return rec, nil
}

func (r *statusHistoryRepository) History(ctx context.Context, signupID int64) ([]domain.StatusRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, signup_id, status_code, created_by, note, grade, superceded, created_on
		 FROM signup_status WHERE signup_id = $1 ORDER BY created_on ASC, id ASC`,
		signupID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "status history", Err: err}
	}
	defer rows.Close()

	var records []domain.StatusRecord
	for rows.Next() {
		var rec domain.StatusRecord
		if err := rows.Scan(&rec.ID, &rec.SignupID, &rec.Status, &rec.CreatedBy, &rec.Note, &rec.Grade, &rec.Superceded, &rec.CreatedOn); err != nil {
			return nil, &domain.PersistenceError{Op: "status history", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "status history", Err: err}
	}
	return records, nil
}
