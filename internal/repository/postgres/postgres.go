package postgres

import (
	"database/sql"

	"bookingdesk-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Store bundles the postgres-backed repositories over one connection pool.
type Store struct {
	db *sql.DB

	Users         repository.UserRepository
	Activities    repository.ActivityRepository
	Sessions      repository.SessionRepository
	Signups       repository.SignupRepository
	StatusHistory repository.StatusHistoryRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Activities:    NewActivityRepository(db),
		Sessions:      NewSessionRepository(db),
		Signups:       NewSignupRepository(db),
		StatusHistory: NewStatusHistoryRepository(db),
	}
}
