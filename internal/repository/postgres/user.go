package postgres

import (
	"context"
	"database/sql"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, manager_email, trainer) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Name, u.Email, u.ManagerEmail, u.Trainer).Scan(&u.ID)
	if err != nil {
		return &domain.PersistenceError{Op: "user create", Err: err}
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, manager_email, trainer FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.ManagerEmail, &u.Trainer)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "user get", Err: err}
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, manager_email, trainer FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.ManagerEmail, &u.Trainer)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "user get", Err: err}
	}
	return u, nil
}
