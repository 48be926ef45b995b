package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"sporthub-service/internal/apperrors"
	"sporthub-service/internal/models"
)

var ErrUserNotFound = apperrors.NotFound("user not found")

// UserRepository maps verified phone numbers to user accounts.
type UserRepository interface {
	UpsertByPhone(ctx context.Context, phone string) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// UpsertByPhone returns the user for a phone number, creating the account on
// first successful verification.
func (r *UserRepo) UpsertByPhone(ctx context.Context, phone string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (phone) VALUES ($1)
         ON CONFLICT (phone) DO UPDATE SET phone=EXCLUDED.phone
         RETURNING id, phone, created_at`, phone).StructScan(&user)
	return user, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, phone, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
