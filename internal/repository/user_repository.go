package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/popeskul/cadence/internal/models"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, first_name, last_name, area_code, phone_number, timezone, is_subscribed, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		return nil, storeError("get user", err)
	}

	return &user, nil
}

// Create inserts a user. Users are owned by the account system; this exists
// for seeding and tests.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, area_code, phone_number, timezone, is_subscribed)
		VALUES (:id, :first_name, :last_name, :area_code, :phone_number, :timezone, :is_subscribed)
	`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return storeError("create user", err)
	}
	return nil
}
