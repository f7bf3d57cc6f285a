package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByExternalID returns the user with the given identity gateway id,
// or nil without error when no such row exists.
func (r *UserReadRepository) GetByExternalID(ctx context.Context, externalID string) (*models.UserDB, error) {
	const query = `
		SELECT id, external_id, email, name, avatar_url, created_at, updated_at
		FROM users
		WHERE external_id = $1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, externalID)

	logger.Log.Debugw("user lookup",
		"query", oneLine(query),
		"args", []any{externalID},
		"found", err == nil,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user and fills in the store-assigned timestamps.
// A collision on external_id or email yields ErrUniqueViolation.
func (r *UserWriteRepository) Save(ctx context.Context, user *models.UserDB) error {
	const query = `
		INSERT INTO users (id, external_id, email, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	args := []any{user.ID, user.ExternalID, user.Email, user.Name, user.AvatarURL}

	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt)

	logger.Log.Debugw("user insert",
		"query", oneLine(query),
		"args", args,
		"error", err,
	)

	return mapError(err)
}
