package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// ExpenseWriteRepository handles expense entry writes.
type ExpenseWriteRepository struct {
	db *sqlx.DB
}

func NewExpenseWriteRepository(db *sqlx.DB) *ExpenseWriteRepository {
	return &ExpenseWriteRepository{db: db}
}

// Save inserts an entry. A nil date takes the store's creation timestamp,
// so the entry's Date equals its CreatedAt.
func (r *ExpenseWriteRepository) Save(ctx context.Context, entry *models.ExpenseEntryDB, date *time.Time) error {
	const query = `
		INSERT INTO expense_entries (id, text, amount, category, date, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::TIMESTAMPTZ, NOW()), $6, NOW(), NOW())
		RETURNING date, created_at, updated_at
	`
	args := []any{entry.ID, entry.Text, entry.Amount, entry.Category, date, entry.UserID}

	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&entry.Date, &entry.CreatedAt, &entry.UpdatedAt)

	logger.Log.Debugw("expense insert",
		"query", oneLine(query),
		"args", args,
		"error", err,
	)

	return mapError(err)
}

// ExpenseReadRepository handles expense entry reads.
type ExpenseReadRepository struct {
	db *sqlx.DB
}

func NewExpenseReadRepository(db *sqlx.DB) *ExpenseReadRepository {
	return &ExpenseReadRepository{db: db}
}

// ListByUserID returns up to limit entries of a user, newest first.
func (r *ExpenseReadRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]models.ExpenseEntryDB, error) {
	const query = `
		SELECT id, text, amount, category, date, user_id, created_at, updated_at
		FROM expense_entries
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2
	`

	var entries []models.ExpenseEntryDB
	err := r.db.SelectContext(ctx, &entries, query, userID, limit)

	logger.Log.Debugw("expense list",
		"query", oneLine(query),
		"args", []any{userID, limit},
		"result", len(entries),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return entries, nil
}
