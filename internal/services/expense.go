package services

//go:generate mockgen -source=expense.go -destination=mock_expense.go -package=services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
	"github.com/sbilibin2017/gw-expense-tracker/internal/repositories"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var (
	ErrEmptyText     = errors.New("expense text is required")
	ErrInvalidAmount = errors.New("amount must have at most 2 decimal places and 12 integer digits")
	ErrUnknownUser   = errors.New("expense owner does not exist")
)

// maxAmount is the first magnitude NUMERIC(14,2) cannot hold.
var maxAmount = decimal.New(1, 12)

// ExpenseWriter defines write operations for expense entries.
type ExpenseWriter interface {
	Save(ctx context.Context, entry *models.ExpenseEntryDB, date *time.Time) error
}

// ExpenseReader defines read operations for expense entries.
type ExpenseReader interface {
	ListByUserID(ctx context.Context, userID string, limit int) ([]models.ExpenseEntryDB, error)
}

// ExpenseService records and lists a user's expenses.
type ExpenseService struct {
	writer ExpenseWriter
	reader ExpenseReader
}

func NewExpenseService(writer ExpenseWriter, reader ExpenseReader) *ExpenseService {
	return &ExpenseService{writer: writer, reader: reader}
}

// Create records an expense for the user identified by externalID.
// A blank category becomes "Other"; a nil date becomes the creation time.
func (svc *ExpenseService) Create(
	ctx context.Context,
	externalID, text string,
	amount decimal.Decimal,
	category string,
	date *time.Time,
) (*models.ExpenseEntryDB, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	if !amount.Equal(amount.Truncate(2)) || amount.Abs().GreaterThanOrEqual(maxAmount) {
		return nil, ErrInvalidAmount
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = models.DefaultCategory
	}

	entry := &models.ExpenseEntryDB{
		ID:       uuid.New(),
		Text:     text,
		Amount:   amount,
		Category: category,
		UserID:   externalID,
	}

	if err := svc.writer.Save(ctx, entry, date); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			logger.Log.Warnw("expense owner missing", "user_id", externalID, "err", err)
			return nil, ErrUnknownUser
		}
		logger.Log.Errorw("failed to save expense", "user_id", externalID, "err", err)
		return nil, err
	}

	return entry, nil
}

// ListRecent returns the user's most recent entries, newest first.
func (svc *ExpenseService) ListRecent(ctx context.Context, externalID string, limit int) ([]models.ExpenseEntryDB, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := svc.reader.ListByUserID(ctx, externalID, limit)
	if err != nil {
		logger.Log.Errorw("failed to list expenses", "user_id", externalID, "err", err)
		return nil, err
	}
	return entries, nil
}
