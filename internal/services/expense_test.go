package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
	"github.com/sbilibin2017/gw-expense-tracker/internal/repositories"
)

func TestExpenseService_Create(t *testing.T) {
	ctx := context.Background()
	amount := decimal.RequireFromString("12.40")
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("defaults category", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		writer := NewMockExpenseWriter(ctrl)
		writer.EXPECT().Save(ctx, gomock.Any(), (*time.Time)(nil)).
			DoAndReturn(func(_ context.Context, e *models.ExpenseEntryDB, _ *time.Time) error {
				e.CreatedAt = time.Now()
				e.Date = e.CreatedAt
				return nil
			})

		svc := NewExpenseService(writer, NewMockExpenseReader(ctrl))
		entry, err := svc.Create(ctx, "idp_42", "  Lunch ", amount, "  ", nil)

		assert.NoError(t, err)
		assert.Equal(t, "Lunch", entry.Text)
		assert.Equal(t, models.DefaultCategory, entry.Category)
		assert.Equal(t, "idp_42", entry.UserID)
		assert.True(t, amount.Equal(entry.Amount))
		assert.Equal(t, entry.CreatedAt, entry.Date)
	})

	t.Run("keeps explicit category and date", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		writer := NewMockExpenseWriter(ctrl)
		writer.EXPECT().Save(ctx, gomock.Any(), &day).Return(nil)

		svc := NewExpenseService(writer, NewMockExpenseReader(ctrl))
		entry, err := svc.Create(ctx, "idp_42", "Train", amount, "Travel", &day)

		assert.NoError(t, err)
		assert.Equal(t, "Travel", entry.Category)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := NewExpenseService(NewMockExpenseWriter(ctrl), NewMockExpenseReader(ctrl))
		entry, err := svc.Create(ctx, "idp_42", "   ", amount, "", nil)

		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Nil(t, entry)
	})

	t.Run("store error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		writer := NewMockExpenseWriter(ctrl)
		writer.EXPECT().Save(ctx, gomock.Any(), gomock.Any()).Return(errors.New("db error"))

		svc := NewExpenseService(writer, NewMockExpenseReader(ctrl))
		entry, err := svc.Create(ctx, "idp_42", "Lunch", amount, "", nil)

		assert.EqualError(t, err, "db error")
		assert.Nil(t, entry)
	})
}

func TestExpenseService_Create_Amount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"two places", "12.34", nil},
		{"trailing zeros", "9.900", nil},
		{"negative refund", "-5.5", nil},
		{"largest storable", "999999999999.99", nil},
		{"three places", "1.005", ErrInvalidAmount},
		{"too many integer digits", "1000000000000", ErrInvalidAmount},
		{"too many negative integer digits", "-1000000000000.00", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			writer := NewMockExpenseWriter(ctrl)
			if tt.wantErr == nil {
				writer.EXPECT().Save(ctx, gomock.Any(), gomock.Any()).Return(nil)
			}

			svc := NewExpenseService(writer, NewMockExpenseReader(ctrl))
			_, err := svc.Create(ctx, "idp_42", "Lunch", decimal.RequireFromString(tt.amount), "", nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpenseService_Create_MissingOwner(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writer := NewMockExpenseWriter(ctrl)
	writer.EXPECT().Save(ctx, gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("%w: expense_entries_user_id_fkey", repositories.ErrForeignKeyViolation))

	svc := NewExpenseService(writer, NewMockExpenseReader(ctrl))
	entry, err := svc.Create(ctx, "idp_deleted", "Lunch", decimal.NewFromInt(3), "", nil)

	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Nil(t, entry)
}

func TestExpenseService_ListRecent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, defaultListLimit},
		{"explicit limit", 5, 5},
		{"capped limit", 1000, maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			reader := NewMockExpenseReader(ctrl)
			reader.EXPECT().ListByUserID(ctx, "idp_42", tt.wantLimit).
				Return([]models.ExpenseEntryDB{{Text: "Lunch"}}, nil)

			svc := NewExpenseService(NewMockExpenseWriter(ctrl), reader)
			entries, err := svc.ListRecent(ctx, "idp_42", tt.limit)

			assert.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}

	t.Run("store error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		reader := NewMockExpenseReader(ctrl)
		reader.EXPECT().ListByUserID(ctx, "idp_42", defaultListLimit).Return(nil, errors.New("db error"))

		svc := NewExpenseService(NewMockExpenseWriter(ctrl), reader)
		_, err := svc.ListRecent(ctx, "idp_42", 0)
		assert.EqualError(t, err, "db error")
	})
}
