package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to expense entries created without a category.
const DefaultCategory = "Other"

// ExpenseEntryDB represents a row of the expense_entries table.
type ExpenseEntryDB struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Text      string          `json:"text" db:"text"`         // Free-text description
	Amount    decimal.Decimal `json:"amount" db:"amount"`     // Signed monetary amount
	Category  string          `json:"category" db:"category"` // Category label
	Date      time.Time       `json:"date" db:"date"`         // When the expense occurred
	UserID    string          `json:"user_id" db:"user_id"`   // Owner's external identity id
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
