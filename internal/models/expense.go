package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single purchase paid by one participant and divided among
// some subset of participants via Splits.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	Description string

	// Amount is the total the payer fronted. Two fractional digits, > 0.
	Amount decimal.Decimal

	// PaidBy is the user ID of the payer.
	PaidBy string

	// Category is a free-form label (e.g., "food", "transport").
	Category string

	// Date is when the expense was incurred.
	Date time.Time

	// Splits records each beneficiary's share. The shares are expected to sum
	// to Amount within one cent.
	Splits []Split
}

// Split is one member's share of an expense.
type Split struct {
	UserID string
	Amount decimal.Decimal
}
