package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// Method is how the money moved (e.g., "cash", "bank transfer").
	Method string

	// Notes is an optional description for the settlement.
	Notes string

	// Date is when the settlement was recorded.
	Date time.Time

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string
}
