package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

// maxCents is the largest money value accepted, in cents: ten whole digits,
// the width of the NUMERIC(12,2) columns.
const maxCents = 999999999999

var (
	// splitTolerance is how far the sum of an expense's splits may drift
	// from its amount before the expense is rejected.
	splitTolerance = decimal.New(1, -2)

	maxAmount = decimal.New(maxCents, -2)
)

// ParseAmount parses a string-encoded money amount. It rejects negative
// values, anything with more than two fractional digits and anything above
// 9999999999.99.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid("amount", "must not be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("amount", "%q is not a decimal number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, invalid("amount", "%s must not be negative", s)
	}
	if !hasCents(d) {
		return decimal.Zero, invalid("amount", "%s has more than two decimal places", s)
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, tooLarge("amount", d)
	}
	return d, nil
}

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func tooLarge(field string, d decimal.Decimal) *ValidationError {
	return invalid(field, "%s exceeds the maximum of %s", d, maxAmount.StringFixed(2))
}

// toCents converts a two-decimal amount to whole cents. Amounts beyond
// maxAmount are rejected rather than wrapped.
func toCents(field string, d decimal.Decimal) (int64, error) {
	if d.Abs().GreaterThan(maxAmount) {
		return 0, tooLarge(field, d)
	}
	return d.Shift(2).IntPart(), nil
}

// ValidateExpense checks the shape of an expense before it is stored.
func ValidateExpense(e *models.Expense) error {
	if e.GroupID == "" {
		return invalid("group_id", "required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return invalid("description", "required")
	}
	if e.PaidBy == "" {
		return invalid("paid_by", "required")
	}
	if !e.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if !hasCents(e.Amount) {
		return invalid("amount", "%s has more than two decimal places", e.Amount)
	}
	if e.Amount.GreaterThan(maxAmount) {
		return tooLarge("amount", e.Amount)
	}
	if len(e.Splits) == 0 {
		return invalid("splits", "at least one split is required")
	}

	sum := decimal.Zero
	seen := make(map[string]bool, len(e.Splits))
	for _, s := range e.Splits {
		if s.UserID == "" {
			return invalid("splits", "split without user_id")
		}
		if seen[s.UserID] {
			return invalid("splits", "user %s appears more than once", s.UserID)
		}
		seen[s.UserID] = true
		if s.Amount.IsNegative() {
			return invalid("splits", "share for %s is negative", s.UserID)
		}
		sum = sum.Add(s.Amount)
	}
	if sum.Sub(e.Amount).Abs().GreaterThan(splitTolerance) {
		return invalid("splits", "shares sum to %s, expense amount is %s", sum.StringFixed(2), e.Amount.StringFixed(2))
	}
	return nil
}

// ValidateSettlement checks the shape of a settlement before it is stored.
func ValidateSettlement(s *models.Settlement) error {
	if s.GroupID == "" {
		return invalid("group_id", "required")
	}
	if s.FromUserID == "" || s.ToUserID == "" {
		return invalid("from_user_id/to_user_id", "both sides are required")
	}
	if s.FromUserID == s.ToUserID {
		return invalid("to_user_id", "cannot settle with yourself")
	}
	if !s.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if !hasCents(s.Amount) {
		return invalid("amount", "%s has more than two decimal places", s.Amount)
	}
	if s.Amount.GreaterThan(maxAmount) {
		return tooLarge("amount", s.Amount)
	}
	if strings.TrimSpace(s.Method) == "" {
		return invalid("method", "required")
	}
	return nil
}

// CheckExpenseMembers verifies that the payer and every split user belong to group.
func CheckExpenseMembers(group *models.Group, e *models.Expense) error {
	record := "expense " + e.ID
	ids := make([]string, 0, len(e.Splits)+1)
	ids = append(ids, e.PaidBy)
	for _, s := range e.Splits {
		ids = append(ids, s.UserID)
	}
	return checkMembers(group, record, ids...)
}

// CheckSettlementMembers verifies that both sides of s belong to group.
func CheckSettlementMembers(group *models.Group, s *models.Settlement) error {
	return checkMembers(group, "settlement "+s.ID, s.FromUserID, s.ToUserID)
}

func checkMembers(group *models.Group, record string, ids ...string) error {
	for _, id := range ids {
		if !group.HasParticipant(id) {
			return &DataIntegrityError{GroupID: group.ID, Record: record, UserID: id, Reason: "not a group participant"}
		}
	}
	return nil
}
