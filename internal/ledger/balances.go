// Package ledger folds a group's expense and settlement history into
// per-member balances and proposes settlements from them.
//
// Every function here is pure: no I/O, no shared state. Amounts are
// decimal.Decimal so repeated sums of values like 33.33 stay exact.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

// BalanceSheet maps a user ID to its signed net balance within a group.
// Positive = owed money, negative = owes money.
type BalanceSheet map[string]decimal.Decimal

// Get returns the balance for userID, or zero when the user is absent.
func (b BalanceSheet) Get(userID string) decimal.Decimal {
	return b[userID]
}

// Total sums every balance. It is zero for a consistent ledger.
func (b BalanceSheet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// Members lists the sheet's user IDs: those in order first (skipping ids not
// in the sheet), then any remaining ids sorted lexically.
func (b BalanceSheet) Members(order []string) []string {
	seen := make(map[string]bool, len(b))
	members := make([]string, 0, len(b))
	for _, id := range order {
		if _, ok := b[id]; ok && !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	var rest []string
	for id := range b {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(members, rest...)
}

// Equal reports whether both sheets hold the same users with equal balances.
func (b BalanceSheet) Equal(other BalanceSheet) bool {
	if len(b) != len(other) {
		return false
	}
	for id, v := range b {
		o, ok := other[id]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the sheet as {"<userId>": <number>} with two decimals.
func (b BalanceSheet) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, len(b))
	for id, v := range b {
		out[id] = json.Number(v.StringFixed(2))
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both numeric and string-encoded amounts.
func (b *BalanceSheet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sheet := make(BalanceSheet, len(raw))
	for id, msg := range raw {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(msg); err != nil {
			return fmt.Errorf("balance for %s: %w", id, err)
		}
		sheet[id] = d
	}
	*b = sheet
	return nil
}

// ComputeBalances folds expenses and settlements into a BalanceSheet.
//
// Every participant starts at zero. A payer is credited the full expense
// amount and each split debits its user; a settlement credits the sender and
// debits the receiver. The fold is commutative, so input order never changes
// the result.
//
// A record that names a user outside group.Participants fails the whole
// computation with a *DataIntegrityError, as does a group with no participants.
// Nil entries in either slice carry no money and are skipped.
func ComputeBalances(group *models.Group, expenses []*models.Expense, settlements []*models.Settlement) (BalanceSheet, error) {
	if group == nil {
		return nil, &DataIntegrityError{Record: "group", Reason: "group is missing"}
	}
	if len(group.Participants) == 0 {
		return nil, &DataIntegrityError{GroupID: group.ID, Record: "group", Reason: "group has no participants"}
	}

	sheet := make(BalanceSheet, len(group.Participants))
	for _, id := range group.Participants {
		sheet[id] = decimal.Zero
	}

	for _, e := range expenses {
		if e == nil {
			continue
		}
		record := "expense " + e.ID
		if err := sheet.apply(group.ID, record, e.PaidBy, e.Amount); err != nil {
			return nil, err
		}
		for _, s := range e.Splits {
			if err := sheet.apply(group.ID, record, s.UserID, s.Amount.Neg()); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range settlements {
		if s == nil {
			continue
		}
		record := "settlement " + s.ID
		if err := sheet.apply(group.ID, record, s.FromUserID, s.Amount); err != nil {
			return nil, err
		}
		if err := sheet.apply(group.ID, record, s.ToUserID, s.Amount.Neg()); err != nil {
			return nil, err
		}
	}

	return sheet, nil
}

func (b BalanceSheet) apply(groupID, record, userID string, delta decimal.Decimal) error {
	current, ok := b[userID]
	if !ok {
		return &DataIntegrityError{
			GroupID: groupID,
			Record:  record,
			UserID:  userID,
			Reason:  "not a group participant",
		}
	}
	b[userID] = current.Add(delta)
	return nil
}
