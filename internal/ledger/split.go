package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

// EqualSplits divides amount evenly among userIDs, in cents. Leftover cents
// go one each to the first users so the shares always sum to amount exactly.
func EqualSplits(amount decimal.Decimal, userIDs []string) ([]models.Split, error) {
	if len(userIDs) == 0 {
		return nil, invalid("splits", "at least one participant is required")
	}
	if !amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if !hasCents(amount) {
		return nil, invalid("amount", "%s has more than two decimal places", amount)
	}

	cents, err := toCents("amount", amount)
	if err != nil {
		return nil, err
	}
	n := int64(len(userIDs))
	base, rem := cents/n, cents%n

	splits := make([]models.Split, len(userIDs))
	for i, id := range userIDs {
		share := base
		if int64(i) < rem {
			share++
		}
		splits[i] = models.Split{UserID: id, Amount: decimal.New(share, -2)}
	}
	return splits, nil
}
