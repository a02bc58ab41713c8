package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

// Item is one line of an itemized bill, shared equally by AssignedTo.
type Item struct {
	Description string
	Amount      decimal.Decimal
	AssignedTo  []string
}

// ItemizedSplits turns an itemized bill into splits that sum to total.
//
// Each item is shared equally in cents among its assignees. The difference
// between total and the item subtotal (tax, tip or a discount) is spread in
// proportion to each person's subtotal:
//
//	share = subtotal_i + extra * subtotal_i / subtotal
//
// Cents lost to truncation go one each to the first people in order. Splits
// come back in order, followed by assignees order does not mention.
func ItemizedSplits(items []Item, total decimal.Decimal, order []string) ([]models.Split, error) {
	if len(items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	if !total.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if !hasCents(total) {
		return nil, invalid("amount", "%s has more than two decimal places", total)
	}

	subtotals := make(map[string]int64)
	var assignees []string
	var subtotal int64
	for i, it := range items {
		if !it.Amount.IsPositive() || !hasCents(it.Amount) {
			return nil, invalid("items", "item %d (%s): amount must be positive with at most two decimal places", i+1, it.Description)
		}
		if len(it.AssignedTo) == 0 {
			return nil, invalid("items", "item %d (%s) is not assigned to anyone", i+1, it.Description)
		}
		cents, err := toCents("items", it.Amount)
		if err != nil {
			return nil, err
		}
		n := int64(len(it.AssignedTo))
		base, rem := cents/n, cents%n
		for j, id := range it.AssignedTo {
			if _, ok := subtotals[id]; !ok {
				assignees = append(assignees, id)
			}
			share := base
			if int64(j) < rem {
				share++
			}
			subtotals[id] += share
		}
		subtotal += cents
		if subtotal > maxCents {
			return nil, tooLarge("items", decimal.New(subtotal, -2))
		}
	}

	totalCents, err := toCents("amount", total)
	if err != nil {
		return nil, err
	}
	people := orderedAssignees(assignees, order)
	extra := totalCents - subtotal

	shares := make(map[string]int64, len(people))
	var allocated int64
	for _, id := range people {
		part := decimal.NewFromInt(extra).
			Mul(decimal.NewFromInt(subtotals[id])).
			Div(decimal.NewFromInt(subtotal)).
			Truncate(0).IntPart()
		shares[id] = subtotals[id] + part
		allocated += part
	}

	step := int64(1)
	if extra < 0 {
		step = -1
	}
	for i, left := 0, extra-allocated; left != 0; i = (i + 1) % len(people) {
		id := people[i]
		if step < 0 && shares[id] == 0 {
			continue
		}
		shares[id] += step
		left -= step
	}

	splits := make([]models.Split, len(people))
	for i, id := range people {
		splits[i] = models.Split{UserID: id, Amount: decimal.New(shares[id], -2)}
	}
	return splits, nil
}

func orderedAssignees(assignees, order []string) []string {
	assigned := make(map[string]bool, len(assignees))
	for _, id := range assignees {
		assigned[id] = true
	}
	out := make([]string, 0, len(assignees))
	for _, id := range order {
		if assigned[id] {
			out = append(out, id)
			delete(assigned, id)
		}
	}
	for _, id := range assignees {
		if assigned[id] {
			out = append(out, id)
		}
	}
	return out
}
