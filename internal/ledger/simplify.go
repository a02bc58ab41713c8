package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is one payment in a simplified settlement plan.
type Transfer struct {
	FromUserID string // Person who owes
	ToUserID   string // Person who is owed
	Amount     decimal.Decimal
}

type position struct {
	userID string
	rank   int
	amount decimal.Decimal // always positive
}

// SimplifyDebts turns a balance sheet into a short list of transfers that
// brings every balance to zero.
//
// Algorithm: balances are rounded to cents and split into debtors and
// creditors, each sorted by size (largest first, ties by order). The largest
// debtor pays the largest creditor the smaller of the two amounts, and
// whichever side reaches zero is dropped. The result is deterministic for a
// given sheet and order.
func SimplifyDebts(sheet BalanceSheet, order []string) []Transfer {
	var debtors, creditors []position
	for rank, id := range sheet.Members(order) {
		b := sheet[id].Round(2)
		switch {
		case b.IsNegative():
			debtors = append(debtors, position{userID: id, rank: rank, amount: b.Neg()})
		case b.IsPositive():
			creditors = append(creditors, position{userID: id, rank: rank, amount: b})
		}
	}
	sortPositions(debtors)
	sortPositions(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(d.amount, c.amount)
		transfers = append(transfers, Transfer{FromUserID: d.userID, ToUserID: c.userID, Amount: amount})

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)
		if d.amount.IsZero() {
			i++
		}
		if c.amount.IsZero() {
			j++
		}
	}
	return transfers
}

func sortPositions(p []position) {
	sort.SliceStable(p, func(a, b int) bool {
		if cmp := p[a].amount.Cmp(p[b].amount); cmp != 0 {
			return cmp > 0
		}
		return p[a].rank < p[b].rank
	})
}
