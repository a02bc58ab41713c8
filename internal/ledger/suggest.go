package ledger

import "github.com/shopspring/decimal"

// Suggestion is a proposed payment for a "settle" action.
type Suggestion struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
}

// SuggestSettlement proposes a settle-up payment for currentUserID.
//
// A debtor is told to pay the largest creditor the full amount they owe.
// Anyone else is paired with the largest debtor, who is asked to pay what
// they owe. Ties go to the candidate that appears first in participants.
// ok is false when currentUserID is not a participant, when there is nobody
// else in the group or when the amount rounds to zero.
func SuggestSettlement(currentUserID string, sheet BalanceSheet, participants []string) (Suggestion, bool) {
	var candidates []string
	member := false
	for _, id := range participants {
		if id == currentUserID {
			member = true
		} else {
			candidates = append(candidates, id)
		}
	}
	if !member || len(candidates) == 0 {
		return Suggestion{}, false
	}

	own := sheet.Get(currentUserID)
	debtor := own.IsNegative()

	target := candidates[0]
	for _, id := range candidates[1:] {
		b := sheet.Get(id)
		if debtor && b.GreaterThan(sheet.Get(target)) {
			target = id
		}
		if !debtor && b.LessThan(sheet.Get(target)) {
			target = id
		}
	}

	var s Suggestion
	if debtor {
		s = Suggestion{FromUserID: currentUserID, ToUserID: target, Amount: own.Abs()}
	} else {
		s = Suggestion{FromUserID: target, ToUserID: currentUserID, Amount: sheet.Get(target).Abs()}
	}
	s.Amount = s.Amount.Round(2)
	if s.Amount.IsZero() {
		return Suggestion{}, false
	}
	return s, true
}

// SuggestSettlementWith proposes a payment between currentUserID and a chosen
// counterparty: half of the gap between their balances, paid by whichever
// side has the lower balance.
func SuggestSettlementWith(currentUserID, counterpartyID string, sheet BalanceSheet) (Suggestion, bool) {
	if currentUserID == counterpartyID {
		return Suggestion{}, false
	}
	own := sheet.Get(currentUserID)
	other := sheet.Get(counterpartyID)

	amount := own.Sub(other).Abs().Div(decimal.NewFromInt(2)).Round(2)
	if amount.IsZero() {
		return Suggestion{}, false
	}
	if own.LessThan(other) {
		return Suggestion{FromUserID: currentUserID, ToUserID: counterpartyID, Amount: amount}, true
	}
	return Suggestion{FromUserID: counterpartyID, ToUserID: currentUserID, Amount: amount}, true
}
