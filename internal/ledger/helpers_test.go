package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func group(participants ...string) *models.Group {
	return &models.Group{ID: "g1", Name: "Test", Participants: participants}
}

func expense(id, paidBy, amount string, splits ...models.Split) *models.Expense {
	return &models.Expense{ID: id, GroupID: "g1", Description: "exp " + id, PaidBy: paidBy, Amount: d(amount), Splits: splits}
}

func split(userID, amount string) models.Split {
	return models.Split{UserID: userID, Amount: d(amount)}
}

func settlement(id, from, to, amount string) *models.Settlement {
	return &models.Settlement{ID: id, GroupID: "g1", FromUserID: from, ToUserID: to, Amount: d(amount), Method: "cash"}
}

func assertSheet(t *testing.T, want map[string]string, got BalanceSheet) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("sheet has %d members, want %d: %v", len(got), len(want), got)
	}
	for id, w := range want {
		v, ok := got[id]
		if !ok {
			t.Errorf("missing balance for %s", id)
			continue
		}
		if !v.Equal(d(w)) {
			t.Errorf("balance[%s] = %s, want %s", id, v.StringFixed(2), w)
		}
	}
}
