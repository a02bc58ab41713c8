package ledger

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyTransfers(sheet BalanceSheet, transfers []Transfer) BalanceSheet {
	out := make(BalanceSheet, len(sheet))
	for id, v := range sheet {
		out[id] = v
	}
	for _, tr := range transfers {
		out[tr.FromUserID] = out[tr.FromUserID].Add(tr.Amount)
		out[tr.ToUserID] = out[tr.ToUserID].Sub(tr.Amount)
	}
	return out
}

func TestSimplifyDebts(t *testing.T) {
	sheet := BalanceSheet{"A": d("30.00"), "B": d("-10.00"), "C": d("-25.00"), "D": d("5.00")}

	transfers := SimplifyDebts(sheet, []string{"A", "B", "C", "D"})
	require.Len(t, transfers, 3)

	assert.Equal(t, "C", transfers[0].FromUserID)
	assert.Equal(t, "A", transfers[0].ToUserID)
	assert.Equal(t, "25.00", transfers[0].Amount.StringFixed(2))

	assert.Equal(t, "B", transfers[1].FromUserID)
	assert.Equal(t, "A", transfers[1].ToUserID)
	assert.Equal(t, "5.00", transfers[1].Amount.StringFixed(2))

	assert.Equal(t, "B", transfers[2].FromUserID)
	assert.Equal(t, "D", transfers[2].ToUserID)
	assert.Equal(t, "5.00", transfers[2].Amount.StringFixed(2))

	for id, v := range applyTransfers(sheet, transfers) {
		assert.True(t, v.IsZero(), "%s left with %s", id, v)
	}
}

func TestSimplifyDebts_Settled(t *testing.T) {
	assert.Empty(t, SimplifyDebts(BalanceSheet{"A": d("0"), "B": d("0")}, []string{"A", "B"}))
	assert.Empty(t, SimplifyDebts(BalanceSheet{}, nil))
}

func TestSimplifyDebts_ZeroesRandomLedgers(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 1))
	members := []string{"ana", "ben", "cho", "dev", "eli", "fay"}

	for round := 0; round < 30; round++ {
		expenses, settlements := randomLedger(t, r, members, 25, 5)
		sheet, err := ComputeBalances(group(members...), expenses, settlements)
		require.NoError(t, err)

		transfers := SimplifyDebts(sheet, members)
		assert.LessOrEqual(t, len(transfers), len(members)-1)
		for _, tr := range transfers {
			assert.True(t, tr.Amount.IsPositive())
			assert.NotEqual(t, tr.FromUserID, tr.ToUserID)
		}
		for id, v := range applyTransfers(sheet, transfers) {
			assert.True(t, v.IsZero(), "round %d: %s left with %s", round, id, v)
		}
	}
}
