package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/models"
)

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name        string
		group       *models.Group
		expenses    []*models.Expense
		settlements []*models.Settlement
		want        map[string]string
	}{
		{
			name:  "no activity leaves everyone at zero",
			group: group("A", "B", "C"),
			want:  map[string]string{"A": "0", "B": "0", "C": "0"},
		},
		{
			name:     "two people one expense",
			group:    group("A", "B"),
			expenses: []*models.Expense{expense("e1", "A", "20.00", split("A", "10.00"), split("B", "10.00"))},
			want:     map[string]string{"A": "10.00", "B": "-10.00"},
		},
		{
			name:        "settlement offsets the debt",
			group:       group("A", "B"),
			expenses:    []*models.Expense{expense("e1", "A", "20.00", split("A", "10.00"), split("B", "10.00"))},
			settlements: []*models.Settlement{settlement("s1", "B", "A", "10.00")},
			want:        map[string]string{"A": "0.00", "B": "0.00"},
		},
		{
			name:     "three people even split",
			group:    group("A", "B", "C"),
			expenses: []*models.Expense{expense("e1", "A", "30.00", split("A", "10.00"), split("B", "10.00"), split("C", "10.00"))},
			want:     map[string]string{"A": "20.00", "B": "-10.00", "C": "-10.00"},
		},
		{
			name:     "self split is neutral",
			group:    group("A", "B"),
			expenses: []*models.Expense{expense("e1", "A", "42.50", split("A", "42.50"))},
			want:     map[string]string{"A": "0", "B": "0"},
		},
		{
			name:  "thirds do not drift",
			group: group("A", "B", "C"),
			expenses: []*models.Expense{
				expense("e1", "A", "100.00", split("A", "33.34"), split("B", "33.33"), split("C", "33.33")),
				expense("e2", "B", "100.00", split("A", "33.33"), split("B", "33.34"), split("C", "33.33")),
				expense("e3", "C", "100.00", split("A", "33.33"), split("B", "33.33"), split("C", "33.34")),
			},
			want: map[string]string{"A": "0.00", "B": "0.00", "C": "0.00"},
		},
		{
			name:     "payer not among beneficiaries",
			group:    group("A", "B", "C"),
			expenses: []*models.Expense{expense("e1", "C", "15.00", split("A", "7.50"), split("B", "7.50"))},
			want:     map[string]string{"A": "-7.50", "B": "-7.50", "C": "15.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ComputeBalances(tt.group, tt.expenses, tt.settlements)
			require.NoError(t, err)
			assertSheet(t, tt.want, sheet)
			assert.True(t, sheet.Total().IsZero(), "total = %s", sheet.Total())
		})
	}
}

func TestComputeBalances_DataIntegrity(t *testing.T) {
	tests := []struct {
		name        string
		group       *models.Group
		expenses    []*models.Expense
		settlements []*models.Settlement
		wantUser    string
	}{
		{
			name:     "unknown payer",
			group:    group("A", "B"),
			expenses: []*models.Expense{expense("e1", "Z", "10.00", split("A", "5.00"), split("B", "5.00"))},
			wantUser: "Z",
		},
		{
			name:     "unknown split user",
			group:    group("A", "B"),
			expenses: []*models.Expense{expense("e1", "A", "10.00", split("A", "5.00"), split("Q", "5.00"))},
			wantUser: "Q",
		},
		{
			name:        "unknown settlement sender",
			group:       group("A", "B"),
			settlements: []*models.Settlement{settlement("s1", "X", "A", "1.00")},
			wantUser:    "X",
		},
		{
			name:        "unknown settlement receiver",
			group:       group("A", "B"),
			settlements: []*models.Settlement{settlement("s1", "A", "Y", "1.00")},
			wantUser:    "Y",
		},
		{
			name:  "group without participants",
			group: group(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ComputeBalances(tt.group, tt.expenses, tt.settlements)
			require.Error(t, err)
			assert.Nil(t, sheet)

			var integrityErr *DataIntegrityError
			require.True(t, errors.As(err, &integrityErr), "got %T", err)
			assert.Equal(t, tt.wantUser, integrityErr.UserID)
			if tt.wantUser != "" {
				assert.Contains(t, err.Error(), tt.wantUser)
			}
		})
	}
}

func TestComputeBalances_NilGroup(t *testing.T) {
	_, err := ComputeBalances(nil, nil, nil)
	var integrityErr *DataIntegrityError
	assert.ErrorAs(t, err, &integrityErr)
}

func TestComputeBalances_SkipsNilRecords(t *testing.T) {
	sheet, err := ComputeBalances(group("A", "B"),
		[]*models.Expense{nil, expense("e1", "A", "10.00", split("B", "10.00")), nil},
		[]*models.Settlement{nil, settlement("s1", "B", "A", "4.00")},
	)
	require.NoError(t, err)
	assertSheet(t, map[string]string{"A": "6.00", "B": "-6.00"}, sheet)
}

// randomLedger builds a consistent ledger: every expense is split with
// EqualSplits, so shares always sum to the amount.
func randomLedger(t *testing.T, r *rand.Rand, members []string, nExpenses, nSettlements int) ([]*models.Expense, []*models.Settlement) {
	t.Helper()
	var expenses []*models.Expense
	for i := 0; i < nExpenses; i++ {
		amount := decimal.New(r.Int64N(100000)+1, -2)
		var beneficiaries []string
		for _, m := range members {
			if r.IntN(3) > 0 {
				beneficiaries = append(beneficiaries, m)
			}
		}
		if len(beneficiaries) == 0 {
			beneficiaries = members[:1]
		}
		splits, err := EqualSplits(amount, beneficiaries)
		require.NoError(t, err)
		expenses = append(expenses, &models.Expense{
			ID:     fmt.Sprintf("e%d", i),
			PaidBy: members[r.IntN(len(members))],
			Amount: amount,
			Splits: splits,
		})
	}

	var settlements []*models.Settlement
	for i := 0; i < nSettlements; i++ {
		from := r.IntN(len(members))
		to := (from + 1 + r.IntN(len(members)-1)) % len(members)
		settlements = append(settlements, &models.Settlement{
			ID:         fmt.Sprintf("s%d", i),
			FromUserID: members[from],
			ToUserID:   members[to],
			Amount:     decimal.New(r.Int64N(5000)+1, -2),
		})
	}
	return expenses, settlements
}

func TestComputeBalances_ZeroSum(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	members := []string{"ana", "ben", "cho", "dev", "eli"}

	for round := 0; round < 50; round++ {
		expenses, settlements := randomLedger(t, r, members, r.IntN(40), r.IntN(10))
		sheet, err := ComputeBalances(group(members...), expenses, settlements)
		require.NoError(t, err)
		require.True(t, sheet.Total().IsZero(), "round %d: total = %s", round, sheet.Total())
	}
}

func TestComputeBalances_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	members := []string{"ana", "ben", "cho", "dev"}
	expenses, settlements := randomLedger(t, r, members, 30, 8)

	want, err := ComputeBalances(group(members...), expenses, settlements)
	require.NoError(t, err)

	for round := 0; round < 20; round++ {
		shuffledExpenses := append([]*models.Expense(nil), expenses...)
		shuffledSettlements := append([]*models.Settlement(nil), settlements...)
		r.Shuffle(len(shuffledExpenses), func(i, j int) {
			shuffledExpenses[i], shuffledExpenses[j] = shuffledExpenses[j], shuffledExpenses[i]
		})
		r.Shuffle(len(shuffledSettlements), func(i, j int) {
			shuffledSettlements[i], shuffledSettlements[j] = shuffledSettlements[j], shuffledSettlements[i]
		})

		got, err := ComputeBalances(group(members...), shuffledExpenses, shuffledSettlements)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "round %d: %v != %v", round, got, want)
	}
}

func TestComputeBalances_DoesNotMutateInputs(t *testing.T) {
	g := group("A", "B")
	e := expense("e1", "A", "20.00", split("A", "10.00"), split("B", "10.00"))

	_, err := ComputeBalances(g, []*models.Expense{e}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, g.Participants)
	assert.True(t, e.Amount.Equal(d("20.00")))
	assert.True(t, e.Splits[1].Amount.Equal(d("10.00")))
}

func TestBalanceSheet_JSON(t *testing.T) {
	sheet := BalanceSheet{"A": d("10"), "B": d("-10"), "C": d("0.1")}

	data, err := json.Marshal(sheet)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A": 10.00, "B": -10.00, "C": 0.10}`, string(data))
	assert.Contains(t, string(data), `"A":10.00`)

	var decoded BalanceSheet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, sheet.Equal(decoded))

	var fromStrings BalanceSheet
	require.NoError(t, json.Unmarshal([]byte(`{"A":"1.25"}`), &fromStrings))
	assert.True(t, fromStrings.Get("A").Equal(d("1.25")))
}

func TestBalanceSheet_Members(t *testing.T) {
	sheet := BalanceSheet{"c": decimal.Zero, "a": decimal.Zero, "b": decimal.Zero, "z": decimal.Zero}
	assert.Equal(t, []string{"b", "c", "a", "z"}, sheet.Members([]string{"b", "missing", "c"}))
}
