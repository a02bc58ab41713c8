package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/models"
)

func TestParseAmount(t *testing.T) {
	for _, s := range []string{"0", "20", "20.5", "20.50", " 33.33 ", "1e1", "9999999999.99"} {
		_, err := ParseAmount(s)
		assert.NoError(t, err, s)
	}

	for _, s := range []string{"", "abc", "-1.00", "1.001", "NaN", "10000000000", "99999999999999999999.99"} {
		_, err := ParseAmount(s)
		var vErr *ValidationError
		assert.True(t, errors.As(err, &vErr), "%q: got %v", s, err)
	}

	got, err := ParseAmount("33.33")
	require.NoError(t, err)
	assert.Equal(t, "33.33", got.StringFixed(2))
}

func TestValidateExpense(t *testing.T) {
	valid := func() *models.Expense {
		return expense("e1", "A", "30.00", split("A", "10.00"), split("B", "10.00"), split("C", "10.00"))
	}

	require.NoError(t, ValidateExpense(valid()))

	withinTolerance := valid()
	withinTolerance.Splits[2].Amount = d("9.99")
	assert.NoError(t, ValidateExpense(withinTolerance))

	tests := []struct {
		name   string
		mutate func(e *models.Expense)
		field  string
	}{
		{"missing group", func(e *models.Expense) { e.GroupID = "" }, "group_id"},
		{"missing description", func(e *models.Expense) { e.Description = "  " }, "description"},
		{"missing payer", func(e *models.Expense) { e.PaidBy = "" }, "paid_by"},
		{"zero amount", func(e *models.Expense) { e.Amount = d("0") }, "amount"},
		{"negative amount", func(e *models.Expense) { e.Amount = d("-30") }, "amount"},
		{"sub-cent amount", func(e *models.Expense) { e.Amount = d("30.001") }, "amount"},
		{"amount too large", func(e *models.Expense) { e.Amount = d("10000000000") }, "amount"},
		{"no splits", func(e *models.Expense) { e.Splits = nil }, "splits"},
		{"negative share", func(e *models.Expense) { e.Splits[0].Amount = d("-1") }, "splits"},
		{"duplicate user", func(e *models.Expense) { e.Splits[1].UserID = "A" }, "splits"},
		{"empty split user", func(e *models.Expense) { e.Splits[1].UserID = "" }, "splits"},
		{"shares off by more than a cent", func(e *models.Expense) { e.Splits[2].Amount = d("9.98") }, "splits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			err := ValidateExpense(e)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestValidateSettlement(t *testing.T) {
	require.NoError(t, ValidateSettlement(settlement("s1", "B", "A", "10.00")))

	tests := []struct {
		name   string
		mutate func(s *models.Settlement)
	}{
		{"missing group", func(s *models.Settlement) { s.GroupID = "" }},
		{"missing receiver", func(s *models.Settlement) { s.ToUserID = "" }},
		{"self payment", func(s *models.Settlement) { s.ToUserID = s.FromUserID }},
		{"zero amount", func(s *models.Settlement) { s.Amount = d("0") }},
		{"sub-cent amount", func(s *models.Settlement) { s.Amount = d("0.015") }},
		{"amount too large", func(s *models.Settlement) { s.Amount = d("12345678901.00") }},
		{"missing method", func(s *models.Settlement) { s.Method = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settlement("s1", "B", "A", "10.00")
			tt.mutate(s)
			var vErr *ValidationError
			assert.ErrorAs(t, ValidateSettlement(s), &vErr)
		})
	}
}

func TestCheckMembers(t *testing.T) {
	g := group("A", "B")

	assert.NoError(t, CheckExpenseMembers(g, expense("e1", "A", "2.00", split("A", "1.00"), split("B", "1.00"))))
	assert.NoError(t, CheckSettlementMembers(g, settlement("s1", "A", "B", "1.00")))

	var integrityErr *DataIntegrityError
	err := CheckExpenseMembers(g, expense("e1", "A", "2.00", split("C", "2.00")))
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "C", integrityErr.UserID)

	err = CheckSettlementMembers(g, settlement("s1", "Z", "B", "1.00"))
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "Z", integrityErr.UserID)
}
