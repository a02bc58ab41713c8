package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(desc, amount string, assignedTo ...string) Item {
	return Item{Description: desc, Amount: d(amount), AssignedTo: assignedTo}
}

func TestItemizedSplits(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		total string
		order []string
		want  map[string]string
		users []string
	}{
		{
			name: "two-person split with tax",
			items: []Item{
				item("Pizza", "20", "Alice", "Bob"),
				item("Salad", "10", "Alice"),
			},
			total: "33",
			order: []string{"Alice", "Bob"},
			// Alice: 20 + 20*3/30 = 22, Bob: 10 + 10*3/30 = 11
			users: []string{"Alice", "Bob"},
			want:  map[string]string{"Alice": "22.00", "Bob": "11.00"},
		},
		{
			name:  "tip leaves a cent over",
			items: []Item{item("A", "10", "a"), item("B", "10", "b"), item("C", "10", "c")},
			total: "31",
			order: []string{"a", "b", "c"},
			users: []string{"a", "b", "c"},
			want:  map[string]string{"a": "10.34", "b": "10.33", "c": "10.33"},
		},
		{
			name:  "discount",
			items: []Item{item("Big", "30", "a"), item("Small", "10", "b")},
			total: "36",
			order: []string{"a", "b"},
			users: []string{"a", "b"},
			want:  map[string]string{"a": "27.00", "b": "9.00"},
		},
		{
			name:  "discount leaves a cent over",
			items: []Item{item("A", "10", "a"), item("B", "10", "b"), item("C", "10", "c")},
			total: "29",
			order: []string{"a", "b", "c"},
			users: []string{"a", "b", "c"},
			want:  map[string]string{"a": "9.66", "b": "9.67", "c": "9.67"},
		},
		{
			name:  "shared item without extras",
			items: []Item{item("Platter", "10", "a", "b", "c")},
			total: "10",
			order: []string{"a", "b", "c"},
			users: []string{"a", "b", "c"},
			want:  map[string]string{"a": "3.34", "b": "3.33", "c": "3.33"},
		},
		{
			name:  "participant order wins over item order",
			items: []Item{item("Soup", "5", "c"), item("Bread", "5", "a")},
			total: "10",
			order: []string{"a", "b", "c"},
			users: []string{"a", "c"},
			want:  map[string]string{"a": "5.00", "c": "5.00"},
		},
		{
			name:  "unknown assignees follow in item order",
			items: []Item{item("Wine", "10", "z", "a")},
			total: "10",
			order: []string{"a"},
			users: []string{"a", "z"},
			want:  map[string]string{"a": "5.00", "z": "5.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := ItemizedSplits(tt.items, d(tt.total), tt.order)
			require.NoError(t, err)

			var users []string
			sum := decimal.Zero
			for _, s := range splits {
				users = append(users, s.UserID)
				sum = sum.Add(s.Amount)
				assert.Equal(t, tt.want[s.UserID], s.Amount.StringFixed(2), "split for %s", s.UserID)
			}
			assert.Equal(t, tt.users, users)
			assert.True(t, sum.Equal(d(tt.total)), "splits sum to %s, want %s", sum, tt.total)
		})
	}
}

func TestItemizedSplits_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		total string
	}{
		{"no items", nil, "10"},
		{"unassigned item", []Item{item("Orphan", "10")}, "10"},
		{"zero item", []Item{item("Free", "0", "a")}, "10"},
		{"fractional cents", []Item{item("Odd", "1.005", "a")}, "10"},
		{"zero total", []Item{item("A", "10", "a")}, "0"},
		{"total too large", []Item{item("A", "10", "a")}, "99999999999999999999.99"},
		{"item too large", []Item{item("Yacht", "99999999999999999999.99", "a")}, "10"},
		{"items add up past the limit", []Item{item("A", "9999999999.99", "a"), item("B", "0.01", "a")}, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ItemizedSplits(tt.items, d(tt.total), nil)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
