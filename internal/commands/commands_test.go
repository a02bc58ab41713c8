package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/commands"
)

func runSplitsettle(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const tripLedger = `
group:
  id: trip
  participants: [alice, bob, carol]
expenses:
  - description: Cabin
    amount: "90"
    paid_by: alice
  - description: Fuel
    amount: "30"
    paid_by: bob
    splits:
      - user: carol
        amount: "30"
settlements:
  - from: carol
    to: alice
    amount: "10.50"
    method: cash
`

func TestBalances_Table(t *testing.T) {
	out, err := runSplitsettle(t, "balances", writeFile(t, "ledger.yaml", tripLedger))
	require.NoError(t, err)

	// alice +60 -10.50, bob -30 +30, carol -30 -30 +10.50
	assert.Regexp(t, `alice\s+49\.50`, out)
	assert.Regexp(t, `bob\s+0\.00`, out)
	assert.Regexp(t, `carol\s+-49\.50`, out)
	assert.Contains(t, out, "carol pays alice 49.50")
}

func TestBalances_JSON(t *testing.T) {
	out, err := runSplitsettle(t, "balances", "--json", writeFile(t, "ledger.yaml", tripLedger))
	require.NoError(t, err)

	var got struct {
		Balances  map[string]json.Number `json:"balances"`
		Transfers []map[string]string    `json:"transfers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]json.Number{"alice": "49.50", "bob": "0.00", "carol": "-49.50"}, got.Balances)
	assert.Equal(t, []map[string]string{{"from": "carol", "to": "alice", "amount": "49.50"}}, got.Transfers)
}

func TestBalances_Settled(t *testing.T) {
	out, err := runSplitsettle(t, "balances", writeFile(t, "ledger.yaml", `
group:
  participants: [a, b]
expenses:
  - description: Lunch
    amount: "20"
    paid_by: a
settlements:
  - from: b
    to: a
    amount: "10"
`))
	require.NoError(t, err)
	assert.Contains(t, out, "All settled up.")
}

func TestBalances_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ledger  string
		wantErr string
	}{
		{
			name: "unknown payer",
			ledger: `
group: {id: g, participants: [a, b]}
expenses:
  - {description: x, amount: "10", paid_by: z, split_equally: [a, b]}
`,
			wantErr: `"z"`,
		},
		{
			name: "bad amount",
			ledger: `
group: {id: g, participants: [a, b]}
expenses:
  - {description: x, amount: "1.005", paid_by: a}
`,
			wantErr: "amount",
		},
		{
			name: "self settlement",
			ledger: `
group: {id: g, participants: [a, b]}
settlements:
  - {from: a, to: a, amount: "5"}
`,
			wantErr: "yourself",
		},
		{
			name:    "no participants",
			ledger:  "group: {id: g}\n",
			wantErr: "data integrity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runSplitsettle(t, "balances", writeFile(t, "ledger.yaml", tt.ledger))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "splitsettle.db")
	cfg := writeFile(t, "splitsettle.yaml", "storage:\n  type: sqlite\n  sqlite_path: "+dbPath+"\n")
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("DB_PATH", "")

	out, err := runSplitsettle(t, "migrate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite storage is up to date")
	assert.FileExists(t, dbPath)
}

func TestServe_InvalidConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg := writeFile(t, "splitsettle.yaml", "storage:\n  type: memory\n")

	_, err := runSplitsettle(t, "serve", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestBalances_Itemized(t *testing.T) {
	out, err := runSplitsettle(t, "balances", writeFile(t, "ledger.yaml", `
group:
  participants: [a, b]
expenses:
  - description: Dinner
    amount: "33"
    paid_by: b
    items:
      - {description: Pizza, amount: "20", assigned_to: [a, b]}
      - {description: Salad, amount: "10", assigned_to: [a]}
`))
	require.NoError(t, err)
	assert.Contains(t, out, "a pays b 22.00")
}
