package apiconnect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/pkg/api"
)

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&api.GetBalancesResponse{
		GroupID:      "g1",
		Participants: []string{"a"},
		Balances:     map[string]json.Number{"a": "12.50"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"groupId":"g1","participants":["a"],"balances":{"a":12.50}}`, string(data))

	var req api.CreateExpenseRequest
	require.NoError(t, c.Unmarshal([]byte(`{"groupId":"g1","amount":"10.00","splitEquallyAmong":["a","b"]}`), &req))
	assert.Equal(t, "g1", req.GroupID)
	assert.Equal(t, "10.00", req.Amount)
	assert.Equal(t, []string{"a", "b"}, req.SplitEquallyAmong)
	assert.Nil(t, req.Date)

	var empty api.ListGroupsRequest
	assert.NoError(t, c.Unmarshal(nil, &empty))
}
