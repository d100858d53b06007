package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(NotFoundConflict(9))
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":9,"reason":"not_found"}`, string(b))

	b, err = json.Marshal(StockConflict(3, "Hat", "Unknown", 2, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":3,"reason":"insufficient_stock","product_name":"Hat","category":"Unknown","requested":2,"available":0}`, string(b))
}
