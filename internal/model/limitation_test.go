package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitValue_Allows(t *testing.T) {
	assert.True(t, LimitUnlimited.Allows(0))
	assert.True(t, LimitUnlimited.Allows(1_000_000))

	assert.False(t, LimitNone.Allows(0))

	five := LimitValue(5)
	assert.True(t, five.Allows(0))
	assert.True(t, five.Allows(4))
	// Strict bound: the limit itself is full.
	assert.False(t, five.Allows(5))
	assert.False(t, five.Allows(6))

	one := LimitValue(1)
	assert.True(t, one.Allows(0))
	assert.False(t, one.Allows(1))
}

func TestLimitValue_UnmarshalJSON(t *testing.T) {
	var l LimitValue

	require.NoError(t, json.Unmarshal([]byte("true"), &l))
	assert.Equal(t, LimitUnlimited, l)

	require.NoError(t, json.Unmarshal([]byte("0"), &l))
	assert.Equal(t, LimitUnlimited, l)

	require.NoError(t, json.Unmarshal([]byte("false"), &l))
	assert.Equal(t, LimitNone, l)

	require.NoError(t, json.Unmarshal([]byte("25"), &l))
	assert.Equal(t, LimitValue(25), l)

	// Negative numbers collapse to none.
	require.NoError(t, json.Unmarshal([]byte("-3"), &l))
	assert.Equal(t, LimitNone, l)

	assert.Error(t, json.Unmarshal([]byte(`"five"`), &l))
}

func TestLimitValue_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(LimitUnlimited)
	require.NoError(t, err)
	assert.Equal(t, "true", string(data))

	data, err = json.Marshal(LimitNone)
	require.NoError(t, err)
	assert.Equal(t, "false", string(data))

	data, err = json.Marshal(LimitValue(10))
	require.NoError(t, err)
	assert.Equal(t, "10", string(data))
}

func TestLimitValue_Scan(t *testing.T) {
	var l LimitValue
	require.NoError(t, l.Scan(int64(7)))
	assert.Equal(t, LimitValue(7), l)

	require.NoError(t, l.Scan(int64(-1)))
	assert.Equal(t, LimitNone, l)

	require.NoError(t, l.Scan(int32(0)))
	assert.Equal(t, LimitUnlimited, l)

	assert.Error(t, l.Scan("7"))
}
