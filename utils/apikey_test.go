package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRoundTrip(t *testing.T) {
	key, err := GenerateAPIKey(32)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "ak_"))
	assert.Len(t, key, 35)

	other, err := GenerateAPIKey(32)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	hash, err := HashAPIKey(key)
	require.NoError(t, err)

	assert.True(t, CheckAPIKey(hash, key))
	assert.False(t, CheckAPIKey(hash, other))
	assert.False(t, CheckAPIKey("", key))
	assert.False(t, CheckAPIKey(hash, ""))
}
