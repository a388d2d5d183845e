// ABOUTME: Tests for API key pair parsing
// ABOUTME: Covers valid lists, whitespace, and malformed pairs

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIKeys(t *testing.T) {
	keys, err := ParseAPIKeys("alice:key-one,bob:key-two")
	require.NoError(t, err)

	assert.Equal(t, "alice", keys["key-one"])
	assert.Equal(t, "bob", keys["key-two"])
	assert.Len(t, keys, 2)
}

func TestParseAPIKeys_Whitespace(t *testing.T) {
	keys, err := ParseAPIKeys(" alice:key-one , bob:key-two ")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestParseAPIKeys_Empty(t *testing.T) {
	keys, err := ParseAPIKeys("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestParseAPIKeys_KeyContainsColon(t *testing.T) {
	// Only the first colon separates user from key
	keys, err := ParseAPIKeys("svc:abc:def")
	require.NoError(t, err)
	assert.Equal(t, "svc", keys["abc:def"])
}

func TestParseAPIKeys_Malformed(t *testing.T) {
	_, err := ParseAPIKeys("just-a-key")
	assert.Error(t, err)

	_, err = ParseAPIKeys(":key-without-user")
	assert.Error(t, err)

	_, err = ParseAPIKeys("user-without-key:")
	assert.Error(t, err)
}

func TestParseAPIKeys_DuplicateKey(t *testing.T) {
	_, err := ParseAPIKeys("alice:same,bob:same")
	assert.Error(t, err)
}
