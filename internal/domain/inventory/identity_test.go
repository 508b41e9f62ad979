package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityModel(t *testing.T) {
	t.Run("defaults to the tuple model", func(t *testing.T) {
		model, err := ParseIdentityModel("")
		require.NoError(t, err)
		assert.Equal(t, IdentityNameStrengthExpiry, model)
	})

	t.Run("accepts both known models", func(t *testing.T) {
		model, err := ParseIdentityModel("name-strength-expiry")
		require.NoError(t, err)
		assert.Equal(t, IdentityNameStrengthExpiry, model)

		model, err = ParseIdentityModel("name-only")
		require.NoError(t, err)
		assert.Equal(t, IdentityNameOnly, model)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := ParseIdentityModel("per-shelf")
		assert.Error(t, err)
	})
}

func TestParseConflictPolicy(t *testing.T) {
	t.Run("defaults to reject", func(t *testing.T) {
		policy, err := ParseConflictPolicy("")
		require.NoError(t, err)
		assert.Equal(t, ConflictReject, policy)
	})

	t.Run("accepts merge", func(t *testing.T) {
		policy, err := ParseConflictPolicy("merge")
		require.NoError(t, err)
		assert.Equal(t, ConflictMerge, policy)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := ParseConflictPolicy("overwrite")
		assert.Error(t, err)
	})
}
