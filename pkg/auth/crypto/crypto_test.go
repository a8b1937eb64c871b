package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefaultCostIsTwelve(t *testing.T) {
	h := NewHasher(0)
	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 12, cost)
}

func TestCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)

	assert.True(t, h.Compare(hash, "correct-horse"))
	assert.False(t, h.Compare(hash, "wrong-horse"))
	assert.False(t, h.Compare("not-a-hash", "correct-horse"))
}
