package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWishlist(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Add(ctx, "u1", "p1"))
	require.NoError(t, repo.Add(ctx, "u1", "p2"))
	require.NoError(t, repo.Add(ctx, "u2", "p1"))
	assert.ErrorIs(t, repo.Add(ctx, "u1", "p1"), ErrAlreadyListed)

	ids, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	ok, err := repo.Contains(ctx, "u1", "p2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Remove(ctx, "u1", "p1"))
	assert.ErrorIs(t, repo.Remove(ctx, "u1", "p1"), ErrNotListed)

	ids, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids)

	ok, err = repo.Contains(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}
