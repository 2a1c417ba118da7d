package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	var p password
	require.NoError(t, p.Set("hunter22"))
	assert.NoError(t, p.Compare("hunter22"))
	assert.Error(t, p.Compare("hunter23"))
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := &User{Name: "Asha", Email: "  Asha@Example.com ", Role: RoleAdmin}
	require.NoError(t, u.Password.Set("secret1"))
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "asha@example.com", u.Email)

	dup := &User{Name: "Other", Email: "ASHA@example.com"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "asha@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, got.Password.Compare("secret1"))

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, byID.Role)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
