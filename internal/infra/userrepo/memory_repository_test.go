package userrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/auth"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, auth.User{Email: "a@example.com", Name: "Ann", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	_, err = repo.Create(ctx, auth.User{Email: "a@example.com"})
	require.ErrorIs(t, err, auth.ErrEmailExists)

	created.City = "Oslo"
	created.HealthConditions = []string{"asthma"}
	created.PasswordHash = "ignored"
	updated, err := repo.UpdateProfile(ctx, created)
	require.NoError(t, err)
	require.Equal(t, "Oslo", updated.City)
	require.Equal(t, "hash", updated.PasswordHash)

	updated.HealthConditions[0] = "mutated"
	byEmail, found, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"asthma"}, byEmail.HealthConditions)

	_, found, err = repo.GetByID(ctx, 7)
	require.NoError(t, err)
	require.False(t, found)

	_, err = repo.UpdateProfile(ctx, auth.User{ID: 7})
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}
