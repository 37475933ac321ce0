package repository

import (
	"context"
	"testing"

	"cafedex/internal/cache"
	"cafedex/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryCreateDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{
		Username:    "alice",
		Email:       "alice@example.com",
		FirstName:   "Alice",
		LastName:    "Nguyen",
		Description: "first in",
		Password:    "hash-a",
	}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.User{
		Username:    "alice",
		Email:       "other@example.com",
		FirstName:   "Imposter",
		LastName:    "Alice",
		Description: "second",
		Password:    "hash-b",
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict), "expected conflict, got %v", err)

	// The original row must be untouched.
	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "first in", got.Description)
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{
		Username: "alice", Email: "shared@example.com",
		FirstName: "A", LastName: "N", Description: "d", Password: "h",
	}))

	err := repo.Create(ctx, &models.User{
		Username: "bob", Email: "shared@example.com",
		FirstName: "B", LastName: "M", Description: "d", Password: "h",
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestUserRepositoryLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seeded := seedUser(t, db, "carol")

	byID, err := repo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Username)

	_, err = repo.GetByID(ctx, 9999)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	// Unknown username/email are a nil user, not an error, so callers can
	// treat "no match" uniformly.
	byName, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, byName)

	byEmail, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, byEmail)
}

func TestUserRepositorySetAdmin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "dana")
	require.NoError(t, repo.SetAdmin(ctx, user.ID, true))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Admin)

	err = repo.SetAdmin(ctx, 9999, true)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepositoryCachedHashSurvivesUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	user := &models.User{
		Username:    "erin",
		Email:       "erin@example.com",
		FirstName:   "Erin",
		LastName:    "Park",
		Description: "flat white",
		Password:    "bcrypt-hash-sentinel",
	}
	require.NoError(t, repo.Create(ctx, user))

	// First read fills the cache, second is served from it.
	warm, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bcrypt-hash-sentinel", warm.Password)

	hit, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bcrypt-hash-sentinel", hit.Password,
		"cache hit must carry the stored password hash")

	// A profile edit saves the cache-resolved user; the hash column must
	// survive the round trip.
	hit.Description = "oat flat white"
	require.NoError(t, repo.Update(ctx, hit))

	var row models.User
	require.NoError(t, db.First(&row, user.ID).Error)
	assert.Equal(t, "bcrypt-hash-sentinel", row.Password)
	assert.Equal(t, "oat flat white", row.Description)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(errDummy("UNIQUE constraint failed: users.username")))
	assert.True(t, isUniqueConstraintError(errDummy(`duplicate key value violates unique constraint "idx_users_username"`)))
	assert.True(t, isUniqueConstraintError(errDummy("ERROR: some failure (SQLSTATE 23505)")))
	assert.False(t, isUniqueConstraintError(errDummy("connection refused")))
}

type errDummy string

func (e errDummy) Error() string { return string(e) }
