package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gym-buddy/internal/config"
	"gym-buddy/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(config.DatabaseConfig{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "gym.db"),
		LogLevel:   "silent",
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrateTables(db, true))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAccountRepository(newTestDB(t))

	acc := &models.Account{Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, acc))
	assert.NotEmpty(t, acc.ID)

	err := repo.Create(ctx, &models.Account{Email: "a@x.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	got, err = repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProfileRepositoryPutGet(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(newTestDB(t))
	now := time.Now().UTC()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	p := models.NewProfile("u1", "u1@x.com", 3, now)
	require.NoError(t, repo.Put(ctx, p))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@x.com", got.Email)
	assert.Equal(t, models.FitnessBeginner, got.FitnessLevel)
	assert.Equal(t, 3, got.AvatarIndex)
	assert.False(t, got.IsComplete())
	assert.NotNil(t, got.Buddies)

	// 全量覆盖
	got.Name = "Alex"
	got.WorkoutTypes = []string{"Yoga", "Running"}
	require.NoError(t, repo.Put(ctx, got))

	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", again.Name)
	assert.Equal(t, []string{"Yoga", "Running"}, []string(again.WorkoutTypes))

	locked, err := repo.GetForUpdate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", locked.Name)
	_, err = repo.GetForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	bad := models.NewProfile("u2", "u2@x.com", 0, now)
	bad.FitnessLevel = "Olympian"
	assert.ErrorIs(t, repo.Put(ctx, bad), models.ErrInvalidFitnessLevel)
}

func TestProfileRepositoryPutKeepsRelationshipSets(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(newTestDB(t))
	created := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Put(ctx, models.NewProfile("u1", "u1@x.com", 0, created)))
	_, err := repo.Patch(ctx, "u1", ProfileUpdate{Ops: []SetOp{
		AddToSet(FieldBuddies, "u2"),
		AddToSet(FieldReceivedRequests, "u3"),
	}})
	require.NoError(t, err)
	before, err := repo.Get(ctx, "u1")
	require.NoError(t, err)

	// 客户端提交的资料不带关系集合
	replacement := models.NewProfile("u1", "u1@x.com", 4, time.Now().UTC())
	replacement.Name = "Alex"
	replacement.Bio = "Morning runs"
	require.NoError(t, repo.Put(ctx, replacement))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, "Morning runs", got.Bio)
	assert.Equal(t, 4, got.AvatarIndex)
	assert.Equal(t, []string{"u2"}, []string(got.Buddies))
	assert.Equal(t, []string{"u3"}, []string(got.ReceivedRequests))
	assert.True(t, before.CreatedAt.Equal(got.CreatedAt))
}

func TestProfileRepositoryPatch(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(newTestDB(t))
	require.NoError(t, repo.Put(ctx, models.NewProfile("u1", "u1@x.com", 0, time.Now())))

	updated, err := repo.Patch(ctx, "u1", ProfileUpdate{
		Patch: models.ProfilePatch{
			Name:         models.StringPtr("  Sam "),
			FitnessLevel: models.LevelPtr(models.FitnessAdvanced),
		},
		Ops: []SetOp{
			AddToSet(FieldSentRequests, "u2"),
			AddToSet(FieldSentRequests, "u2"),
			AddToSet(FieldBuddies, "u3"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sam", updated.Name)
	assert.Equal(t, models.FitnessAdvanced, updated.FitnessLevel)
	assert.Equal(t, []string{"u2"}, []string(updated.SentRequests))

	updated, err = repo.Patch(ctx, "u1", ProfileUpdate{Ops: []SetOp{
		RemoveFromSet(FieldSentRequests, "u2"),
		RemoveFromSet(FieldReceivedRequests, "nobody"),
	}})
	require.NoError(t, err)
	assert.Empty(t, updated.SentRequests)
	assert.Equal(t, []string{"u3"}, []string(updated.Buddies))
	assert.Equal(t, "Sam", updated.Name)

	_, err = repo.Patch(ctx, "missing", ProfileUpdate{Patch: models.ProfilePatch{Name: models.StringPtr("x")}})
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	_, err = repo.Patch(ctx, "u1", ProfileUpdate{Patch: models.ProfilePatch{FitnessLevel: models.LevelPtr("Pro")}})
	assert.ErrorIs(t, err, models.ErrInvalidFitnessLevel)
}

func TestProfileRepositoryTransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(newTestDB(t))
	require.NoError(t, repo.Put(ctx, models.NewProfile("u1", "u1@x.com", 0, time.Now())))

	boom := errors.New("boom")
	err := repo.WithinTransaction(ctx, func(ctx context.Context, tx ProfileRepository) error {
		if _, err := tx.Patch(ctx, "u1", ProfileUpdate{Ops: []SetOp{AddToSet(FieldBuddies, "u9")}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Buddies)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
