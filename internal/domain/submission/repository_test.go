package submission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"databox/internal/database"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// An in-memory sqlite database exists per connection; keep the pool at
	// one so every query sees the same database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, &Submission{}))
	return NewRepository(db)
}

func TestRepository_CreateAndGetByCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := &Submission{Email: "a@x.com", Code: "K", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, sub))
	assert.NotZero(t, sub.ID)

	got, err := repo.GetByCode(ctx, "K")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.False(t, got.Claimed)

	_, err = repo.GetByCode(ctx, "unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ClaimIsExactlyOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Submission{Email: "a@x.com", Code: "K", CreatedAt: time.Now().UTC()}))

	var wg sync.WaitGroup
	wins := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.Claim(ctx, "K")
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one claimant may win")
}

func TestRepository_ReleaseMakesClaimableAgain(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Submission{Email: "a@x.com", Code: "K", CreatedAt: time.Now().UTC()}))

	won, err := repo.Claim(ctx, "K")
	require.NoError(t, err)
	require.True(t, won)

	require.NoError(t, repo.Release(ctx, "K"))

	won, err = repo.Claim(ctx, "K")
	require.NoError(t, err)
	assert.True(t, won)
}

func TestRepository_DeleteIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := &Submission{Email: "a@x.com", Code: "K", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, sub))

	require.NoError(t, repo.Delete(ctx, sub.ID))
	require.NoError(t, repo.Delete(ctx, sub.ID), "double delete is a no-op")
}

func TestRepository_DeleteExpiredBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := &Submission{Email: "old@x.com", Code: "OLD", CreatedAt: now.Add(-49 * time.Hour)}
	fresh := &Submission{Email: "new@x.com", Code: "NEW", CreatedAt: now}
	stale := &Submission{Email: "s@x.com", Code: "STALE", CreatedAt: now.Add(-49 * time.Hour), Claimed: true}
	inflight := &Submission{Email: "c@x.com", Code: "INFLIGHT", CreatedAt: now.Add(-time.Minute), Claimed: true}
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, inflight))

	deleted, err := repo.DeleteExpiredBefore(ctx, now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = repo.GetByCode(ctx, "OLD")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A claim orphaned by a crash mid-finalize goes too once past the TTL.
	_, err = repo.GetByCode(ctx, "STALE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByCode(ctx, "NEW")
	assert.NoError(t, err)

	// A claim within the TTL is an in-flight finalize, not the sweep's business.
	_, err = repo.GetByCode(ctx, "INFLIGHT")
	assert.NoError(t, err)
}
