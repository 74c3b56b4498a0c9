package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/repository"
	"github.com/oggyb/matchbot/internal/testutil"
)

func TestCreateDecisionKeepsFirstOutcome(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.SetupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	// insert like
	d, inserted, err := repo.CreateDecision(ctx, 1, 2, true)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.True(t, d.Liked)

	// a later pass is ignored
	d, inserted, err = repo.CreateDecision(ctx, 1, 2, false)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.True(t, d.Liked)

	var rows []db.SwipeDecision
	require.NoError(t, dbase.Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.True(t, rows[0].Liked)
}

func TestGetLikersAndPagination(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.SetupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	// swipers 1,2,3,4 liked candidate 99
	for _, swiper := range []uint64{1, 2, 3, 4} {
		_, _, err := repo.CreateDecision(ctx, swiper, 99, true)
		require.NoError(t, err)
	}
	// candidate passed swiper 2 → exclude
	_, _, _ = repo.CreateDecision(ctx, 99, 2, false)

	page, next, err := repo.GetLikers(ctx, 99, nil, 2, false)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)

	rest, next2, err := repo.GetLikers(ctx, 99, next, 2, false)
	require.NoError(t, err)
	assert.Nil(t, next2)
	require.Len(t, rest, 1)

	seen := map[uint64]bool{}
	for _, d := range append(page, rest...) {
		seen[d.SwiperID] = true
	}
	assert.Equal(t, map[uint64]bool{1: true, 3: true, 4: true}, seen)

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGetLikersNewOnly(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.SetupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	// swiper 1 liked 99, and 99 liked back → mutual
	_, _, _ = repo.CreateDecision(ctx, 1, 99, true)
	_, _, _ = repo.CreateDecision(ctx, 99, 1, true)

	// swiper 2 liked 99, but not mutual
	_, _, _ = repo.CreateDecision(ctx, 2, 99, true)

	decisions, _, err := repo.GetLikers(ctx, 99, nil, 10, true)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, uint64(2), decisions[0].SwiperID)
}

func TestGetLikersSkipsBlocked(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.SetupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)
	blocks := repository.NewBlockRepository(dbase)

	_, _, _ = repo.CreateDecision(ctx, 1, 99, true)
	_, _, _ = repo.CreateDecision(ctx, 2, 99, true)
	require.NoError(t, blocks.Activate(ctx, 2, 99, nil))

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetLikersRejectsBadToken(t *testing.T) {
	repo := repository.NewDecisionRepository(testutil.SetupTestDB(t))
	bad := "!!"
	_, _, err := repo.GetLikers(context.Background(), 1, &bad, 10, false)
	assert.Error(t, err)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDecisionRepository(testutil.SetupTestDB(t))

	_, _, _ = repo.CreateDecision(ctx, 1, 2, true)
	_, _, _ = repo.CreateDecision(ctx, 3, 2, false)

	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.HasLiked(ctx, 3, 2)
	require.NoError(t, err)
	assert.False(t, liked)

	liked, err = repo.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)
}
