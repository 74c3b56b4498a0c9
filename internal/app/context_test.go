package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchbot/internal/app"
	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/testutil"
)

// Walks the whole flow: A likes B, B likes A, A writes to B.
func TestCoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.SetupTestDB(t)
	rc, _ := testutil.SetupTestRedis(t)
	ch := &testutil.RecordingChannel{}

	appCtx := app.New(gdb, rc, logger.Discard())
	appCtx.Notifier = ch
	core := app.NewCore(appCtx)

	a := testutil.CreateProfile(t, gdb, "A", 30, db.GenderMale, db.OrientationHetero)
	b := testutil.CreateProfile(t, gdb, "B", 28, db.GenderFemale, db.OrientationHetero)

	next, err := core.Swipe.NextCandidate(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, b.ID, next.ID)

	res, err := core.Swipe.RecordDecision(ctx, a.ID, b.ID, true)
	require.NoError(t, err)
	assert.Nil(t, res.Match)

	res, err = core.Swipe.RecordDecision(ctx, b.ID, a.ID, true)
	require.NoError(t, err)
	require.NotNil(t, res.Match)

	sent, err := core.Chat.SendMessage(ctx, res.Match.ThreadID, a.ID, "hi")
	require.NoError(t, err)
	assert.NoError(t, sent.Warning)

	history, err := core.Chat.GetThreadHistory(ctx, res.Match.ThreadID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Body)

	// two match notifications plus the relayed message
	assert.Len(t, ch.Deliveries(), 3)

	matches, err := core.Matches.ListMatches(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
