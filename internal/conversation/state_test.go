package conversation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchbot/internal/conversation"
	"github.com/oggyb/matchbot/internal/testutil"
)

func TestDecodeRejectsUnknownKinds(t *testing.T) {
	_, err := conversation.Decode([]byte(`{"kind":"registering"}`))
	assert.ErrorIs(t, err, conversation.ErrUnknownState)

	_, err = conversation.Decode([]byte(`{"kind":"in_thread"}`))
	assert.ErrorIs(t, err, conversation.ErrUnknownState)

	_, err = conversation.Decode([]byte(`{"kind":"awaiting_block_reason"}`))
	assert.ErrorIs(t, err, conversation.ErrUnknownState)

	st, err := conversation.Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, conversation.Idle{}, st)
}

func TestEncodeDecode(t *testing.T) {
	for _, st := range []conversation.State{
		conversation.Idle{},
		conversation.AwaitingCandidateDecision{CandidateID: 7},
		conversation.InThread{ThreadID: "abc"},
		conversation.AwaitingBlockReason{BlockedID: 9},
	} {
		data, err := conversation.Encode(st)
		require.NoError(t, err)
		got, err := conversation.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	rc, mr := testutil.SetupTestRedis(t)
	store := conversation.NewStore(rc, time.Hour)

	st, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, conversation.Idle{}, st)

	require.NoError(t, store.Set(ctx, 42, conversation.InThread{ThreadID: "t-1"}))
	assert.Equal(t, time.Hour, mr.TTL(conversation.Key(42)))

	st, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, conversation.InThread{ThreadID: "t-1"}, st)

	require.NoError(t, store.Set(ctx, 42, conversation.Idle{}))
	assert.False(t, mr.Exists(conversation.Key(42)))

	// garbage is treated as idle and cleaned up
	require.NoError(t, mr.Set(conversation.Key(43), "not json"))
	st, err = store.Get(ctx, 43)
	require.NoError(t, err)
	assert.Equal(t, conversation.Idle{}, st)
	assert.False(t, mr.Exists(conversation.Key(43)))
}
