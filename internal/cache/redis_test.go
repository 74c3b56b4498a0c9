package cache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/testutil"
)

func TestLikeCount(t *testing.T) {
	ctx := context.Background()
	rc, mr := testutil.SetupTestRedis(t)

	_, found, err := rc.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rc.UpdateLikeCount(ctx, 7, 3))

	n, found, err := rc.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, cache.LikeCountTTL, mr.TTL(rc.KeyForLikeCount(7)))

	require.NoError(t, rc.InvalidateLikeCount(ctx, 7))
	_, found, _ = rc.GetLikeCount(ctx, 7)
	assert.False(t, found)
}

func TestPublishChatEvent(t *testing.T) {
	ctx := context.Background()
	rc, _ := testutil.SetupTestRedis(t)

	sub := rc.Client.Subscribe(ctx, cache.ChatChannel("thread-1"))
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	require.NoError(t, rc.PublishChatEvent(ctx, cache.ChatEvent{
		ThreadID: "thread-1", MessageID: 5, SenderID: 1, Body: "hi", SentAt: time.Now().UTC(),
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, cache.ChatChannel("thread-1"), msg.Channel)

	var got cache.ChatEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "message", got.Type)
	assert.Equal(t, uint64(5), got.MessageID)
	assert.Equal(t, "hi", got.Body)
}
