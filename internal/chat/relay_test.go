package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/chat"
	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/repository"
	"github.com/oggyb/matchbot/internal/testutil"
)

type fixture struct {
	gdb      *gorm.DB
	ann, bob *db.Profile
	match    *db.Match
}

func setup(t *testing.T) fixture {
	t.Helper()
	gdb := testutil.SetupTestDB(t)
	ann := testutil.CreateProfile(t, gdb, "Ann", 27, db.GenderFemale, db.OrientationHetero)
	bob := testutil.CreateProfile(t, gdb, "Bob", 29, db.GenderMale, db.OrientationHetero)
	m, err := repository.NewMatchRepository(gdb).Create(context.Background(), ann.ID, bob.ID, "thread-1")
	require.NoError(t, err)
	return fixture{gdb: gdb, ann: ann, bob: bob, match: m}
}

func TestSendMessageDeliversAndPersists(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ch := &testutil.RecordingChannel{}
	relay := chat.NewRelay(f.gdb, ch, nil)

	res, err := relay.SendMessage(ctx, f.match.ThreadID, f.ann.ID, "  hi  ")
	require.NoError(t, err)
	require.NoError(t, res.Warning)
	assert.Equal(t, "hi", res.Message.Body)
	assert.NotZero(t, res.Message.ID)

	assert.Equal(t, []string{"💬 Message from Ann:\n\nhi"}, ch.To(f.bob.ExternalID))

	history, err := relay.GetThreadHistory(ctx, f.match.ThreadID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, f.ann.ID, history[0].SenderID)
}

func TestSendMessagePreconditions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	relay := chat.NewRelay(f.gdb, nil, nil)
	outsider := testutil.CreateProfile(t, f.gdb, "Eve", 30, db.GenderFemale, db.OrientationBi)

	_, err := relay.SendMessage(ctx, "missing", f.ann.ID, "hi")
	assert.ErrorIs(t, err, svcErr.ErrThreadNotFound)

	_, err = relay.SendMessage(ctx, f.match.ThreadID, outsider.ID, "hi")
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	_, err = relay.SendMessage(ctx, f.match.ThreadID, f.ann.ID, " \n\t ")
	assert.ErrorIs(t, err, svcErr.ErrEmptyMessage)

	_, err = relay.SendMessage(ctx, f.match.ThreadID, f.ann.ID, strings.Repeat("я", chat.MaxBodyRunes+1))
	assert.ErrorIs(t, err, svcErr.ErrMessageTooLong)

	_, err = relay.SendMessage(ctx, f.match.ThreadID, f.ann.ID, strings.Repeat("я", chat.MaxBodyRunes))
	assert.NoError(t, err)

	require.NoError(t, repository.NewBlockRepository(f.gdb).Activate(ctx, f.bob.ID, f.ann.ID, nil))
	_, err = relay.SendMessage(ctx, f.match.ThreadID, f.ann.ID, "still there?")
	assert.ErrorIs(t, err, svcErr.ErrBlocked)

	var n int64
	require.NoError(t, f.gdb.Model(&db.Message{}).Where("thread_id = ?", f.match.ThreadID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDeliveryFailureIsAWarning(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	boom := errors.New("bot was blocked by the user")
	ch := &testutil.RecordingChannel{Fail: map[string]error{f.bob.ExternalID: boom}}
	relay := chat.NewRelay(f.gdb, ch, nil)

	res, err := relay.SendMessage(ctx, f.match.ThreadID, f.ann.ID, "hello?")
	require.NoError(t, err)
	require.NotNil(t, res.Message)

	var failure *svcErr.DeliveryFailure
	require.True(t, errors.As(res.Warning, &failure))
	assert.Equal(t, f.bob.ID, failure.RecipientID)
	assert.ErrorIs(t, res.Warning, boom)

	history, err := relay.GetThreadHistory(ctx, f.match.ThreadID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHistoryIsOrderedAndRestartable(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	relay := chat.NewRelay(f.gdb, nil, nil)

	for i, body := range []string{"a", "b", "c", "d"} {
		sender := f.ann.ID
		if i%2 == 1 {
			sender = f.bob.ID
		}
		_, err := relay.SendMessage(ctx, f.match.ThreadID, sender, body)
		require.NoError(t, err)
	}

	first, err := relay.GetThreadHistory(ctx, f.match.ThreadID)
	require.NoError(t, err)
	second, err := relay.GetThreadHistory(ctx, f.match.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 4)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].SentAt.Before(first[i-1].SentAt))
	}

	page, next, err := relay.HistoryPage(ctx, f.match.ThreadID, nil, 3)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	require.NotNil(t, next)
	rest, next, err := relay.HistoryPage(ctx, f.match.ThreadID, next, 3)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rest, 1)
	assert.Equal(t, "d", rest[0].Body)

	_, err = relay.GetThreadHistory(ctx, "missing")
	assert.ErrorIs(t, err, svcErr.ErrThreadNotFound)
}

func TestSendMessagePublishesChatEvent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	rc, _ := testutil.SetupTestRedis(t)
	relay := chat.NewRelay(f.gdb, nil, rc)

	sub := rc.Client.Subscribe(ctx, cache.ChatChannel(f.match.ThreadID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	res, err := relay.SendMessage(ctx, f.match.ThreadID, f.bob.ID, "ping")
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var event cache.ChatEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, res.Message.ID, event.MessageID)
	assert.Equal(t, "ping", event.Body)
}
