package dating_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/app"
	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/server"
	"github.com/oggyb/matchbot/internal/service/dating"
	"github.com/oggyb/matchbot/internal/testutil"
)

//
// Test helpers
//

type fixture struct {
	client *dating.Client
	db     *gorm.DB
	redis  *miniredis.Miniredis
	notes  *testutil.RecordingChannel
	users  [3]*db.Profile
}

// seedMinimalTestData inserts a small deterministic dataset.
//
// Dataset:
//   - Profiles: user1 (male), user2 (female), user3 (female), all hetero
//   - Decisions:
//   - user1 → user2 = like
//   - user3 → user1 = like (excluded from lists since user1 passed user3)
//   - user1 → user3 = pass
func seedMinimalTestData(t *testing.T, gdb *gorm.DB) [3]*db.Profile {
	t.Helper()

	users := [3]*db.Profile{
		testutil.CreateProfile(t, gdb, "user1", 30, db.GenderMale, db.OrientationHetero),
		testutil.CreateProfile(t, gdb, "user2", 29, db.GenderFemale, db.OrientationHetero),
		testutil.CreateProfile(t, gdb, "user3", 31, db.GenderFemale, db.OrientationHetero),
	}
	decisions := []db.SwipeDecision{
		{SwiperID: users[0].ID, CandidateID: users[1].ID, Liked: true},
		{SwiperID: users[2].ID, CandidateID: users[0].ID, Liked: true},
		{SwiperID: users[0].ID, CandidateID: users[2].ID, Liked: false},
	}
	require.NoError(t, gdb.Create(&decisions).Error)
	return users
}

// setupService serves the dating service over bufconn, backed by in-memory
// SQLite and miniredis, and returns a client bound to it.
func setupService(t *testing.T) *fixture {
	t.Helper()

	gdb := testutil.SetupTestDB(t)
	rc, mr := testutil.SetupTestRedis(t)
	notes := &testutil.RecordingChannel{Fail: map[string]error{}}

	appCtx := app.New(gdb, rc, logger.Discard())
	appCtx.Notifier = notes

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(dating.NewRegistrar(appCtx))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &fixture{
		client: dating.NewClient(conn),
		db:     gdb,
		redis:  mr,
		notes:  notes,
		users:  seedMinimalTestData(t, gdb),
	}
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), err.Error())
}

//
// Tests
//

// TestRecordDecisionAndMutualLike ensures that user2 liking user1 back creates
// a match, and that repeating the call returns the same match.
func TestRecordDecisionAndMutualLike(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	u1, u2 := f.users[0], f.users[1]

	resp, err := f.client.RecordDecision(ctx, &dating.RecordDecisionRequest{ViewerID: u2.ID, CandidateID: u1.ID, Liked: true})
	require.NoError(t, err)
	require.NotNil(t, resp.Match)
	assert.True(t, resp.Liked)
	assert.False(t, resp.Duplicate)
	assert.NotEmpty(t, resp.Match.ThreadID)
	assert.Equal(t, u1.ID, resp.Match.ParticipantA)
	assert.Equal(t, u2.ID, resp.Match.ParticipantB)

	// both sides were told
	assert.Len(t, f.notes.To(u1.ExternalID), 1)
	assert.Len(t, f.notes.To(u2.ExternalID), 1)

	again, err := f.client.RecordDecision(ctx, &dating.RecordDecisionRequest{ViewerID: u2.ID, CandidateID: u1.ID, Liked: false})
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.True(t, again.Liked, "first decision is final")
	require.NotNil(t, again.Match)
	assert.Equal(t, resp.Match.ID, again.Match.ID)
}

// TestListLikedYou expects only user2 once user2 likes user1; user3 is hidden
// because user1 passed user3.
func TestListLikedYou(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	u1, u2 := f.users[0], f.users[1]

	resp, err := f.client.ListLikedYou(ctx, &dating.ListLikedYouRequest{RecipientID: u1.ID})
	require.NoError(t, err)
	assert.Empty(t, resp.Likers)

	_, err = f.client.RecordDecision(ctx, &dating.RecordDecisionRequest{ViewerID: u2.ID, CandidateID: u1.ID, Liked: true})
	require.NoError(t, err)

	resp, err = f.client.ListLikedYou(ctx, &dating.ListLikedYouRequest{RecipientID: u1.ID})
	require.NoError(t, err)
	require.Len(t, resp.Likers, 1)
	assert.Equal(t, u2.ID, resp.Likers[0].ProfileID)
	assert.Positive(t, resp.Likers[0].UnixTimestamp)
	assert.Nil(t, resp.NextPaginationToken)

	// user1 already liked user2 back
	fresh, err := f.client.ListLikedYou(ctx, &dating.ListLikedYouRequest{RecipientID: u1.ID, NewOnly: true})
	require.NoError(t, err)
	assert.Empty(t, fresh.Likers)

	// user2 sees user1 as a liker
	resp, err = f.client.ListLikedYou(ctx, &dating.ListLikedYouRequest{RecipientID: u2.ID})
	require.NoError(t, err)
	require.Len(t, resp.Likers, 1)
	assert.Equal(t, u1.ID, resp.Likers[0].ProfileID)

	bad := "%%%"
	_, err = f.client.ListLikedYou(ctx, &dating.ListLikedYouRequest{RecipientID: u1.ID, PaginationToken: &bad})
	requireCode(t, err, codes.InvalidArgument)
}

// TestCountLikedYouCache verifies counts are cached in Redis and dropped when
// a new like arrives.
func TestCountLikedYouCache(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	u1, u2 := f.users[0], f.users[1]

	// user3 → user1 does not count, user1 passed user3
	resp, err := f.client.CountLikedYou(ctx, &dating.CountLikedYouRequest{RecipientID: u1.ID})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), resp.Count)

	key := "likes:count:" + strconv.FormatUint(u1.ID, 10)
	cached, err := f.redis.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "0", cached)

	_, err = f.client.RecordDecision(ctx, &dating.RecordDecisionRequest{ViewerID: u2.ID, CandidateID: u1.ID, Liked: true})
	require.NoError(t, err)
	assert.False(t, f.redis.Exists(key))

	resp, err = f.client.CountLikedYou(ctx, &dating.CountLikedYouRequest{RecipientID: u1.ID})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Count)
}

func TestRegisterProfileAndNextCandidate(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	u1 := f.users[0]

	// user1 has decided on everyone so far
	next, err := f.client.NextCandidate(ctx, &dating.NextCandidateRequest{ViewerID: u1.ID})
	require.NoError(t, err)
	assert.Nil(t, next.Candidate)

	reg, err := f.client.RegisterProfile(ctx, &dating.RegisterProfileRequest{
		ExternalID:  "555",
		DisplayName: "Olena",
		Age:         28,
		Gender:      "f",
		Orientation: "straight",
		City:        "Kyiv",
		Bio:         "hi",
	})
	require.NoError(t, err)
	assert.True(t, reg.Created)
	assert.Equal(t, "female", reg.Profile.Gender)
	assert.Equal(t, "hetero", reg.Profile.Orientation)

	// re-registering updates the same profile
	again, err := f.client.RegisterProfile(ctx, &dating.RegisterProfileRequest{
		ExternalID: "555", DisplayName: "Olena", Age: 29, Gender: "female", Orientation: "hetero", City: "Kyiv",
	})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, reg.Profile.ID, again.Profile.ID)
	assert.Equal(t, 29, again.Profile.Age)

	next, err = f.client.NextCandidate(ctx, &dating.NextCandidateRequest{ViewerID: u1.ID})
	require.NoError(t, err)
	require.NotNil(t, next.Candidate)
	assert.Equal(t, reg.Profile.ID, next.Candidate.ID)

	// a city-only preference for another city hides her
	_, err = f.client.SetSearchPreference(ctx, &dating.SetSearchPreferenceRequest{ProfileID: u1.ID, MinAge: 18, MaxAge: 40, CityOnly: true})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&db.Profile{}).Where("id = ?", reg.Profile.ID).Update("city", "Lviv").Error)

	next, err = f.client.NextCandidate(ctx, &dating.NextCandidateRequest{ViewerID: u1.ID})
	require.NoError(t, err)
	assert.Nil(t, next.Candidate)
}

func TestValidationErrors(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	u1 := f.users[0]

	_, err := f.client.NextCandidate(ctx, &dating.NextCandidateRequest{})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.NextCandidate(ctx, &dating.NextCandidateRequest{ViewerID: 999})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.RecordDecision(ctx, &dating.RecordDecisionRequest{ViewerID: u1.ID, CandidateID: u1.ID, Liked: true})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.RegisterProfile(ctx, &dating.RegisterProfileRequest{ExternalID: "1", Age: 16, Gender: "male", Orientation: "hetero"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.RegisterProfile(ctx, &dating.RegisterProfileRequest{ExternalID: "1", Age: 20, Gender: "robot", Orientation: "hetero"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.SetSearchPreference(ctx, &dating.SetSearchPreferenceRequest{ProfileID: u1.ID, MinAge: 30, MaxAge: 20})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.SetSearchPreference(ctx, &dating.SetSearchPreferenceRequest{ProfileID: 999, MinAge: 18, MaxAge: 20})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.ListMatches(ctx, &dating.ListMatchesRequest{ProfileID: 999})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.GetThreadHistory(ctx, &dating.GetThreadHistoryRequest{ThreadID: "missing"})
	requireCode(t, err, codes.NotFound)
}

func TestChatAndModeration(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	u1, u2, u3 := f.users[0], f.users[1], f.users[2]

	dec, err := f.client.RecordDecision(ctx, &dating.RecordDecisionRequest{ViewerID: u2.ID, CandidateID: u1.ID, Liked: true})
	require.NoError(t, err)
	require.NotNil(t, dec.Match)
	thread := dec.Match.ThreadID

	sent, err := f.client.SendMessage(ctx, &dating.SendMessageRequest{ThreadID: thread, SenderID: u1.ID, Body: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", sent.Message.Body)
	assert.Empty(t, sent.DeliveryWarning)

	// delivery failure keeps the message
	f.notes.Fail[u1.ExternalID] = errors.New("chat unreachable")
	sent, err = f.client.SendMessage(ctx, &dating.SendMessageRequest{ThreadID: thread, SenderID: u2.ID, Body: "hey"})
	require.NoError(t, err)
	assert.NotEmpty(t, sent.DeliveryWarning)

	history, err := f.client.GetThreadHistory(ctx, &dating.GetThreadHistoryRequest{ThreadID: thread})
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "hello", history.Messages[0].Body)
	assert.Equal(t, "hey", history.Messages[1].Body)

	page, err := f.client.GetThreadHistory(ctx, &dating.GetThreadHistoryRequest{ThreadID: thread, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	require.NotNil(t, page.NextPaginationToken)
	page, err = f.client.GetThreadHistory(ctx, &dating.GetThreadHistoryRequest{ThreadID: thread, PaginationToken: page.NextPaginationToken, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "hey", page.Messages[0].Body)

	_, err = f.client.SendMessage(ctx, &dating.SendMessageRequest{ThreadID: thread, SenderID: u3.ID, Body: "hi"})
	requireCode(t, err, codes.PermissionDenied)

	_, err = f.client.SendMessage(ctx, &dating.SendMessageRequest{ThreadID: thread, SenderID: u1.ID, Body: "   "})
	requireCode(t, err, codes.InvalidArgument)

	matches, err := f.client.ListMatches(ctx, &dating.ListMatchesRequest{ProfileID: u1.ID})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, thread, matches.Matches[0].ThreadID)

	reason := "rude"
	_, err = f.client.Block(ctx, &dating.BlockRequest{BlockerID: u2.ID, BlockedID: u1.ID, Reason: &reason})
	require.NoError(t, err)

	blocked, err := f.client.IsBlocked(ctx, &dating.IsBlockedRequest{ProfileA: u1.ID, ProfileB: u2.ID})
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)

	_, err = f.client.SendMessage(ctx, &dating.SendMessageRequest{ThreadID: thread, SenderID: u1.ID, Body: "why?"})
	requireCode(t, err, codes.PermissionDenied)

	_, err = f.client.Block(ctx, &dating.BlockRequest{BlockerID: u1.ID, BlockedID: u1.ID})
	requireCode(t, err, codes.InvalidArgument)

	un, err := f.client.Unblock(ctx, &dating.UnblockRequest{BlockerID: u2.ID, BlockedID: u1.ID})
	require.NoError(t, err)
	assert.True(t, un.Unblocked)

	un, err = f.client.Unblock(ctx, &dating.UnblockRequest{BlockerID: u2.ID, BlockedID: u1.ID})
	require.NoError(t, err)
	assert.False(t, un.Unblocked)

	report, err := f.client.SubmitReport(ctx, &dating.SubmitReportRequest{ReporterID: &u2.ID, ReportedID: u1.ID, Reason: "spam"})
	require.NoError(t, err)
	assert.NotZero(t, report.ReportID)

	system, err := f.client.SubmitReport(ctx, &dating.SubmitReportRequest{ReportedID: u3.ID, Reason: "flagged"})
	require.NoError(t, err)
	assert.Greater(t, system.ReportID, report.ReportID)

	_, err = f.client.SubmitReport(ctx, &dating.SubmitReportRequest{ReportedID: 999, Reason: "x"})
	requireCode(t, err, codes.NotFound)
}
