package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/testutil"
)

func TestSeedTestData(t *testing.T) {
	database := testutil.SetupTestDB(t)

	// run twice: the second run must start from a clean slate
	require.NoError(t, db.SeedTestData(database))
	require.NoError(t, db.SeedTestData(database))

	var profiles int64
	require.NoError(t, database.Model(&db.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(20), profiles)

	var decisions []db.SwipeDecision
	require.NoError(t, database.Find(&decisions).Error)
	assert.Len(t, decisions, 60)

	pairs := make(map[[2]uint64]bool)
	for _, d := range decisions {
		lo, hi := db.OrderedPair(d.SwiperID, d.CandidateID)
		assert.False(t, pairs[[2]uint64{lo, hi}], "seed must not create reciprocal decisions")
		pairs[[2]uint64{lo, hi}] = true
	}

	var matches int64
	require.NoError(t, database.Model(&db.Match{}).Count(&matches).Error)
	assert.Zero(t, matches)
}

func TestMatchHelpers(t *testing.T) {
	lo, hi := db.OrderedPair(9, 3)
	assert.Equal(t, uint64(3), lo)
	assert.Equal(t, uint64(9), hi)

	m := db.Match{ParticipantA: 3, ParticipantB: 9}
	other, ok := m.Other(9)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), other)

	_, ok = m.Other(4)
	assert.False(t, ok)
	assert.True(t, m.HasParticipant(3))
	assert.False(t, m.HasParticipant(4))
}

func TestSQLLogLevel(t *testing.T) {
	assert.NotEqual(t, db.SQLLogLevel("debug"), db.SQLLogLevel("info"))
}

func TestParseGenderAndOrientation(t *testing.T) {
	g, ok := db.ParseGender(" Female ")
	assert.True(t, ok)
	assert.Equal(t, db.GenderFemale, g)
	_, ok = db.ParseGender("robot")
	assert.False(t, ok)

	o, ok := db.ParseOrientation("straight")
	assert.True(t, ok)
	assert.Equal(t, db.OrientationHetero, o)
	o, ok = db.ParseOrientation("BI")
	assert.True(t, ok)
	assert.Equal(t, db.OrientationBi, o)
	_, ok = db.ParseOrientation("")
	assert.False(t, ok)
}
