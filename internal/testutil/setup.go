package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/config"
	"github.com/oggyb/matchbot/internal/db"
)

// SetupTestDB opens an isolated in-memory SQLite database named after the test
// and runs the migrations. A single pooled connection keeps every goroutine on
// the same in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "SetupTestDB: Open")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database), "SetupTestDB: Migrate")
	return database
}

// SetupTestRedis starts a miniredis and returns a cache bound to it.
func SetupTestRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Password = ""
	cfg.Redis.DB = 0

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Client.Close() })
	return rc, mr
}

// ProfileOpt tweaks a fixture profile before it is stored.
type ProfileOpt func(*db.Profile)

func WithCity(city string) ProfileOpt {
	return func(p *db.Profile) { p.City = city }
}

func Placeholder() ProfileOpt {
	return func(p *db.Profile) { p.Completed = false; p.Age = 0 }
}

// CreateProfile inserts a completed, active profile and returns it.
func CreateProfile(t *testing.T, gdb *gorm.DB, name string, age int, gender db.Gender, orientation db.Orientation, opts ...ProfileOpt) *db.Profile {
	t.Helper()

	p := &db.Profile{
		ExternalID:  "ext-" + strings.ToLower(name),
		DisplayName: name,
		Age:         age,
		Gender:      gender,
		Orientation: orientation,
		City:        "Kyiv",
		Language:    "en",
		Completed:   true,
		Active:      true,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}
