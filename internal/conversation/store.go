package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/matchbot/internal/cache"
)

// Store keeps one State per chat in Redis. Entries expire after ttl of inactivity.
type Store struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewStore(rc *cache.RedisCache, ttl time.Duration) *Store {
	return &Store{cache: rc, ttl: ttl}
}

// Key generates Redis key for a chat's conversation state
func Key(chatID int64) string {
	return fmt.Sprintf("conv:state:%d", chatID)
}

// Get returns the chat's state; a missing or expired entry is Idle.
// An unreadable entry is dropped and reported as Idle.
func (s *Store) Get(ctx context.Context, chatID int64) (State, error) {
	raw, err := s.cache.Client.Get(ctx, Key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Idle{}, nil
	}
	if err != nil {
		return nil, err
	}
	st, err := Decode(raw)
	if err != nil {
		_ = s.cache.Del(ctx, Key(chatID))
		return Idle{}, nil
	}
	return st, nil
}

// Set stores the chat's next state. Idle deletes the entry.
func (s *Store) Set(ctx context.Context, chatID int64, st State) error {
	if st == nil || st.Kind() == KindIdle {
		return s.cache.Del(ctx, Key(chatID))
	}
	data, err := Encode(st)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, Key(chatID), data, s.ttl)
}
