package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps flow sessions in Redis, one JSON document per user.
// Redis TTL is the expiry mechanism: every Save renews the clock, so an
// abandoned form disappears on its own once the TTL elapses.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

// NewSessionRepo constructs the store. The ttl bounds how long a user may
// idle inside a flow before it is silently dropped.
func NewSessionRepo(client RedisClient, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) key(userID int64) string {
	return fmt.Sprintf("sess:%d", userID)
}

func (r *SessionRepo) Get(ctx context.Context, userID int64) (*model.Session, error) {
	data, err := r.client.Get(ctx, r.key(userID))
	if IsNil(err) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s model.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Save(ctx context.Context, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.UserID), data, r.ttl)
}

func (r *SessionRepo) Delete(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, r.key(userID))
}

// Count walks the keyspace and reports how many sessions are in flight.
// Expired keys are already gone thanks to the native TTL.
func (r *SessionRepo) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, "sess:*", 100)
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
