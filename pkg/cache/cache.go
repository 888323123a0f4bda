package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	userStatePrefix    = "user_state:"
	customFieldsPrefix = "custom_fields:"
)

// UserState is the cached view of a user and their current subscription
type UserState struct {
	User         *domain.User                `json:"user"`
	Subscription *domain.CurrentSubscription `json:"subscription,omitempty"`
	CachedAt     time.Time                   `json:"cached_at"`
}

// Redis caches user state and the active custom fields of each company.
// Read and write failures are logged and treated as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) getJSON(ctx context.Context, key string, dst any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", key).Warn("cache: read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: corrupt entry")
		r.client.Del(ctx, key)
		return false
	}
	return true
}

func (r *Redis) setJSON(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: encode failed")
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache: write failed")
	}
}

func (r *Redis) del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		log.WithError(err).WithField("keys", keys).Warn("cache: invalidate failed")
	}
}

func (r *Redis) GetUserState(ctx context.Context, userID uuid.UUID) (*UserState, bool) {
	var st UserState
	if !r.getJSON(ctx, userStatePrefix+userID.String(), &st) {
		return nil, false
	}
	return &st, true
}

func (r *Redis) SetUserState(ctx context.Context, user *domain.User, sub *domain.CurrentSubscription) {
	r.setJSON(ctx, userStatePrefix+user.ID.String(), UserState{User: user, Subscription: sub, CachedAt: time.Now()})
}

func (r *Redis) InvalidateUser(ctx context.Context, userIDs ...uuid.UUID) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userStatePrefix + id.String()
	}
	r.del(ctx, keys...)
}

func (r *Redis) GetCustomFields(ctx context.Context, companyID uuid.UUID) ([]domain.CustomField, bool) {
	var fields []domain.CustomField
	if !r.getJSON(ctx, customFieldsPrefix+companyID.String(), &fields) {
		return nil, false
	}
	return fields, true
}

func (r *Redis) SetCustomFields(ctx context.Context, companyID uuid.UUID, fields []domain.CustomField) {
	r.setJSON(ctx, customFieldsPrefix+companyID.String(), fields)
}

func (r *Redis) InvalidateCustomFields(ctx context.Context, companyID uuid.UUID) {
	r.del(ctx, customFieldsPrefix+companyID.String())
}

// Ping is used by the readiness probe
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
