package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/m3rciful/geobot/app/dialog"
)

const (
	defaultRedisPrefix = "geobot:session:"
	// farFuture scores index members of sessions without TTL.
	farFuture = 4102444800
)

// Redis keeps sessions as JSON values with an expiry index in a sorted set.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures the redis backend.
type RedisOption func(*Redis)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRedis creates a redis backend from an existing client.
func NewRedis(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(id int64) string {
	return r.prefix + strconv.FormatInt(id, 10)
}

func (r *Redis) indexKey() string {
	return r.prefix + "index"
}

// Save persists the session and refreshes its expiry.
func (r *Redis) Save(ctx context.Context, s *dialog.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	score := float64(time.Now().Add(r.ttl).Unix())
	if r.ttl == 0 {
		score = farFuture
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.ID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{Score: score, Member: strconv.FormatInt(s.ID, 10)})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

// Load reads the session.
func (r *Redis) Load(ctx context.Context, id int64) (*dialog.Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, dialog.ErrNoSession
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}

	var s dialog.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Delete removes the session and its index entry.
func (r *Redis) Delete(ctx context.Context, id int64) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(id))
	pipe.ZRem(ctx, r.indexKey(), strconv.FormatInt(id, 10))
	_, err := pipe.Exec(ctx)
	return err
}

// List returns ids of live sessions, pruning expired index entries first.
func (r *Redis) List(ctx context.Context) ([]int64, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("prune expired sessions: %w", err)
	}

	members, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
