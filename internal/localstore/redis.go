package localstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/redis"
)

// kv is the slice of the redis client the store needs.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	LocalKey(namespace, key string) string
}

// Redis stores values under se:local:<namespace>:<key>.
type Redis struct {
	client    kv
	namespace string
	ttl       time.Duration
}

// NewRedis builds a Redis-backed store. A zero ttl keeps values forever.
func NewRedis(client kv, namespace string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "default"
	}
	return &Redis{client: client, namespace: namespace, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.client.LocalKey(r.namespace, key))
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.LocalKey(r.namespace, key), value, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.client.LocalKey(r.namespace, key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
