package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryKnownIPRegistry forgets everything on restart, so the first connect
// of every user after a restart is reported as a new address.
type MemoryKnownIPRegistry struct {
	mu  sync.RWMutex
	ips map[string]map[string]struct{}
}

func NewMemoryKnownIPRegistry() *MemoryKnownIPRegistry {
	return &MemoryKnownIPRegistry{ips: make(map[string]map[string]struct{})}
}

func (r *MemoryKnownIPRegistry) HasKnownIP(_ context.Context, username, ip string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ips[username][ip]
	return ok, nil
}

func (r *MemoryKnownIPRegistry) RememberIP(_ context.Context, username, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.ips[username]
	if !ok {
		set = make(map[string]struct{})
		r.ips[username] = set
	}
	set[ip] = struct{}{}
	return nil
}

// RedisKnownIPRegistry keeps one set per user under <prefix>:<username>.
type RedisKnownIPRegistry struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisKnownIPRegistry(client redis.UniversalClient, prefix string) *RedisKnownIPRegistry {
	if prefix == "" {
		prefix = "ocstat:known-ips"
	}
	return &RedisKnownIPRegistry{client: client, prefix: prefix}
}

func (r *RedisKnownIPRegistry) key(username string) string {
	return r.prefix + ":" + username
}

func (r *RedisKnownIPRegistry) HasKnownIP(ctx context.Context, username, ip string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key(username), ip).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check known ip: %w", err)
	}
	return ok, nil
}

func (r *RedisKnownIPRegistry) RememberIP(ctx context.Context, username, ip string) error {
	if err := r.client.SAdd(ctx, r.key(username), ip).Err(); err != nil {
		return fmt.Errorf("failed to remember ip: %w", err)
	}
	return nil
}

// ListKnownIPs returns every address recorded for username.
func (r *RedisKnownIPRegistry) ListKnownIPs(ctx context.Context, username string) ([]string, error) {
	ips, err := r.client.SMembers(ctx, r.key(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list known ips: %w", err)
	}
	return ips, nil
}
