package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/founderflow-backend/internal/config"
)

// commitScript writes the snapshot hash only when ARGV[1] equals the
// surface counter. KEYS[1] is the snapshot hash, KEYS[2] the counter.
// Only the hash gets a TTL; the counter must outlive every in-flight run.
var commitScript = goredis.NewScript(`
local latest = tonumber(redis.call('GET', KEYS[2]) or '0')
if latest ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'seq', ARGV[1], 'snap', ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// RedisStore shares surface state between API replicas.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore dials cfg.Redis and pings it before returning.
func NewRedisStore(ctx context.Context, cfg config.SurfaceConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb, cfg.KeyPrefix, cfg.TTL.Duration), nil
}

func NewRedisStoreWithClient(rdb goredis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) snapKey(surface string) string { return s.prefix + surface }
func (s *RedisStore) seqKey(surface string) string  { return s.prefix + surface + ":seq" }

func (s *RedisStore) Begin(ctx context.Context, snap Snapshot) (int64, error) {
	seq, err := s.rdb.Incr(ctx, s.seqKey(snap.Surface)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	snap.Seq = seq
	// A newer Begin may already have raced past us; losing that write is fine.
	if _, err := s.Commit(ctx, snap); err != nil {
		return 0, err
	}
	return seq, nil
}

func (s *RedisStore) Commit(ctx context.Context, snap Snapshot) (bool, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return false, err
	}
	n, err := commitScript.Run(ctx, s.rdb,
		[]string{s.snapKey(snap.Surface), s.seqKey(snap.Surface)},
		snap.Seq, raw, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis commit: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Get(ctx context.Context, surface string) (Snapshot, error) {
	raw, err := s.rdb.HGet(ctx, s.snapKey(surface), "snap").Bytes()
	if errors.Is(err, goredis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Client() goredis.UniversalClient { return s.rdb }

func (s *RedisStore) Close() error { return s.rdb.Close() }
