package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	lgcontext "github.com/vnykmshr/ledgerguard/pkg/common/context"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// RedisConfig holds configuration for the Redis-backed store.
type RedisConfig struct {
	// Client is the Redis client used for all operations. The store does
	// not own it; closing the store leaves the client open.
	Client redis.UniversalClient

	// KeyPrefix namespaces every key the store writes. Limiter names must
	// not begin with an underscore; the store reserves that range for its
	// own bookkeeping keys.
	KeyPrefix string

	// TTL is how long snapshots live in Redis. Zero means they persist.
	TTL time.Duration

	// OpTimeout bounds each Redis round trip when the caller's context
	// carries no deadline of its own.
	OpTimeout time.Duration

	// InstanceID uniquely identifies this store instance in the shared
	// instance registry. Generated when empty.
	InstanceID string
}

// DefaultRedisConfig returns the configuration used when fields are left
// unset: the "ledgerguard:state:" namespace, persistent snapshots, and a
// 500ms per-operation timeout.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		KeyPrefix:  "ledgerguard:state:",
		TTL:        0,
		OpTimeout:  500 * time.Millisecond,
		InstanceID: generateInstanceID(),
	}
}

// applyRedisDefaults sets default values for unspecified config fields.
func applyRedisDefaults(config RedisConfig) RedisConfig {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ledgerguard:state:"
	}
	if config.OpTimeout == 0 {
		config.OpTimeout = 500 * time.Millisecond
	}
	if config.InstanceID == "" {
		config.InstanceID = generateInstanceID()
	}
	return config
}

// generateInstanceID creates a unique identifier for this store instance.
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	pid := os.Getpid()

	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)

	return fmt.Sprintf("%s-%d-%x-%d", hostname, pid, randomBytes, time.Now().Unix())
}

// RedisError represents a failed Redis operation.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}

// RedisStore persists snapshots in Redis, one JSON value per limiter name.
// Saves run through a Lua script so the staleness check and the write are
// atomic even with several instances checkpointing the same limiter.
type RedisStore struct {
	config       RedisConfig
	instancesKey string
	saveScript   *redis.Script
	closed       atomic.Bool
}

// NewRedisStore creates a store on the given client and registers this
// instance in the shared registry.
func NewRedisStore(config RedisConfig) (*RedisStore, error) {
	if config.Client == nil {
		return nil, lgerrors.NewValidationError("store", "Client", nil, "required").
			WithHint("provide a redis.UniversalClient")
	}
	config = applyRedisDefaults(config)

	s := &RedisStore{
		config:       config,
		instancesKey: config.KeyPrefix + "_instances",
		saveScript:   redis.NewScript(luaSaveIfFresh),
	}

	ctx, cancel := lgcontext.EnsureTimeout(context.Background(), config.OpTimeout)
	defer cancel()

	pipe := config.Client.Pipeline()
	pipe.SAdd(ctx, s.instancesKey, config.InstanceID)
	if config.TTL > 0 {
		pipe.Expire(ctx, s.instancesKey, config.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, &RedisError{"register", err}
	}

	return s, nil
}

// stateKey returns the Redis key holding the snapshot for name.
func (s *RedisStore) stateKey(name string) string {
	return s.config.KeyPrefix + name
}

// Save stores the snapshot under name, rejecting stale ones atomically.
func (s *RedisStore) Save(ctx context.Context, name string, state bucket.State) error {
	if s.closed.Load() {
		return lgerrors.ErrClosed
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return &RedisError{"save", err}
	}

	ctx, cancel := lgcontext.EnsureTimeout(ctx, s.config.OpTimeout)
	defer cancel()

	result, err := s.saveScript.Run(ctx, s.config.Client,
		[]string{s.stateKey(name)},
		payload,
		uint64(state.LastUpdate),
		int64(s.config.TTL/time.Second),
	).Result()
	if err != nil {
		return &RedisError{"save", err}
	}

	if accepted, ok := result.(int64); !ok || accepted != 1 {
		return ErrStaleState
	}
	return nil
}

// Load returns the snapshot stored under name.
func (s *RedisStore) Load(ctx context.Context, name string) (bucket.State, error) {
	if s.closed.Load() {
		return bucket.State{}, lgerrors.ErrClosed
	}

	ctx, cancel := lgcontext.EnsureTimeout(ctx, s.config.OpTimeout)
	defer cancel()

	payload, err := s.config.Client.Get(ctx, s.stateKey(name)).Bytes()
	if err == redis.Nil {
		return bucket.State{}, ErrNotFound
	}
	if err != nil {
		return bucket.State{}, &RedisError{"load", err}
	}

	var state bucket.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return bucket.State{}, &RedisError{"decode", err}
	}
	return state, nil
}

// Delete removes the snapshot stored under name.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if s.closed.Load() {
		return lgerrors.ErrClosed
	}

	ctx, cancel := lgcontext.EnsureTimeout(ctx, s.config.OpTimeout)
	defer cancel()

	removed, err := s.config.Client.Del(ctx, s.stateKey(name)).Result()
	if err != nil {
		return &RedisError{"delete", err}
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the names of all stored snapshots in sorted order.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, lgerrors.ErrClosed
	}

	ctx, cancel := lgcontext.EnsureTimeout(ctx, s.config.OpTimeout)
	defer cancel()

	names := make([]string, 0)
	iter := s.config.Client.Scan(ctx, 0, s.config.KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		name := strings.TrimPrefix(iter.Val(), s.config.KeyPrefix)
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	if err := iter.Err(); err != nil {
		return nil, &RedisError{"list", err}
	}

	sort.Strings(names)
	return names, nil
}

// Instances returns the IDs of all store instances registered under this
// prefix, including ones on other processes.
func (s *RedisStore) Instances(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, lgerrors.ErrClosed
	}

	ctx, cancel := lgcontext.EnsureTimeout(ctx, s.config.OpTimeout)
	defer cancel()

	instances, err := s.config.Client.SMembers(ctx, s.instancesKey).Result()
	if err != nil {
		return nil, &RedisError{"instances", err}
	}
	sort.Strings(instances)
	return instances, nil
}

// InstanceID returns the identifier this store registered under.
func (s *RedisStore) InstanceID() string {
	return s.config.InstanceID
}

// Close deregisters this instance. The Redis client stays open; it belongs
// to the caller. Close is safe to call more than once.
func (s *RedisStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	ctx, cancel := lgcontext.EnsureTimeout(context.Background(), s.config.OpTimeout)
	defer cancel()

	if err := s.config.Client.SRem(ctx, s.instancesKey, s.config.InstanceID).Err(); err != nil {
		return &RedisError{"deregister", err}
	}
	return nil
}

// luaSaveIfFresh writes a snapshot unless the stored one is newer. Comparing
// inside Redis keeps check-then-set atomic across instances.
const luaSaveIfFresh = `
-- KEYS[1]: state key
-- ARGV[1]: serialized snapshot
-- ARGV[2]: last_update of the incoming snapshot
-- ARGV[3]: ttl in seconds, 0 to persist

local current = redis.call('GET', KEYS[1])
if current then
    local decoded = cjson.decode(current)
    if tonumber(decoded['last_update']) > tonumber(ARGV[2]) then
        return 0
    end
end

if tonumber(ARGV[3]) > 0 then
    redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[3])
else
    redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`
