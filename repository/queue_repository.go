package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"order-entry-service/models"

	"github.com/redis/go-redis/v9"
)

// ErrEntryNotFound is returned when a token has no queue entry, either
// because it never joined or because the reaper evicted it.
var ErrEntryNotFound = errors.New("queue entry not found")

// QueueRepository is the ranked waiting line backed by Redis. Three keys per
// queue: a sorted set of waiting tokens scored by enqueue time, a set of
// allowed tokens, and a sorted set of last-seen heartbeats scored by unix
// milliseconds. Rank is always derived with ZRANK, never stored, so it
// shifts down implicitly as earlier entries are admitted or evicted.
type QueueRepository struct {
	client *redis.Client
}

func NewQueueRepository(client *redis.Client) *QueueRepository {
	return &QueueRepository{client: client}
}

const (
	waitingKey  = "queue:waiting"
	allowedKey  = "queue:allowed"
	lastSeenKey = "queue:lastseen"
)

// joinScript inserts the token if it has no live entry, otherwise refreshes
// its heartbeat and reports its current state. Runs atomically so two
// concurrent joins for one token cannot create duplicate ranks. Replies with
// {state, rank, enqueue score}.
var joinScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
  redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
  return {'allowed', 0, 0}
end
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if score then
  redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
  return {'waiting', redis.call('ZRANK', KEYS[1], ARGV[1]), score}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return {'waiting', redis.call('ZRANK', KEYS[1], ARGV[1]), ARGV[2]}
`)

// statusScript refreshes the heartbeat and reports state without ever
// inserting; returns false when the token has no entry.
var statusScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
  redis.call('ZADD', KEYS[3], ARGV[2], ARGV[1])
  return {'allowed', 0, 0}
end
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if score then
  redis.call('ZADD', KEYS[3], ARGV[2], ARGV[1])
  return {'waiting', redis.call('ZRANK', KEYS[1], ARGV[1]), score}
end
return false
`)

// Lua's unpack caps out around 8000 arguments, so bulk ZREM/SADD calls work
// on bounded slices.
const removalChunk = 1000

// admitScript promotes the lowest-ranked waiting tokens in one atomic step,
// so concurrent admitter runs can never select the same token twice.
var admitScript = redis.NewScript(`
local max = tonumber(ARGV[1])
if max <= 0 then
  return 0
end
local chunk = tonumber(ARGV[2])
local admitted = 0
while admitted < max do
  local step = math.min(chunk, max - admitted)
  local tokens = redis.call('ZRANGE', KEYS[1], 0, step - 1)
  if #tokens == 0 then
    break
  end
  redis.call('ZREM', KEYS[1], unpack(tokens))
  redis.call('SADD', KEYS[2], unpack(tokens))
  admitted = admitted + #tokens
end
return admitted
`)

// evictScript removes every entry whose heartbeat is strictly older than the
// cutoff, waiting and allowed alike. Each pass removes what it matched, so
// the LIMIT window always starts at zero and the loop terminates.
var evictScript = redis.NewScript(`
local cutoff = '(' .. ARGV[1]
local chunk = tonumber(ARGV[2])
local evicted = 0
while true do
  local stale = redis.call('ZRANGEBYSCORE', KEYS[3], '-inf', cutoff, 'LIMIT', 0, chunk)
  if #stale == 0 then
    break
  end
  redis.call('ZREM', KEYS[1], unpack(stale))
  redis.call('SREM', KEYS[2], unpack(stale))
  redis.call('ZREM', KEYS[3], unpack(stale))
  evicted = evicted + #stale
end
return evicted
`)

func (r *QueueRepository) queueKeys() []string {
	return []string{waitingKey, allowedKey, lastSeenKey}
}

// Join inserts the token into the waiting line, or refreshes its heartbeat
// and returns its current state if it already has a live entry.
func (r *QueueRepository) Join(ctx context.Context, token string, now time.Time) (*models.WaitingEntry, error) {
	res, err := joinScript.Run(ctx, r.client, r.queueKeys(),
		token, now.UnixMicro(), now.UnixMilli()).Result()
	if err != nil {
		return nil, fmt.Errorf("queue join failed: %w", err)
	}
	return r.parseEntry(token, now, res)
}

// Status refreshes the token's heartbeat and returns its state and rank.
// Returns ErrEntryNotFound when the token has no entry.
func (r *QueueRepository) Status(ctx context.Context, token string, now time.Time) (*models.WaitingEntry, error) {
	res, err := statusScript.Run(ctx, r.client, r.queueKeys(),
		token, now.UnixMilli()).Result()
	if err == redis.Nil {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("queue status failed: %w", err)
	}
	return r.parseEntry(token, now, res)
}

// Remove deletes the token's entry from all queue structures. Idempotent.
func (r *QueueRepository) Remove(ctx context.Context, token string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, waitingKey, token)
		pipe.SRem(ctx, allowedKey, token)
		pipe.ZRem(ctx, lastSeenKey, token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("queue remove failed: %w", err)
	}
	return nil
}

// AdmitBatch atomically promotes up to maxCount waiting tokens in rank order
// and returns how many were promoted.
func (r *QueueRepository) AdmitBatch(ctx context.Context, maxCount int) (int64, error) {
	if maxCount <= 0 {
		return 0, nil
	}
	n, err := admitScript.Run(ctx, r.client, r.queueKeys(), maxCount, removalChunk).Int64()
	if err != nil {
		return 0, fmt.Errorf("queue admit failed: %w", err)
	}
	return n, nil
}

// EvictStale removes every entry whose last heartbeat is older than the
// cutoff and returns how many were evicted.
func (r *QueueRepository) EvictStale(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := evictScript.Run(ctx, r.client, r.queueKeys(), olderThan.UnixMilli(), removalChunk).Int64()
	if err != nil {
		return 0, fmt.Errorf("queue evict failed: %w", err)
	}
	return n, nil
}

// IsAllowed reports whether the token has been admitted.
func (r *QueueRepository) IsAllowed(ctx context.Context, token string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, allowedKey, token).Result()
	if err != nil {
		return false, fmt.Errorf("queue allowed check failed: %w", err)
	}
	return ok, nil
}

func (r *QueueRepository) parseEntry(token string, now time.Time, res interface{}) (*models.WaitingEntry, error) {
	parts, ok := res.([]interface{})
	if !ok || len(parts) != 3 {
		return nil, fmt.Errorf("unexpected queue script reply: %v", res)
	}
	state, _ := parts[0].(string)
	rank, _ := parts[1].(int64)

	// The enqueue score arrives as a bulk string when read back via ZSCORE
	// and as an integer when the script returns a literal zero.
	var enqueuedMicro int64
	switch v := parts[2].(type) {
	case string:
		enqueuedMicro, _ = strconv.ParseInt(v, 10, 64)
	case int64:
		enqueuedMicro = v
	}

	entry := &models.WaitingEntry{
		Token:      token,
		LastSeenAt: now,
		Rank:       rank,
	}
	if enqueuedMicro > 0 {
		entry.EnqueuedAt = time.UnixMicro(enqueuedMicro)
	}
	switch state {
	case "allowed":
		entry.State = models.StateAllowed
	case "waiting":
		entry.State = models.StateWaiting
	default:
		return nil, fmt.Errorf("unexpected queue entry state: %q", state)
	}
	return entry, nil
}
