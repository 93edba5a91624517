// Package cache puts a Redis read-through cache in front of a HistoryStore.
// The inner store stays authoritative: any Redis failure falls back to it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

const (
	historyKeyPrefix    = "ghostjob:history:"
	generationKeyPrefix = "ghostjob:history-gen:"
)

// HistoryKey is the Redis key caching one company's history.
func HistoryKey(companyName string) string {
	return historyKeyPrefix + companyName
}

// GenerationKey counts the writes to one company's history.
func GenerationKey(companyName string) string {
	return generationKeyPrefix + companyName
}

// setIfGeneration stores the snapshot only when no write bumped the
// generation since the snapshot was read.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

type Store struct {
	inner  store.HistoryStore
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(inner store.HistoryStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Store {
	return &Store{inner: inner, rdb: rdb, ttl: ttl, logger: log}
}

func (s *Store) QueryByCompany(ctx context.Context, companyName string) ([]models.PostingRecord, error) {
	key := HistoryKey(companyName)

	var cached []models.PostingRecord
	hit, err := GetJSON(ctx, s.rdb, key, &cached)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("history", "error").Inc()
		s.logger.Warn("history cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	case hit:
		metrics.CacheLookups.WithLabelValues("history", "hit").Inc()
		return cached, nil
	default:
		metrics.CacheLookups.WithLabelValues("history", "miss").Inc()
	}

	// read before the inner query so a write racing with it is detected
	gen, genErr := s.generation(ctx, companyName)

	recs, err := s.inner.QueryByCompany(ctx, companyName)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		s.fill(ctx, companyName, gen, recs)
	}
	return recs, nil
}

func (s *Store) generation(ctx context.Context, companyName string) (string, error) {
	gen, err := s.rdb.Get(ctx, GenerationKey(companyName)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		s.logger.Warn("history cache generation read failed", map[string]interface{}{
			"key":   GenerationKey(companyName),
			"error": err.Error(),
		})
		return "", err
	}
	return gen, nil
}

func (s *Store) fill(ctx context.Context, companyName, gen string, recs []models.PostingRecord) {
	key := HistoryKey(companyName)
	data, err := json.Marshal(recs)
	if err == nil {
		var stored int64
		stored, err = setIfGeneration.Run(ctx, s.rdb,
			[]string{GenerationKey(companyName), key},
			gen, string(data), s.ttl.Milliseconds(),
		).Int64()
		if err == nil && stored == 0 {
			s.logger.Debug("history changed during read, snapshot not cached", map[string]interface{}{
				"key": key,
			})
		}
	}
	if err != nil {
		s.logger.Warn("history cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Store) Append(ctx context.Context, rec models.PostingRecord) error {
	if err := s.inner.Append(ctx, rec); err != nil {
		return err
	}
	s.invalidate(ctx, rec.CompanyName)
	return nil
}

func (s *Store) Touch(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error) {
	rec, err := s.inner.Touch(ctx, id, seenAt)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, rec.CompanyName)
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.PostingRecord, error) {
	return s.inner.Get(ctx, id)
}

func (s *Store) ScanPage(ctx context.Context, cursor string, limit int) ([]models.PostingRecord, string, error) {
	return s.inner.ScanPage(ctx, cursor, limit)
}

func (s *Store) invalidate(ctx context.Context, companyName string) {
	key := HistoryKey(companyName)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(companyName))
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		// entry expires after ttl anyway
		s.logger.Warn("history cache invalidation failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// GetJSON decodes key into dst. It reports false with a nil error on a miss.
func GetJSON(ctx context.Context, rdb redis.Cmdable, key string, dst interface{}) (bool, error) {
	val, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, rdb redis.Cmdable, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return rdb.Set(ctx, key, string(data), ttl).Err()
}
