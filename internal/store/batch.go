package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"raffle_tracker/internal/domain"
)

// batch is the unit-of-work overlay: a cache of every bucket touched since
// the batch opened, plus the touched day keys. Reads and writes inside the
// batch hit the overlay; flushBatch persists only what was touched, and the
// index/day-set once.
type batch struct {
	buckets map[string]map[string]*domain.Raffle
	dirty   map[string]struct{}

	index      map[string]string
	indexOK    bool
	indexDirty bool

	days      map[string]struct{}
	daysOK    bool
	daysDirty bool
}

func newBatch() *batch {
	return &batch{
		buckets: make(map[string]map[string]*domain.Raffle),
		dirty:   make(map[string]struct{}),
	}
}

// loadBucket returns the overlay copy of a day bucket, reading it from the
// KV on first touch. Malformed persisted JSON fails soft: it is logged and
// treated as an empty bucket rather than raised, so one corrupt blob cannot
// wedge the whole store.
func (b *batch) loadBucket(ctx context.Context, s *Store, dayKey string) (map[string]*domain.Raffle, error) {
	if bucket, ok := b.buckets[dayKey]; ok {
		return bucket, nil
	}

	bucket := make(map[string]*domain.Raffle)
	raw, found, err := s.kv.Get(ctx, bucketKey(dayKey))
	if err != nil {
		return nil, fmt.Errorf("read bucket %s: %w", dayKey, err)
	}
	if found {
		if err := json.Unmarshal([]byte(raw), &bucket); err != nil {
			s.logger.Warn("malformed bucket, treating as empty",
				"day_key", dayKey,
				"error", err,
			)
			bucket = make(map[string]*domain.Raffle)
		}
	}
	b.buckets[dayKey] = bucket
	return bucket, nil
}

func (b *batch) loadIndex(ctx context.Context, s *Store) (map[string]string, error) {
	if b.indexOK {
		return b.index, nil
	}

	index := make(map[string]string)
	raw, found, err := s.kv.Get(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if found {
		if err := json.Unmarshal([]byte(raw), &index); err != nil {
			s.logger.Warn("malformed index, treating as empty", "error", err)
			index = make(map[string]string)
		}
	}
	b.index = index
	b.indexOK = true
	return index, nil
}

func (b *batch) loadDays(ctx context.Context, s *Store) (map[string]struct{}, error) {
	if b.daysOK {
		return b.days, nil
	}

	days := make(map[string]struct{})
	raw, found, err := s.kv.Get(ctx, daySetKey)
	if err != nil {
		return nil, fmt.Errorf("read day-set: %w", err)
	}
	if found {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			s.logger.Warn("malformed day-set, treating as empty", "error", err)
		} else {
			for _, d := range list {
				days[d] = struct{}{}
			}
		}
	}
	b.days = days
	b.daysOK = true
	return days, nil
}

// flushBatch persists every touched bucket, then the index and day-set if
// they changed. Buckets that emptied are deleted rather than written back.
// Callers hold s.mu.
func (s *Store) flushBatch(ctx context.Context, b *batch) error {
	for dayKey := range b.dirty {
		bucket := b.buckets[dayKey]
		if len(bucket) == 0 {
			if err := s.kv.Delete(ctx, bucketKey(dayKey)); err != nil {
				return fmt.Errorf("delete bucket %s: %w", dayKey, err)
			}
			continue
		}
		raw, err := json.Marshal(bucket)
		if err != nil {
			return fmt.Errorf("marshal bucket %s: %w", dayKey, err)
		}
		if err := s.kv.Set(ctx, bucketKey(dayKey), string(raw)); err != nil {
			return fmt.Errorf("write bucket %s: %w", dayKey, err)
		}
	}

	if b.indexDirty {
		raw, err := json.Marshal(b.index)
		if err != nil {
			return fmt.Errorf("marshal index: %w", err)
		}
		if err := s.kv.Set(ctx, indexKey, string(raw)); err != nil {
			return fmt.Errorf("write index: %w", err)
		}
	}

	if b.daysDirty {
		list := make([]string, 0, len(b.days))
		for d := range b.days {
			list = append(list, d)
		}
		sort.Strings(list)
		raw, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("marshal day-set: %w", err)
		}
		if err := s.kv.Set(ctx, daySetKey, string(raw)); err != nil {
			return fmt.Errorf("write day-set: %w", err)
		}
	}

	return nil
}
