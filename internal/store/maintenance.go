package store

import (
	"context"
	"encoding/json"
	"fmt"

	"raffle_tracker/internal/domain"
)

// Export is a full-store snapshot in the persisted bucket format, suitable
// for re-import or offline reporting.
type Export struct {
	Buckets map[string]map[string]*domain.Raffle `json:"buckets"`
	Index   map[string]string                    `json:"index"`
	Days    []string                             `json:"days"`
}

// ExportAll dumps every bucket plus the index and day-set.
func (s *Store) ExportAll(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, _ := s.current()
	days, err := b.loadDays(ctx, s)
	if err != nil {
		return nil, err
	}
	idx, err := b.loadIndex(ctx, s)
	if err != nil {
		return nil, err
	}

	export := Export{
		Buckets: make(map[string]map[string]*domain.Raffle, len(days)),
		Index:   idx,
	}
	for day := range days {
		bucket, err := b.loadBucket(ctx, s, day)
		if err != nil {
			return nil, err
		}
		export.Buckets[day] = bucket
		export.Days = append(export.Days, day)
	}

	return json.MarshalIndent(export, "", "  ")
}

// ClearBefore deletes every raffle in day keys strictly before cutoffDay.
// It refuses to run without confirm and always takes a full export first,
// returning it so the caller can write it somewhere safe.
func (s *Store) ClearBefore(ctx context.Context, cutoffDay string, confirm bool) ([]byte, error) {
	if !confirm {
		return nil, ErrConfirmationRequired
	}

	export, err := s.ExportAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("pre-delete export: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := newBatch()
	days, err := b.loadDays(ctx, s)
	if err != nil {
		return nil, err
	}
	idx, err := b.loadIndex(ctx, s)
	if err != nil {
		return nil, err
	}

	removed := 0
	for day := range days {
		if day >= cutoffDay {
			continue
		}
		bucket, err := b.loadBucket(ctx, s, day)
		if err != nil {
			return nil, err
		}
		for postID := range bucket {
			delete(idx, postID)
			removed++
		}
		b.buckets[day] = make(map[string]*domain.Raffle)
		b.dirty[day] = struct{}{}
		delete(days, day)
		b.indexDirty = true
		b.daysDirty = true
	}

	if err := s.flushBatch(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("cleared records before cutoff",
		"cutoff", cutoffDay,
		"removed", removed,
	)
	return export, nil
}
