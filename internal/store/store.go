package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"raffle_tracker/internal/domain"
	"raffle_tracker/internal/kv"
)

// Persisted key scheme. Bucket keys embed the day key, so one calendar day
// of raffles is one blob; the index maps postId to its owning day key and is
// the single source of truth for bucket ownership.
const (
	keyPrefix        = "fmvTracker:"
	bucketPrefix     = keyPrefix + "raffles:"
	indexKey         = bucketPrefix + "index"
	daySetKey        = bucketPrefix + "days"
	lastDiscoveryKey = keyPrefix + "lastDiscoveryAt"
)

// DayKeyFormat is the calendar-date shard key layout.
const DayKeyFormat = "2006-01-02"

var (
	ErrNotFound             = errors.New("raffle not found")
	ErrMissingPostID        = errors.New("raffle has no postId")
	ErrConfirmationRequired = errors.New("destructive operation requires confirmation")
)

// Store is the single-writer authority for buckets, index and day-set.
// Other components read a copy, mutate it and resubmit through Put.
//
// Individual calls are safe for concurrent use. An explicit
// BeginBatch/Flush window assumes the cooperative single-producer
// convention: a concurrent writer during that window joins the open batch
// and its writes land at Flush instead of immediately, which is harmless
// because every mutation is an idempotent upsert keyed by postId.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
	loc    *time.Location
	now    func() int64

	mu  sync.Mutex
	cur *batch
}

type Config struct {
	// Timezone for day-key derivation, e.g. "America/New_York".
	Timezone string
}

func New(kvs kv.Store, cfg Config, logger *slog.Logger) *Store {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC",
			"timezone", cfg.Timezone,
			"error", err,
		)
		loc = time.UTC
	}
	return &Store{
		kv:     kvs,
		logger: logger.With("component", "store"),
		loc:    loc,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// DayKey derives the calendar-date shard key for a raffle from its effective
// timestamp, falling back to the current time when none is set.
func (s *Store) DayKey(r *domain.Raffle) string {
	ts := r.EffectiveTime()
	if ts == 0 {
		ts = s.now()
	}
	if domain.IsMillisRange(ts) {
		// Reported, not rescaled: a silent fix would hide the producer bug.
		s.logger.Warn("millisecond-range timestamp in day key derivation",
			"post_id", r.PostID,
			"value", ts,
		)
	}
	return time.Unix(ts, 0).In(s.loc).Format(DayKeyFormat)
}

// BeginBatch opens a unit of work. Reads and writes until Flush hit an
// in-memory overlay of touched buckets; Flush persists every touched bucket
// and the index/day-set once.
func (s *Store) BeginBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		s.cur = newBatch()
	}
}

// Flush persists the open batch and closes it. A no-op when no batch is
// open.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	b := s.cur
	s.cur = nil
	return s.flushBatch(ctx, b)
}

// Discard drops the open batch without persisting.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
}

// current returns the open batch, or a fresh one-shot batch. Callers hold
// s.mu.
func (s *Store) current() (b *batch, oneShot bool) {
	if s.cur != nil {
		return s.cur, false
	}
	return newBatch(), true
}

// Get returns the raffle for postID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, postID string) (*domain.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, _ := s.current()
	idx, err := b.loadIndex(ctx, s)
	if err != nil {
		return nil, err
	}
	day, ok := idx[postID]
	if !ok {
		return nil, ErrNotFound
	}
	bucket, err := b.loadBucket(ctx, s, day)
	if err != nil {
		return nil, err
	}
	r, ok := bucket[postID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// Put creates or updates a raffle. The day key is recomputed on every call;
// if the index currently points at a different day key the entity is moved
// out of its old bucket first, pruning the old day key when its bucket
// empties. Index and day-set are always brought into agreement. Without an
// open batch the write is persisted before Put returns, so a process
// interruption never loses already-fetched data. Returns the stored copy.
func (s *Store) Put(ctx context.Context, r *domain.Raffle) (*domain.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, oneShot := s.current()
	stored, err := s.putInBatch(ctx, b, r)
	if err != nil {
		return nil, err
	}
	if oneShot {
		if err := s.flushBatch(ctx, b); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

func (s *Store) putInBatch(ctx context.Context, b *batch, r *domain.Raffle) (*domain.Raffle, error) {
	if r.PostID == "" {
		return nil, ErrMissingPostID
	}

	idx, err := b.loadIndex(ctx, s)
	if err != nil {
		return nil, err
	}
	days, err := b.loadDays(ctx, s)
	if err != nil {
		return nil, err
	}

	stored := r.Clone()
	if stored.CreatedAt == 0 {
		stored.CreatedAt = s.now()
	}
	if stored.FirstSeenAt == 0 {
		stored.FirstSeenAt = stored.CreatedAt
	}

	newDay := s.DayKey(stored)

	if oldDay, ok := idx[stored.PostID]; ok && oldDay != newDay {
		oldBucket, err := b.loadBucket(ctx, s, oldDay)
		if err != nil {
			return nil, err
		}
		delete(oldBucket, stored.PostID)
		b.dirty[oldDay] = struct{}{}
		if len(oldBucket) == 0 {
			delete(days, oldDay)
			b.daysDirty = true
		}
	}

	bucket, err := b.loadBucket(ctx, s, newDay)
	if err != nil {
		return nil, err
	}
	bucket[stored.PostID] = stored.Clone()
	b.dirty[newDay] = struct{}{}

	if idx[stored.PostID] != newDay {
		idx[stored.PostID] = newDay
		b.indexDirty = true
	}
	if _, ok := days[newDay]; !ok {
		days[newDay] = struct{}{}
		b.daysDirty = true
	}

	return stored, nil
}

// Remove deletes a raffle from its bucket and the index, pruning the day key
// if the bucket empties.
func (s *Store) Remove(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, oneShot := s.current()
	if err := s.removeInBatch(ctx, b, postID); err != nil {
		return err
	}
	if oneShot {
		return s.flushBatch(ctx, b)
	}
	return nil
}

func (s *Store) removeInBatch(ctx context.Context, b *batch, postID string) error {
	idx, err := b.loadIndex(ctx, s)
	if err != nil {
		return err
	}
	day, ok := idx[postID]
	if !ok {
		return ErrNotFound
	}
	bucket, err := b.loadBucket(ctx, s, day)
	if err != nil {
		return err
	}
	delete(bucket, postID)
	delete(idx, postID)
	b.dirty[day] = struct{}{}
	b.indexDirty = true
	if len(bucket) == 0 {
		days, err := b.loadDays(ctx, s)
		if err != nil {
			return err
		}
		delete(days, day)
		b.daysDirty = true
	}
	return nil
}

// ListByDay returns the raffles owned by one day key, sorted by postId.
func (s *Store) ListByDay(ctx context.Context, dayKey string) ([]domain.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listByDay(ctx, dayKey)
}

func (s *Store) listByDay(ctx context.Context, dayKey string) ([]domain.Raffle, error) {
	b, _ := s.current()
	bucket, err := b.loadBucket(ctx, s, dayKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Raffle, 0, len(bucket))
	for _, r := range bucket {
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID < out[j].PostID })
	return out, nil
}

// ListDayKeys returns the day keys that currently own at least one raffle,
// sorted ascending.
func (s *Store) ListDayKeys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listDayKeys(ctx)
}

func (s *Store) listDayKeys(ctx context.Context) ([]string, error) {
	b, _ := s.current()
	days, err := b.loadDays(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// ListRange returns all raffles in day keys within [start, end] inclusive.
func (s *Store) ListRange(ctx context.Context, start, end string) ([]domain.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.listDayKeys(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Raffle
	for _, day := range days {
		if day < start || day > end {
			continue
		}
		raffles, err := s.listByDay(ctx, day)
		if err != nil {
			return nil, err
		}
		out = append(out, raffles...)
	}
	return out, nil
}

// Index returns a copy of the postId -> dayKey index.
func (s *Store) Index(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, _ := s.current()
	idx, err := b.loadIndex(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(idx))
	for k, v := range idx {
		out[k] = v
	}
	return out, nil
}

// PutAll stores a slice of raffles in one unit of work, so the index and
// day-set are persisted once for the whole batch. Records without a postId
// are skipped with a warning. Returns the number stored.
func (s *Store) PutAll(ctx context.Context, raffles []domain.Raffle) (int, error) {
	if len(raffles) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := newBatch()
	stored := 0
	for i := range raffles {
		if _, err := s.putInBatch(ctx, b, &raffles[i]); err != nil {
			if errors.Is(err, ErrMissingPostID) {
				s.logger.Warn("skipping record without postId")
				continue
			}
			return stored, err
		}
		stored++
	}
	if err := s.flushBatch(ctx, b); err != nil {
		return 0, err
	}
	return stored, nil
}

// LastDiscoveryAt returns the persisted last-discovery timestamp, zero when
// never recorded.
func (s *Store) LastDiscoveryAt(ctx context.Context) (int64, error) {
	raw, found, err := s.kv.Get(ctx, lastDiscoveryKey)
	if err != nil {
		return 0, fmt.Errorf("read last discovery: %w", err)
	}
	if !found {
		return 0, nil
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("malformed last-discovery timestamp, treating as unset", "value", raw)
		return 0, nil
	}
	return ts, nil
}

func (s *Store) SetLastDiscoveryAt(ctx context.Context, ts int64) error {
	return s.kv.Set(ctx, lastDiscoveryKey, strconv.FormatInt(ts, 10))
}

func bucketKey(dayKey string) string {
	return bucketPrefix + dayKey
}
