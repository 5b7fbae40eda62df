package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"raffle_tracker/internal/domain"
)

// AuditStore is the read-only store slice the auditor traverses.
type AuditStore interface {
	ListDayKeys(ctx context.Context) ([]string, error)
	ListByDay(ctx context.Context, dayKey string) ([]domain.Raffle, error)
	Index(ctx context.Context) (map[string]string, error)
}

// Finding is one observed inconsistency. The auditor reports, it never
// corrects.
type Finding struct {
	Kind   string `json:"kind"`
	PostID string `json:"postId,omitempty"`
	DayKey string `json:"dayKey,omitempty"`
	Detail string `json:"detail"`
}

const (
	FindingDuplicate     = "duplicate-post-id"
	FindingIndexMismatch = "index-mismatch"
	FindingEmptyDay      = "empty-day"
	FindingMillisRange   = "millisecond-timestamp"
	FindingStickerGap    = "sticker-metadata-gap"
)

// Report summarizes one full-store audit pass.
type Report struct {
	RanAt    int64     `json:"ranAt"`
	Scanned  int       `json:"scanned"`
	Findings []Finding `json:"findings"`
}

// Auditor runs a throttled read-only consistency scan over the whole store.
// Inside the cooldown window Audit returns the cached report from the last
// pass instead of rescanning.
type Auditor struct {
	store    AuditStore
	logger   *slog.Logger
	cooldown time.Duration
	now      func() int64

	mu        sync.Mutex
	lastRunAt int64
	lastRep   *Report
}

func New(store AuditStore, cooldown time.Duration, logger *slog.Logger) *Auditor {
	return &Auditor{
		store:    store,
		logger:   logger.With("component", "auditor"),
		cooldown: cooldown,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// Audit scans every bucket for duplicate postIds, index disagreement,
// millisecond-range timestamps and sticker metadata gaps.
func (a *Auditor) Audit(ctx context.Context) (*Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.lastRep != nil && time.Duration(now-a.lastRunAt)*time.Second < a.cooldown {
		return a.lastRep, nil
	}

	report := &Report{RanAt: now}

	days, err := a.store.ListDayKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list day keys: %w", err)
	}
	index, err := a.store.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	seen := make(map[string]string)
	for _, day := range days {
		raffles, err := a.store.ListByDay(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("list day %s: %w", day, err)
		}
		if len(raffles) == 0 {
			report.Findings = append(report.Findings, Finding{
				Kind:   FindingEmptyDay,
				DayKey: day,
				Detail: "day listed but its bucket is empty",
			})
		}
		for i := range raffles {
			r := &raffles[i]
			report.Scanned++

			if firstDay, ok := seen[r.PostID]; ok {
				report.Findings = append(report.Findings, Finding{
					Kind:   FindingDuplicate,
					PostID: r.PostID,
					DayKey: day,
					Detail: fmt.Sprintf("also present in bucket %s", firstDay),
				})
			} else {
				seen[r.PostID] = day
			}

			if indexed, ok := index[r.PostID]; !ok {
				report.Findings = append(report.Findings, Finding{
					Kind:   FindingIndexMismatch,
					PostID: r.PostID,
					DayKey: day,
					Detail: "present in bucket but missing from index",
				})
			} else if indexed != day {
				report.Findings = append(report.Findings, Finding{
					Kind:   FindingIndexMismatch,
					PostID: r.PostID,
					DayKey: day,
					Detail: fmt.Sprintf("index points at %s", indexed),
				})
			}

			for field, ts := range r.Timestamps() {
				if domain.IsMillisRange(ts) {
					report.Findings = append(report.Findings, Finding{
						Kind:   FindingMillisRange,
						PostID: r.PostID,
						DayKey: day,
						Detail: fmt.Sprintf("%s=%d looks like milliseconds", field, ts),
					})
				}
			}

			a.checkStickerMetadata(r, day, report)
		}
	}

	for postID, day := range index {
		if _, ok := seen[postID]; !ok {
			report.Findings = append(report.Findings, Finding{
				Kind:   FindingIndexMismatch,
				PostID: postID,
				DayKey: day,
				Detail: "indexed but absent from its bucket",
			})
		}
	}

	a.lastRunAt = now
	a.lastRep = report

	if len(report.Findings) > 0 {
		a.logger.Warn("audit found inconsistencies",
			"scanned", report.Scanned,
			"findings", len(report.Findings),
		)
	} else {
		a.logger.Debug("audit clean", "scanned", report.Scanned)
	}
	return report, nil
}

// checkStickerMetadata flags resolved or claimed raffles whose sticker
// identification is still incomplete; those rows come out wrong in every
// downstream report.
func (a *Auditor) checkStickerMetadata(r *domain.Raffle, day string, report *Report) {
	phase := r.Status.Phase
	if phase != domain.PhaseResolved && phase != domain.PhaseClaimed {
		return
	}
	var missing string
	switch {
	case r.Raffle.StickerID == "":
		missing = "stickerId"
	case r.Raffle.StickerName == "":
		missing = "stickerName"
	case r.Raffle.StickerStars == nil:
		missing = "stickerStars"
	default:
		return
	}
	report.Findings = append(report.Findings, Finding{
		Kind:   FindingStickerGap,
		PostID: r.PostID,
		DayKey: day,
		Detail: "missing " + missing,
	})
}
