// Package review schedules notes for revisiting on a fixed spaced-repetition
// table and persists each note's review history through a RecordStore.
package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

// Intervals maps a level to the days until the next review.
var Intervals = [models.MaxLevel]int{1, 3, 7, 14}

// RecordStore persists review records keyed by event id.
type RecordStore interface {
	Get(ctx context.Context, eventID string) (models.ReviewRecord, bool, error)
	Put(ctx context.Context, rec models.ReviewRecord) error
	Delete(ctx context.Context, eventID string) error
	All(ctx context.Context) (map[string]models.ReviewRecord, error)
}

// Tracker applies the review schedule on top of a RecordStore.
type Tracker struct {
	mu    sync.Mutex
	store RecordStore
	now   func() time.Time
	loc   *time.Location
}

type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the location used for day arithmetic.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

func NewTracker(store RecordStore, opts ...Option) *Tracker {
	t := &Tracker{store: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record returns the stored record, or an empty one if the note was never reviewed.
func (t *Tracker) Record(ctx context.Context, eventID string) (models.ReviewRecord, error) {
	rec, ok, err := t.store.Get(ctx, eventID)
	if err != nil {
		return models.ReviewRecord{}, fmt.Errorf("load review record %s: %w", eventID, err)
	}
	if !ok {
		return models.EmptyRecord(eventID), nil
	}
	return rec, nil
}

// MarkReviewed appends a review at the current time and raises the level,
// capped at MaxLevel.
func (t *Tracker) MarkReviewed(ctx context.Context, eventID string) (models.ReviewRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.Record(ctx, eventID)
	if err != nil {
		return models.ReviewRecord{}, err
	}
	rec.Reviews = append(rec.Reviews, t.now())
	rec.Level = min(rec.Level+1, models.MaxLevel)
	if err := t.store.Put(ctx, rec); err != nil {
		return models.ReviewRecord{}, fmt.Errorf("save review record %s: %w", eventID, err)
	}
	return rec, nil
}

// Reset forgets the note's review history.
func (t *Tracker) Reset(ctx context.Context, eventID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("reset review record %s: %w", eventID, err)
	}
	return nil
}

// NextReview computes when a note with the given record is next due. It
// reports false for mastered notes.
func NextReview(rec models.ReviewRecord, createdAt time.Time, loc *time.Location) (time.Time, bool) {
	last, reviewed := rec.LastReview()
	if !reviewed {
		return createdAt.In(loc).AddDate(0, 0, Intervals[0]), true
	}
	if rec.Mastered() {
		return time.Time{}, false
	}
	return last.In(loc).AddDate(0, 0, Intervals[max(rec.Level, 0)]), true
}

func (t *Tracker) NextReviewDate(ctx context.Context, note *nostr.Event) (*time.Time, error) {
	rec, err := t.Record(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	return t.nextFor(rec, note), nil
}

func (t *Tracker) nextFor(rec models.ReviewRecord, note *nostr.Event) *time.Time {
	next, ok := NextReview(rec, note.CreatedAt.Time(), t.loc)
	if !ok {
		return nil
	}
	return &next
}

func (t *Tracker) dueAt(next *time.Time, now time.Time) bool {
	return next != nil && !next.After(now)
}

// IsDue reports whether the note's next review is at or before now.
func (t *Tracker) IsDue(ctx context.Context, note *nostr.Event) (bool, error) {
	next, err := t.NextReviewDate(ctx, note)
	if err != nil {
		return false, err
	}
	return t.dueAt(next, t.now()), nil
}

func (t *Tracker) snapshot(ctx context.Context) (map[string]models.ReviewRecord, error) {
	all, err := t.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load review records: %w", err)
	}
	return all, nil
}

func recordOf(all map[string]models.ReviewRecord, id string) models.ReviewRecord {
	if rec, ok := all[id]; ok {
		return rec
	}
	return models.EmptyRecord(id)
}

// DueNotes returns the notes that are due, preserving order.
func (t *Tracker) DueNotes(ctx context.Context, notes []*nostr.Event) ([]*nostr.Event, error) {
	all, err := t.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := t.now()
	due := make([]*nostr.Event, 0, len(notes))
	for _, n := range notes {
		if t.dueAt(t.nextFor(recordOf(all, n.ID), n), now) {
			due = append(due, n)
		}
	}
	return due, nil
}

func (t *Tracker) Stats(ctx context.Context, notes []*nostr.Event) (models.ReviewStats, error) {
	all, err := t.snapshot(ctx)
	if err != nil {
		return models.ReviewStats{}, err
	}
	now := t.now()
	stats := models.ReviewStats{Total: len(notes)}
	for _, n := range notes {
		rec := recordOf(all, n.ID)
		if t.dueAt(t.nextFor(rec, n), now) {
			stats.DueForReview++
		}
		if rec.Mastered() {
			stats.Mastered++
		}
	}
	stats.Learning = stats.Total - stats.Mastered
	return stats, nil
}

// Progress summarizes one note's position in the schedule.
func (t *Tracker) Progress(ctx context.Context, note *nostr.Event) (models.ReviewProgress, error) {
	rec, err := t.Record(ctx, note.ID)
	if err != nil {
		return models.ReviewProgress{}, err
	}
	return t.progressOf(rec, note), nil
}

// ProgressAll computes Progress for every note from a single store read.
func (t *Tracker) ProgressAll(ctx context.Context, notes []*nostr.Event) (map[string]models.ReviewProgress, error) {
	all, err := t.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.ReviewProgress, len(notes))
	for _, n := range notes {
		out[n.ID] = t.progressOf(recordOf(all, n.ID), n)
	}
	return out, nil
}

func (t *Tracker) progressOf(rec models.ReviewRecord, note *nostr.Event) models.ReviewProgress {
	next := t.nextFor(rec, note)
	return models.ReviewProgress{
		EventID:     note.ID,
		Level:       rec.Level,
		MaxLevel:    models.MaxLevel,
		ReviewCount: len(rec.Reviews),
		NextReview:  next,
		IsDue:       t.dueAt(next, t.now()),
		IsMastered:  rec.Mastered(),
		Progress:    float64(rec.Level) / float64(models.MaxLevel) * 100,
	}
}
