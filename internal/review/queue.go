package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

var ErrQueueEmpty = errors.New("no notes are due for revisiting")

// Queue is a cursor over the notes due for review.
type Queue struct {
	notes []*nostr.Event
	index int
}

func NewQueue(due []*nostr.Event) *Queue {
	return &Queue{notes: append([]*nostr.Event(nil), due...)}
}

func (q *Queue) Len() int { return len(q.notes) }

// Index returns the cursor, pulled back to 0 if it ran past the end.
func (q *Queue) Index() int {
	if q.index >= len(q.notes) {
		return 0
	}
	return q.index
}

func (q *Queue) Current() (*nostr.Event, bool) {
	if len(q.notes) == 0 {
		return nil, false
	}
	return q.notes[q.Index()], true
}

// Position renders the cursor as "Note i of n".
func (q *Queue) Position() string {
	if len(q.notes) == 0 {
		return "Note 0 of 0"
	}
	return fmt.Sprintf("Note %d of %d", q.Index()+1, len(q.notes))
}

// Percent is the share of the queue up to and including the current note.
func (q *Queue) Percent() float64 {
	if len(q.notes) == 0 {
		return 0
	}
	return float64(q.Index()+1) / float64(len(q.notes)) * 100
}

// CanSkip reports whether skipping would show a different note.
func (q *Queue) CanSkip() bool { return len(q.notes) > 1 }

// Skip moves to the next note, wrapping to the first.
func (q *Queue) Skip() {
	i := q.Index()
	if i < len(q.notes)-1 {
		q.index = i + 1
		return
	}
	q.index = 0
}

func (q *Queue) Next() {
	if i := q.Index(); i < len(q.notes)-1 {
		q.index = i + 1
	}
}

func (q *Queue) Prev() {
	if i := q.Index(); i > 0 {
		q.index = i - 1
	}
}

func (q *Queue) Jump(i int) error {
	if i < 0 || i >= len(q.notes) {
		return fmt.Errorf("position %d out of range [0,%d)", i, len(q.notes))
	}
	q.index = i
	return nil
}

// MarkCurrentReviewed records a review of the current note and drops it from
// the queue. The cursor stays put so the following note becomes current.
func (q *Queue) MarkCurrentReviewed(ctx context.Context, t *Tracker) (models.ReviewRecord, error) {
	cur, ok := q.Current()
	if !ok {
		return models.ReviewRecord{}, ErrQueueEmpty
	}
	rec, err := t.MarkReviewed(ctx, cur.ID)
	if err != nil {
		return models.ReviewRecord{}, err
	}
	q.Remove(cur.ID)
	return rec, nil
}

// Remove drops a note from the queue and fixes up the cursor.
func (q *Queue) Remove(eventID string) {
	i := q.Index()
	kept := q.notes[:0]
	for _, n := range q.notes {
		if n.ID != eventID {
			kept = append(kept, n)
		}
	}
	q.notes = kept
	switch {
	case len(q.notes) == 0:
		q.index = 0
	case i >= len(q.notes):
		q.index = len(q.notes) - 1
	default:
		q.index = i
	}
}

// NextIntervalDays returns the days until a note at level is due again after
// one more review. It reports false once the note is mastered.
func NextIntervalDays(level int) (int, bool) {
	if level < 0 || level >= models.MaxLevel {
		return 0, false
	}
	return Intervals[level], true
}

// DescribeNextInterval renders NextIntervalDays for display.
func DescribeNextInterval(level int) string {
	days, ok := NextIntervalDays(level)
	if !ok {
		return "never (completed)"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
