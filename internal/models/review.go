package models

import "time"

// MaxLevel is the level at which a note counts as mastered.
const MaxLevel = 4

// ReviewRecord is the persisted review history of one note.
type ReviewRecord struct {
	EventID string      `json:"event_id"`
	Reviews []time.Time `json:"reviews"`
	Level   int         `json:"level"`
}

// EmptyRecord is the record of a note that was never reviewed.
func EmptyRecord(eventID string) ReviewRecord {
	return ReviewRecord{EventID: eventID, Reviews: []time.Time{}, Level: 0}
}

// LastReview returns the most recent review time.
func (r ReviewRecord) LastReview() (time.Time, bool) {
	if len(r.Reviews) == 0 {
		return time.Time{}, false
	}
	return r.Reviews[len(r.Reviews)-1], true
}

func (r ReviewRecord) Mastered() bool {
	return r.Level >= MaxLevel
}

// ReviewProgress describes where a note stands in its schedule.
type ReviewProgress struct {
	EventID     string     `json:"event_id"`
	Level       int        `json:"level"`
	MaxLevel    int        `json:"max_level"`
	ReviewCount int        `json:"review_count"`
	NextReview  *time.Time `json:"next_review"`
	IsDue       bool       `json:"is_due"`
	IsMastered  bool       `json:"is_mastered"`
	Progress    float64    `json:"progress"`
}

type ReviewStats struct {
	Total        int `json:"total"`
	DueForReview int `json:"due_for_review"`
	Mastered     int `json:"mastered"`
	Learning     int `json:"learning"`
}
