package models

import (
	"time"

	"github.com/google/uuid"
)

type BeatStatus string

const (
	BeatStatusInProgress BeatStatus = "in_progress"
	BeatStatusCompleted  BeatStatus = "completed"
	BeatStatusFailed     BeatStatus = "failed"
)

// Transitions are forward-only: a terminal beat never changes again.
var beatTransitions = map[BeatStatus][]BeatStatus{
	BeatStatusInProgress: {BeatStatusCompleted, BeatStatusFailed},
	BeatStatusCompleted:  {},
	BeatStatusFailed:     {},
}

func (s BeatStatus) CanTransitionTo(next BeatStatus) bool {
	for _, allowed := range beatTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BeatStatus) Terminal() bool {
	return len(beatTransitions[s]) == 0
}

// Beat is one tracked generation. Every submission creates exactly two
// rows sharing a TaskID: one owned by the requesting user and one pool
// twin with a nil UserID that a later requester of the same genre may
// claim. Rows are kept forever; nothing deletes them.
type Beat struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	TaskID    string     `gorm:"size:120;not null;index" json:"task_id"`
	Genre     string     `gorm:"size:50;not null;index" json:"genre"`
	Status    BeatStatus `gorm:"size:50;not null;default:'in_progress';index" json:"status"`
	Title     string     `gorm:"size:255" json:"title"`
	URL       string     `gorm:"size:255" json:"url"`
	ImageURL  string     `gorm:"size:255" json:"image_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Pooled reports whether the row is the unclaimed twin.
func (b *Beat) Pooled() bool {
	return b.UserID == nil
}
