package models

import (
	"time"

	"github.com/google/uuid"
)

// GenrePrompt maps a genre name to the long-form prompt sent to the
// generation provider. Seeded at boot, looked up once per submission.
type GenrePrompt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Genre     string    `gorm:"size:100;not null;uniqueIndex" json:"genre"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}
