package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password           string    `gorm:"not null" json:"-"`
	SubscriptionPlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	TotalGenerations   int       `gorm:"default:0" json:"total_generations"`
	// Beat id lists surfaced on the profile endpoint.
	CurrentGeneratingBeats   datatypes.JSONSlice[string] `json:"current_generating_beats"`
	SuccessfulGeneratedBeats datatypes.JSONSlice[string] `json:"successful_generated_beats"`
	IsVerified               bool                        `gorm:"default:false" json:"is_verified"`
	CreatedAt                time.Time                   `json:"created_at"`
	UpdatedAt                time.Time                   `json:"updated_at"`
	DeletedAt                gorm.DeletedAt              `gorm:"index" json:"-"`

	SubscriptionPlan SubscriptionPlan `gorm:"foreignKey:SubscriptionPlanID" json:"-"`
}

// RemainingGenerations derives the user's quota from the preloaded plan.
func (u *User) RemainingGenerations() int {
	remaining := u.SubscriptionPlan.MaxGenerations - u.TotalGenerations
	if remaining < 0 {
		return 0
	}
	return remaining
}
