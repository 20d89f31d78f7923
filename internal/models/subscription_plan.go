package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan is immutable reference data; many users share one plan.
type SubscriptionPlan struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	MaxGenerations int       `gorm:"not null;default:2" json:"max_generations"`
	PricePerMonth  float64   `json:"price_per_month"`
	Description    string    `gorm:"type:text" json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}
