package services

import (
	"errors"
	"fmt"

	"github.com/beatforge/beatforge-backend/internal/database"
	"github.com/beatforge/beatforge-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoGenerations = errors.New("no available generations left")

// QuotaService tracks each user's remaining generation allowance,
// derived from the subscription plan: max_generations minus
// total_generations.
type QuotaService struct {
	db *gorm.DB
}

func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{db: db}
}

// Remaining returns the user's unlocked quota reading. Callers that are
// about to consume quota must go through Reserve instead.
func (s *QuotaService) Remaining(userID uuid.UUID) (int, error) {
	var user models.User
	if err := s.db.Preload("SubscriptionPlan").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to load user: %w", err)
	}
	return user.RemainingGenerations(), nil
}

// Reserve consumes one generation inside the caller's transaction. The
// user row is locked FOR UPDATE and the quota re-checked under the
// lock, so two concurrent submissions cannot both decrement past zero.
// Call this only after a provider task id has been obtained: a failed
// external call must not burn quota.
func (s *QuotaService) Reserve(tx *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := database.ForUpdate(tx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	if err := tx.First(&user.SubscriptionPlan, "id = ?", user.SubscriptionPlanID).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription plan: %w", err)
	}

	if user.RemainingGenerations() <= 0 {
		return nil, ErrNoGenerations
	}

	user.TotalGenerations++
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
		Update("total_generations", user.TotalGenerations).Error; err != nil {
		return nil, fmt.Errorf("failed to decrement quota: %w", err)
	}

	return &user, nil
}
