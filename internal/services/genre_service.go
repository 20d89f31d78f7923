package services

import (
	"errors"
	"fmt"

	"github.com/beatforge/beatforge-backend/internal/models"
	"gorm.io/gorm"
)

var ErrGenreNotFound = errors.New("genre not found")

// GenreService is the catalog consulted before every submission: genre
// name in, prompt text out.
type GenreService struct {
	db *gorm.DB
}

func NewGenreService(db *gorm.DB) *GenreService {
	return &GenreService{db: db}
}

func (s *GenreService) Lookup(genre string) (*models.GenrePrompt, error) {
	var gp models.GenrePrompt
	if err := s.db.Where("genre = ?", genre).First(&gp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenreNotFound
		}
		return nil, fmt.Errorf("failed to look up genre: %w", err)
	}
	return &gp, nil
}

func (s *GenreService) List() ([]models.GenrePrompt, error) {
	var genres []models.GenrePrompt
	if err := s.db.Order("genre ASC").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}
