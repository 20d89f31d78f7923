package services

import (
	"log/slog"

	"github.com/beatforge/beatforge-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var defaultPlans = []models.SubscriptionPlan{
	{Name: "free", MaxGenerations: 2, PricePerMonth: 0, Description: "Two generations to try the service."},
	{Name: "premium", MaxGenerations: 20, PricePerMonth: 9.99, Description: "Twenty generations per billing cycle."},
	{Name: "pro", MaxGenerations: 100, PricePerMonth: 24.99, Description: "For producers who live in the studio."},
}

var defaultGenrePrompts = map[string]string{
	"drill":         "INSTRUMENTAL ONLY. Dark UK drill beat, sliding 808s, aggressive hi-hat rolls, haunting melody, 140-145 BPM, longer than 60 seconds. No vocals.",
	"trap":          "INSTRUMENTAL ONLY. Hard-hitting trap beat with booming 808s, crisp snares, triplet hi-hats and an eerie lead melody, 130-150 BPM, longer than 60 seconds. No vocals.",
	"boom bap":      "INSTRUMENTAL ONLY. Classic 90s boom bap hip-hop beat, dusty sampled drums, warm vinyl texture, jazzy piano chops, 85-95 BPM, longer than 60 seconds. No vocals.",
	"lo-fi":         "INSTRUMENTAL ONLY. Mellow lo-fi hip-hop beat, soft swung drums, tape hiss, dreamy Rhodes chords, gentle bass, 70-85 BPM, longer than 60 seconds. No vocals.",
	"house":         "INSTRUMENTAL ONLY. Uplifting house track, four-on-the-floor kick, groovy bassline, warm chord stabs, filtered builds, 120-126 BPM, longer than 60 seconds. No vocals.",
	"techno":        "INSTRUMENTAL ONLY. Driving peak-time techno, relentless kick, hypnotic synth loops, industrial texture, 128-135 BPM, longer than 60 seconds. No vocals.",
	"hyperpop":      "INSTRUMENTAL ONLY. Chaotic hyperpop beat, pitched synth leads, distorted 808s, glitchy percussion, bright and maximalist, 150-170 BPM, longer than 60 seconds. No vocals.",
	"drum and bass": "INSTRUMENTAL ONLY. Energetic drum and bass roller, fast breakbeats, deep sub bass, atmospheric pads, 170-175 BPM, longer than 60 seconds. No vocals.",
}

// SeedReferenceData inserts missing subscription plans and genre
// prompts. Existing rows are never overwritten, so operators can tune
// prompts in the database without redeploys reverting them.
func SeedReferenceData(db *gorm.DB) error {
	for _, plan := range defaultPlans {
		var existing models.SubscriptionPlan
		if err := db.Where("name = ?", plan.Name).First(&existing).Error; err == nil {
			continue
		}
		plan.ID = uuid.New()
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
		slog.Info("seeded subscription plan", "plan", plan.Name, "max_generations", plan.MaxGenerations)
	}

	for genre, prompt := range defaultGenrePrompts {
		var existing models.GenrePrompt
		if err := db.Where("genre = ?", genre).First(&existing).Error; err == nil {
			continue
		}
		gp := models.GenrePrompt{ID: uuid.New(), Genre: genre, Prompt: prompt}
		if err := db.Create(&gp).Error; err != nil {
			return err
		}
	}

	return nil
}
