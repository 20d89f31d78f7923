package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/beatforge/beatforge-backend/internal/config"
	"github.com/beatforge/beatforge-backend/internal/database"
	"github.com/beatforge/beatforge-backend/internal/models"
	"github.com/beatforge/beatforge-backend/internal/suno"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named shared-cache memory DB so every pooled connection sees the
	// same database within one test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, SeedReferenceData(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email, planName string) *models.User {
	t.Helper()

	var plan models.SubscriptionPlan
	require.NoError(t, db.Where("name = ?", planName).First(&plan).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:                 uuid.New(),
		Email:              email,
		Password:           string(hash),
		SubscriptionPlanID: plan.ID,
	}
	require.NoError(t, db.Create(user).Error)
	user.SubscriptionPlan = plan
	return user
}

// stubClient fakes the generation provider.
type stubClient struct {
	generateFn    func(ctx context.Context, prompt, style string) (*suno.GenerateResponse, error)
	fetchFn       func(ctx context.Context, taskID string) (*suno.TaskStatus, error)
	generateCalls int
	fetchCalls    int
}

func (s *stubClient) Generate(ctx context.Context, prompt, style string) (*suno.GenerateResponse, error) {
	s.generateCalls++
	if s.generateFn != nil {
		return s.generateFn(ctx, prompt, style)
	}
	return &suno.GenerateResponse{TaskID: uuid.NewString()}, nil
}

func (s *stubClient) FetchTask(ctx context.Context, taskID string) (*suno.TaskStatus, error) {
	s.fetchCalls++
	if s.fetchFn != nil {
		return s.fetchFn(ctx, taskID)
	}
	return &suno.TaskStatus{}, nil
}

func completedStatus() *suno.TaskStatus {
	return &suno.TaskStatus{OutputData: suno.OutputData{
		Msg: suno.MsgAllGenerated,
		Data: []suno.TrackVariant{
			{Title: "Night Drive", AudioURL: "https://cdn/a0.mp3", ImageURL: "https://cdn/i0.png"},
			{Title: "Night Drive", AudioURL: "https://cdn/a1.mp3", ImageURL: "https://cdn/i1.png"},
		},
	}}
}

// recordingMailer captures verification codes instead of sending mail.
type recordingMailer struct {
	to    string
	codes []string
}

func (m *recordingMailer) SendVerificationCode(to, code string) error {
	m.to = to
	m.codes = append(m.codes, code)
	return nil
}

func newBeatService(db *gorm.DB, client GenerationClient, expiry time.Duration) *BeatService {
	return NewBeatService(db, client, NewGenreService(db), NewQuotaService(db), expiry)
}
