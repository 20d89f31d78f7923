package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beatforge/beatforge-backend/internal/models"
	"github.com/beatforge/beatforge-backend/internal/suno"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNoBeatsInProgress = errors.New("no beats found in progress")

// GenerationClient is the outbound provider surface the beat lifecycle
// depends on. *suno.Client implements it; tests substitute a stub.
type GenerationClient interface {
	Generate(ctx context.Context, prompt, style string) (*suno.GenerateResponse, error)
	FetchTask(ctx context.Context, taskID string) (*suno.TaskStatus, error)
}

// BeatService owns the generation lifecycle: submission with pooled
// reuse, the dual-record task registry, and the user-triggered
// reconciliation sweep.
type BeatService struct {
	db     *gorm.DB
	client GenerationClient
	genres *GenreService
	quota  *QuotaService
	expiry time.Duration
}

func NewBeatService(db *gorm.DB, client GenerationClient, genres *GenreService, quota *QuotaService, expiry time.Duration) *BeatService {
	return &BeatService{db: db, client: client, genres: genres, quota: quota, expiry: expiry}
}

// CreateResult describes the outcome of a submission. When Reused is
// set an existing pool beat was reassigned and PoolBeat is nil;
// otherwise a fresh provider task was created with both twin rows.
type CreateResult struct {
	Reused   bool
	UserBeat *models.Beat
	PoolBeat *models.Beat
}

// CreateByGenre handles one user submission: quota check, genre lookup,
// pool reuse, and otherwise a fresh provider call with the paired
// insert. Quota is consumed only after a task id is confirmed.
func (s *BeatService) CreateByGenre(ctx context.Context, userID uuid.UUID, genre string) (*CreateResult, error) {
	remaining, err := s.quota.Remaining(userID)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, ErrNoGenerations
	}

	prompt, err := s.genres.Lookup(genre)
	if err != nil {
		return nil, err
	}

	if claimed, ok, err := s.claimPoolBeat(userID, genre); err != nil {
		return nil, err
	} else if ok {
		slog.Info("pool beat reassigned", "task_id", claimed.TaskID, "user_id", userID.String(), "genre", genre)
		return &CreateResult{Reused: true, UserBeat: claimed}, nil
	}

	resp, err := s.client.Generate(ctx, prompt.Prompt, prompt.Genre)
	if err != nil {
		return nil, fmt.Errorf("beat generation submit failed: %w", err)
	}

	result := &CreateResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.quota.Reserve(tx, userID)
		if err != nil {
			// The provider task is already running; losing the quota
			// race orphans it in the pool rather than double-charging.
			return err
		}

		owned := models.Beat{
			ID:     uuid.New(),
			UserID: &userID,
			TaskID: resp.TaskID,
			Genre:  genre,
			Status: models.BeatStatusInProgress,
		}
		twin := models.Beat{
			ID:     uuid.New(),
			TaskID: resp.TaskID,
			Genre:  genre,
			Status: models.BeatStatusInProgress,
		}

		if err := tx.Create(&owned).Error; err != nil {
			return fmt.Errorf("failed to create beat: %w", err)
		}
		if err := tx.Create(&twin).Error; err != nil {
			return fmt.Errorf("failed to create pool beat: %w", err)
		}

		current := append(user.CurrentGeneratingBeats, owned.ID.String())
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("current_generating_beats", current).Error; err != nil {
			return fmt.Errorf("failed to track generating beat: %w", err)
		}

		result.UserBeat = &owned
		result.PoolBeat = &twin
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("beat generation started", "task_id", resp.TaskID, "user_id", userID.String(), "genre", genre)
	return result, nil
}

// claimPoolBeat looks for an unclaimed beat of the genre in a reusable
// status and reassigns it. The guarded update on user_id IS NULL makes
// the first claimant win; losers fall through to a fresh submission.
func (s *BeatService) claimPoolBeat(userID uuid.UUID, genre string) (*models.Beat, bool, error) {
	var cand models.Beat
	err := s.db.
		Where("user_id IS NULL AND genre = ? AND status IN ?", genre,
			[]models.BeatStatus{models.BeatStatusCompleted, models.BeatStatusInProgress}).
		Order("created_at ASC").
		First(&cand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to search pool beats: %w", err)
	}

	res := s.db.Model(&models.Beat{}).
		Where("id = ? AND user_id IS NULL", cand.ID).
		Update("user_id", userID)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to claim pool beat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}

	cand.UserID = &userID
	return &cand, true, nil
}

// ListByUser partitions the user's beats by status, newest first.
func (s *BeatService) ListByUser(userID uuid.UUID) (completed, inProgress []models.Beat, err error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, nil, ErrUserNotFound
	}

	var beats []models.Beat
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&beats).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list beats: %w", err)
	}

	for _, b := range beats {
		switch b.Status {
		case models.BeatStatusCompleted:
			completed = append(completed, b)
		case models.BeatStatusInProgress:
			inProgress = append(inProgress, b)
		}
	}
	return completed, inProgress, nil
}

// SweepSummary counts the outcomes of one reconciliation pass.
type SweepSummary struct {
	Processed int
	Completed int
	Expired   int
	Skipped   int
}

// Sweep reconciles all of the user's in-progress beats against the
// provider. Each task is handled independently: a poll failure or a
// not-yet-ready payload skips that task and the pass continues. Beats
// older than the expiry window are failed instead of polled, so nothing
// stays in_progress forever.
func (s *BeatService) Sweep(ctx context.Context, userID uuid.UUID) (*SweepSummary, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	var beats []models.Beat
	err := s.db.Where("user_id = ? AND status = ?", userID, models.BeatStatusInProgress).Find(&beats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load in-progress beats: %w", err)
	}
	if len(beats) == 0 {
		return nil, ErrNoBeatsInProgress
	}

	summary := &SweepSummary{Processed: len(beats)}
	for i := range beats {
		beat := &beats[i]

		if s.expiry > 0 && time.Since(beat.CreatedAt) > s.expiry {
			if err := s.expireTask(beat); err != nil {
				slog.Error("beat expiry failed", "task_id", beat.TaskID, "error", err.Error())
				summary.Skipped++
				continue
			}
			slog.Info("beat expired", "task_id", beat.TaskID, "age", time.Since(beat.CreatedAt).String())
			summary.Expired++
			continue
		}

		status, err := s.client.FetchTask(ctx, beat.TaskID)
		if err != nil {
			slog.Warn("beat poll failed", "task_id", beat.TaskID, "error", err.Error())
			summary.Skipped++
			continue
		}

		variants, ready := readyVariants(status)
		if !ready {
			summary.Skipped++
			continue
		}

		if err := s.applyCompletion(beat, variants); err != nil {
			slog.Error("beat completion failed", "task_id", beat.TaskID, "error", err.Error())
			summary.Skipped++
			continue
		}
		summary.Completed++
	}

	return summary, nil
}

// readyVariants enforces the completion validity rule: the provider
// must report full success and both expected variants must carry
// non-empty audio and image URLs. Anything less is treated as
// not-yet-ready, never as a failure.
func readyVariants(status *suno.TaskStatus) ([]suno.TrackVariant, bool) {
	if !status.Succeeded() {
		return nil, false
	}
	data := status.OutputData.Data
	if len(data) < 2 {
		return nil, false
	}
	for _, v := range data[:2] {
		if v.AudioURL == "" || v.ImageURL == "" {
			return nil, false
		}
	}
	return data[:2], true
}

// applyCompletion moves both twin rows to completed with
// variant-distinct result fields: variant 0 for the owned row, variant
// 1 for the pool twin. A missing or already-claimed twin is skipped,
// not fatal. The status guard in the UPDATE keeps transitions
// forward-only and the whole operation idempotent.
func (s *BeatService) applyCompletion(beat *models.Beat, variants []suno.TrackVariant) error {
	if !beat.Status.CanTransitionTo(models.BeatStatusCompleted) {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Beat{}).
			Where("id = ? AND status = ?", beat.ID, models.BeatStatusInProgress).
			Updates(map[string]interface{}{
				"status":    models.BeatStatusCompleted,
				"title":     decorateTitle(variants[0].Title),
				"url":       variants[0].AudioURL,
				"image_url": variants[0].ImageURL,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete beat: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// A concurrent sweep already finished this one.
			return nil
		}

		var twin models.Beat
		err := tx.Where("task_id = ? AND user_id IS NULL AND status = ?", beat.TaskID, models.BeatStatusInProgress).
			First(&twin).Error
		if err == nil {
			if err := tx.Model(&twin).Updates(map[string]interface{}{
				"status":    models.BeatStatusCompleted,
				"title":     decorateTitle(variants[1].Title),
				"url":       variants[1].AudioURL,
				"image_url": variants[1].ImageURL,
			}).Error; err != nil {
				return fmt.Errorf("failed to complete pool beat: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load pool beat: %w", err)
		}

		if beat.UserID != nil {
			if err := s.recordSuccess(tx, *beat.UserID, beat.ID.String()); err != nil {
				return err
			}
		}

		return nil
	})
}

// expireTask fails both twin rows of a task that outlived the expiry
// window. The provider job may still finish later, but the records are
// terminal from here on.
func (s *BeatService) expireTask(beat *models.Beat) error {
	if !beat.Status.CanTransitionTo(models.BeatStatusFailed) {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Beat{}).
			Where("task_id = ? AND status = ?", beat.TaskID, models.BeatStatusInProgress).
			Update("status", models.BeatStatusFailed).Error; err != nil {
			return fmt.Errorf("failed to expire beats: %w", err)
		}

		if beat.UserID != nil {
			var user models.User
			if err := tx.First(&user, "id = ?", *beat.UserID).Error; err != nil {
				return nil
			}
			if err := tx.Model(&user).
				Update("current_generating_beats", datatypes.NewJSONSlice(removeID(user.CurrentGeneratingBeats, beat.ID.String()))).Error; err != nil {
				return fmt.Errorf("failed to untrack expired beat: %w", err)
			}
		}
		return nil
	})
}

// recordSuccess moves the beat id from the user's generating list to
// the successful list.
func (s *BeatService) recordSuccess(tx *gorm.DB, userID uuid.UUID, beatID string) error {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		// Tolerated: the beat row is the source of truth.
		return nil
	}

	updates := map[string]interface{}{
		"current_generating_beats":   datatypes.NewJSONSlice(removeID(user.CurrentGeneratingBeats, beatID)),
		"successful_generated_beats": append(user.SuccessfulGeneratedBeats, beatID),
	}
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to record successful beat: %w", err)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// decorateTitle appends a random noun to the provider title so the two
// variants of one task read differently in the library.
func decorateTitle(title string) string {
	word := gofakeit.Noun()
	if title == "" {
		return word
	}
	return fmt.Sprintf("%s (%s)", title, word)
}
