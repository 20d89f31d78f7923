package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beatforge/beatforge-backend/internal/models"
	"github.com/beatforge/beatforge-backend/internal/suno"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateByGenreUnknownGenre(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	_, err := svc.CreateByGenre(context.Background(), user.ID, "polka")
	require.ErrorIs(t, err, ErrGenreNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Beat{}).Count(&count).Error)
	assert.Zero(t, count, "no task records for a rejected genre")
	assert.Zero(t, client.generateCalls)
}

func TestCreateByGenreUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newBeatService(db, &stubClient{}, 0)

	_, err := svc.CreateByGenre(context.Background(), uuid.New(), "drill")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateByGenreCreatesPair(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{
		generateFn: func(_ context.Context, prompt, style string) (*suno.GenerateResponse, error) {
			assert.Equal(t, "drill", style)
			assert.NotEmpty(t, prompt)
			return &suno.GenerateResponse{TaskID: "task-1"}, nil
		},
	}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	res, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.NoError(t, err)
	assert.False(t, res.Reused)

	var beats []models.Beat
	require.NoError(t, db.Where("task_id = ?", "task-1").Find(&beats).Error)
	require.Len(t, beats, 2, "paired insert shares one task id")

	var owned, pooled int
	for _, b := range beats {
		assert.Equal(t, models.BeatStatusInProgress, b.Status)
		if b.Pooled() {
			pooled++
		} else {
			owned++
			assert.Equal(t, user.ID, *b.UserID)
		}
	}
	assert.Equal(t, 1, owned)
	assert.Equal(t, 1, pooled)

	var fresh models.User
	require.NoError(t, db.Preload("SubscriptionPlan").First(&fresh, "id = ?", user.ID).Error)
	assert.Equal(t, 1, fresh.TotalGenerations)
	assert.Equal(t, fresh.SubscriptionPlan.MaxGenerations-1, fresh.RemainingGenerations())
	assert.Contains(t, []string(fresh.CurrentGeneratingBeats), res.UserBeat.ID.String())
}

func TestCreateByGenreQuotaExhausted(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")
	require.NoError(t, db.Model(user).Update("total_generations", user.SubscriptionPlan.MaxGenerations).Error)

	_, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.ErrorIs(t, err, ErrNoGenerations)

	var count int64
	require.NoError(t, db.Model(&models.Beat{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Zero(t, client.generateCalls, "provider is never called without quota")
}

func TestCreateByGenreReusesPoolBeat(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{}
	svc := newBeatService(db, client, 0)

	first := createTestUser(t, db, "first@example.com", "free")
	second := createTestUser(t, db, "second@example.com", "free")

	_, err := svc.CreateByGenre(context.Background(), first.ID, "drill")
	require.NoError(t, err)
	require.Equal(t, 1, client.generateCalls)

	res, err := svc.CreateByGenre(context.Background(), second.ID, "drill")
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Nil(t, res.PoolBeat)
	require.NotNil(t, res.UserBeat.UserID)
	assert.Equal(t, second.ID, *res.UserBeat.UserID)
	assert.Equal(t, 1, client.generateCalls, "reuse must not trigger a new external call")

	// The pool is empty now; a third requester triggers a fresh task.
	third := createTestUser(t, db, "third@example.com", "free")
	res, err = svc.CreateByGenre(context.Background(), third.ID, "drill")
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.Equal(t, 2, client.generateCalls)

	// Reuse does not consume quota.
	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", second.ID).Error)
	assert.Zero(t, fresh.TotalGenerations)
}

func TestCreateByGenreProviderFailure(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{
		generateFn: func(context.Context, string, string) (*suno.GenerateResponse, error) {
			return nil, &suno.TransportError{Err: errors.New("connection refused")}
		},
	}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	_, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.Error(t, err)

	var transportErr *suno.TransportError
	assert.True(t, errors.As(err, &transportErr))

	var count int64
	require.NoError(t, db.Model(&models.Beat{}).Count(&count).Error)
	assert.Zero(t, count)

	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.Zero(t, fresh.TotalGenerations, "a failed external call must not burn quota")
}

func TestListByUserPartitionsByStatus(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{fetchFn: func(context.Context, string) (*suno.TaskStatus, error) {
		return completedStatus(), nil
	}}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	_, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.NoError(t, err)
	_, err = svc.CreateByGenre(context.Background(), user.ID, "trap")
	require.NoError(t, err)

	completed, inProgress, err := svc.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Len(t, inProgress, 2)

	_, err = svc.Sweep(context.Background(), user.ID)
	require.NoError(t, err)

	completed, inProgress, err = svc.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Len(t, completed, 2)
	assert.Empty(t, inProgress)
}

func TestSweepCompletesBothTwins(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{fetchFn: func(context.Context, string) (*suno.TaskStatus, error) {
		return completedStatus(), nil
	}}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	res, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.NoError(t, err)

	summary, err := svc.Sweep(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)

	var owned, twin models.Beat
	require.NoError(t, db.First(&owned, "id = ?", res.UserBeat.ID).Error)
	require.NoError(t, db.First(&twin, "id = ?", res.PoolBeat.ID).Error)

	assert.Equal(t, models.BeatStatusCompleted, owned.Status)
	assert.Equal(t, models.BeatStatusCompleted, twin.Status)

	// Variant 0 goes to the owned record, variant 1 to the pool twin.
	assert.Equal(t, "https://cdn/a0.mp3", owned.URL)
	assert.Equal(t, "https://cdn/i0.png", owned.ImageURL)
	assert.Equal(t, "https://cdn/a1.mp3", twin.URL)
	assert.Equal(t, "https://cdn/i1.png", twin.ImageURL)
	assert.NotEmpty(t, owned.Title)
	assert.NotEmpty(t, twin.Title)

	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.NotContains(t, []string(fresh.CurrentGeneratingBeats), owned.ID.String())
	assert.Contains(t, []string(fresh.SuccessfulGeneratedBeats), owned.ID.String())
}

func TestSweepIdempotentAfterCompletion(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{fetchFn: func(context.Context, string) (*suno.TaskStatus, error) {
		return completedStatus(), nil
	}}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	res, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.NoError(t, err)

	_, err = svc.Sweep(context.Background(), user.ID)
	require.NoError(t, err)

	var before models.Beat
	require.NoError(t, db.First(&before, "id = ?", res.UserBeat.ID).Error)

	_, err = svc.Sweep(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrNoBeatsInProgress)

	var after models.Beat
	require.NoError(t, db.First(&after, "id = ?", res.UserBeat.ID).Error)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.URL, after.URL)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestSweepLeavesNotReadyTasks(t *testing.T) {
	db := setupTestDB(t)
	status := completedStatus()
	status.OutputData.Data[1].ImageURL = ""
	client := &stubClient{fetchFn: func(context.Context, string) (*suno.TaskStatus, error) {
		return status, nil
	}}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	res, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.NoError(t, err)

	summary, err := svc.Sweep(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Completed)
	assert.Equal(t, 1, summary.Skipped)

	var owned models.Beat
	require.NoError(t, db.First(&owned, "id = ?", res.UserBeat.ID).Error)
	assert.Equal(t, models.BeatStatusInProgress, owned.Status, "incomplete payload stays in_progress for the next pass")
}

func TestSweepIsolatesPollFailures(t *testing.T) {
	db := setupTestDB(t)
	taskIDs := []string{"task-ok", "task-bad"}
	next := 0
	client := &stubClient{
		generateFn: func(context.Context, string, string) (*suno.GenerateResponse, error) {
			id := taskIDs[next]
			next++
			return &suno.GenerateResponse{TaskID: id}, nil
		},
		fetchFn: func(_ context.Context, taskID string) (*suno.TaskStatus, error) {
			if taskID == "task-bad" {
				return nil, &suno.TransportError{Err: errors.New("timeout")}
			}
			return completedStatus(), nil
		},
	}
	svc := newBeatService(db, client, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	_, err := svc.CreateByGenre(context.Background(), user.ID, "drill")
	require.NoError(t, err)
	_, err = svc.CreateByGenre(context.Background(), user.ID, "trap")
	require.NoError(t, err)

	summary, err := svc.Sweep(context.Background(), user.ID)
	require.NoError(t, err, "one failing poll must not abort the batch")
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Skipped)

	var okBeat, badBeat models.Beat
	require.NoError(t, db.First(&okBeat, "task_id = ? AND user_id IS NOT NULL", "task-ok").Error)
	require.NoError(t, db.First(&badBeat, "task_id = ? AND user_id IS NOT NULL", "task-bad").Error)
	assert.Equal(t, models.BeatStatusCompleted, okBeat.Status)
	assert.Equal(t, models.BeatStatusInProgress, badBeat.Status)
}

func TestSweepExpiresStaleTasks(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{}
	svc := newBeatService(db, client, time.Hour)
	user := createTestUser(t, db, "a@example.com", "free")

	old := time.Now().Add(-3 * time.Hour)
	owned := models.Beat{
		ID: uuid.New(), UserID: &user.ID, TaskID: "task-stale", Genre: "drill",
		Status: models.BeatStatusInProgress, CreatedAt: old,
	}
	twin := models.Beat{
		ID: uuid.New(), TaskID: "task-stale", Genre: "drill",
		Status: models.BeatStatusInProgress, CreatedAt: old,
	}
	require.NoError(t, db.Create(&owned).Error)
	require.NoError(t, db.Create(&twin).Error)

	summary, err := svc.Sweep(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Expired)
	assert.Zero(t, client.fetchCalls, "expired tasks are not polled")

	var beats []models.Beat
	require.NoError(t, db.Where("task_id = ?", "task-stale").Find(&beats).Error)
	for _, b := range beats {
		assert.Equal(t, models.BeatStatusFailed, b.Status)
	}
}

func TestSweepNoBeatsInProgress(t *testing.T) {
	db := setupTestDB(t)
	svc := newBeatService(db, &stubClient{}, 0)
	user := createTestUser(t, db, "a@example.com", "free")

	_, err := svc.Sweep(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrNoBeatsInProgress)
}

func TestSweepToleratesMissingPoolTwin(t *testing.T) {
	db := setupTestDB(t)
	client := &stubClient{fetchFn: func(context.Context, string) (*suno.TaskStatus, error) {
		return completedStatus(), nil
	}}
	svc := newBeatService(db, client, 0)
	owner := createTestUser(t, db, "owner@example.com", "free")
	claimer := createTestUser(t, db, "claimer@example.com", "free")

	res, err := svc.CreateByGenre(context.Background(), owner.ID, "drill")
	require.NoError(t, err)

	// Another user claims the pool twin before the owner's sweep runs.
	claimRes, err := svc.CreateByGenre(context.Background(), claimer.ID, "drill")
	require.NoError(t, err)
	require.True(t, claimRes.Reused)

	summary, err := svc.Sweep(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)

	var owned models.Beat
	require.NoError(t, db.First(&owned, "id = ?", res.UserBeat.ID).Error)
	assert.Equal(t, models.BeatStatusCompleted, owned.Status)
}
