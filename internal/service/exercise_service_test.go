package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/repository"
	"peakpt/workout-app/internal/repository/memory"
	"peakpt/workout-app/internal/service"
)

// countingLibraryRepo counts List calls to observe the cache.
type countingLibraryRepo struct {
	repository.ExerciseLibraryRepository
	lists int
}

func (r *countingLibraryRepo) List(ctx context.Context) ([]domain.LibraryExercise, error) {
	r.lists++
	return r.ExerciseLibraryRepository.List(ctx)
}

func newExerciseService(t *testing.T) (service.ExerciseService, *countingLibraryRepo, *metrics.Manager) {
	t.Helper()
	repo := &countingLibraryRepo{ExerciseLibraryRepository: memory.NewExerciseLibraryRepository()}
	m := metrics.NewTestManager()
	return service.NewExerciseService(repo, 1<<20, time.Minute, m), repo, m
}

func TestExerciseService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newExerciseService(t)

	created, err := svc.CreateExercise(ctx, "", "  Bench Press ", "Chest")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Bench Press", created.Name)

	withID, err := svc.CreateExercise(ctx, "squat", "Squat", "")
	require.NoError(t, err)
	assert.Equal(t, "squat", withID.ID)

	_, err = svc.CreateExercise(ctx, "", "bench press", "")
	require.ErrorIs(t, err, service.ErrLibraryExerciseExists)
	_, err = svc.CreateExercise(ctx, "", " ", "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	updated, err := svc.UpdateExercise(ctx, "squat", "Back Squat", "Legs")
	require.NoError(t, err)
	assert.Equal(t, "Back Squat", updated.Name)
	assert.Equal(t, "Legs", updated.MuscleGroup)

	_, err = svc.UpdateExercise(ctx, "squat", "BENCH PRESS", "")
	require.ErrorIs(t, err, service.ErrLibraryExerciseExists)
	_, err = svc.UpdateExercise(ctx, "missing", "Curl", "")
	require.ErrorIs(t, err, service.ErrLibraryExerciseNotFound)

	got, err := svc.GetExerciseByID(ctx, "squat")
	require.NoError(t, err)
	assert.Equal(t, "Back Squat", got.Name)

	require.NoError(t, svc.DeleteExercise(ctx, "squat"))
	require.ErrorIs(t, svc.DeleteExercise(ctx, "squat"), service.ErrLibraryExerciseNotFound)
	_, err = svc.GetExerciseByID(ctx, "squat")
	require.ErrorIs(t, err, service.ErrLibraryExerciseNotFound)
}

func TestExerciseService_ListIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo, m := newExerciseService(t)

	_, err := svc.CreateExercise(ctx, "", "Row", "Back")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		list, err := svc.ListExercises(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	assert.Equal(t, 1, repo.lists)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterLibraryCache.WithLabelValues("hit")))

	_, err = svc.CreateExercise(ctx, "", "Curl", "Arms")
	require.NoError(t, err)
	list, err := svc.ListExercises(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
	require.Len(t, list, 2)
	assert.Equal(t, "Curl", list[0].Name)
	assert.Equal(t, "Row", list[1].Name)
}

// racingLibraryRepo runs afterRead once, between reading the list and
// returning it, to interleave a write with an in-flight List.
type racingLibraryRepo struct {
	repository.ExerciseLibraryRepository
	afterRead func()
}

func (r *racingLibraryRepo) List(ctx context.Context) ([]domain.LibraryExercise, error) {
	list, err := r.ExerciseLibraryRepository.List(ctx)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return list, err
}

func TestExerciseService_StaleListIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo := &racingLibraryRepo{ExerciseLibraryRepository: memory.NewExerciseLibraryRepository()}
	svc := service.NewExerciseService(repo, 1<<20, time.Minute, metrics.NewTestManager())

	_, err := svc.CreateExercise(ctx, "", "Row", "Back")
	require.NoError(t, err)

	repo.afterRead = func() {
		_, err := svc.CreateExercise(ctx, "", "Curl", "Arms")
		require.NoError(t, err)
	}
	stale, err := svc.ListExercises(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	fresh, err := svc.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "Curl", fresh[0].Name)
}
