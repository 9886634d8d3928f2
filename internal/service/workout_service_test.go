package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/repository"
	"peakpt/workout-app/internal/repository/memory"
	"peakpt/workout-app/internal/service"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func newWorkoutService(t *testing.T) (service.WorkoutService, *metrics.Manager) {
	t.Helper()
	m := metrics.NewTestManager()
	return service.NewWorkoutService(memory.NewWorkoutRepository(), m), m
}

func TestAddSet_CreatesWorkoutAndExercise(t *testing.T) {
	ctx := context.Background()
	svc, m := newWorkoutService(t)

	var ids []string
	for i := 0; i < 3; i++ {
		exercise, err := svc.AddSet(ctx, "2024-09-05", "Bent Over Row", 5, 43)
		require.NoError(t, err)
		require.Len(t, exercise.Sets, i+1)
		ids = append(ids, exercise.Sets[i].ID)
	}
	assert.Len(t, map[string]struct{}{ids[0]: {}, ids[1]: {}, ids[2]: {}}, 3)

	workouts, err := svc.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, domain.DefaultWorkoutName, workouts[0].Name)
	require.Len(t, workouts[0].Exercises, 1)
	for _, set := range workouts[0].Exercises[0].Sets {
		assert.Equal(t, 5, set.Reps)
		assert.Equal(t, 43.0, set.Weight)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterSetsAdded))

	exerciseID := workouts[0].Exercises[0].ID
	require.NoError(t, svc.DeleteSetsByExerciseID(ctx, "2024-09-05", exerciseID, ids))

	workout, err := svc.GetWorkoutByDate(ctx, "2024-09-05")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyWorkout("2024-09-05"), *workout)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterCascadeDeletes.WithLabelValues(metrics.LevelWorkout)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterCascadeDeletes.WithLabelValues(metrics.LevelSet)))
}

func TestAddSet_NameIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	_, err := svc.AddSet(ctx, "2024-09-05", "Bench Press", 8, 60)
	require.NoError(t, err)
	exercise, err := svc.AddSet(ctx, "2024-09-05", "bench press", 6, 70)
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", exercise.Name)
	assert.Len(t, exercise.Sets, 2)

	got, err := svc.GetExerciseByName(ctx, "2024-09-05", "BENCH PRESS")
	require.NoError(t, err)
	assert.Equal(t, exercise.ID, got.ID)
	assert.Equal(t, 70.0, got.Sets[1].Weight)
}

func TestAddSet_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	_, err := svc.AddSet(ctx, "9/9/2024", "Squat", 5, 100)
	require.ErrorIs(t, err, domain.ErrInvalidDate)
	_, err = svc.AddSet(ctx, "2024-13-40", "Squat", 5, 100)
	require.ErrorIs(t, err, domain.ErrInvalidDate)
	_, err = svc.AddSet(ctx, "2024-09-09", "Squat", 0, 100)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.AddSet(ctx, "2024-09-09", "Squat", 5, -1)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.AddSet(ctx, "2024-09-09", "  ", 5, 10)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	workouts, err := svc.ListWorkouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, workouts)

	_, err = svc.AddSet(ctx, "2024-09-09", "Squat", 5, 0)
	require.NoError(t, err)
}

func TestGetters_Placeholders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	workout, err := svc.GetWorkoutByDate(ctx, "2024-09-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-05", workout.Date)
	assert.Empty(t, workout.Name)
	assert.NotNil(t, workout.Exercises)
	assert.Empty(t, workout.Exercises)

	exercise, err := svc.GetExerciseByID(ctx, "2024-09-05", "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyExercise("abc"), *exercise)

	_, err = svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.NoError(t, err)
	exercise, err = svc.GetExerciseByID(ctx, "2024-09-05", "abc")
	require.NoError(t, err)
	assert.Empty(t, exercise.Name)

	_, err = svc.GetExerciseByName(ctx, "2024-09-05", "Deadlift")
	require.ErrorIs(t, err, service.ErrExerciseNotFound)
	_, err = svc.GetExerciseByName(ctx, "2024-09-06", "Squat")
	require.ErrorIs(t, err, service.ErrWorkoutNotFound)
	_, err = svc.GetWorkoutByDate(ctx, "2024-9-5")
	require.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestGetExerciseByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	added, err := svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.NoError(t, err)

	got, err := svc.GetExerciseByID(ctx, "2024-09-05", added.ID)
	require.NoError(t, err)
	assert.Equal(t, *added, *got)
}

func TestDeleteExercise_Cascade(t *testing.T) {
	ctx := context.Background()
	svc, m := newWorkoutService(t)

	squat, err := svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.NoError(t, err)
	_, err = svc.AddSet(ctx, "2024-09-05", "Lunge", 10, 20)
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteExerciseByID(ctx, "2024-09-05", "missing"), service.ErrExerciseNotFound)
	require.ErrorIs(t, svc.DeleteExerciseByName(ctx, "2024-09-06", "Squat"), service.ErrWorkoutNotFound)
	require.ErrorIs(t, svc.DeleteExerciseByName(ctx, "2024-09-05", ""), domain.ErrInvalidArgument)

	require.NoError(t, svc.DeleteExerciseByID(ctx, "2024-09-05", squat.ID))
	workout, err := svc.GetWorkoutByDate(ctx, "2024-09-05")
	require.NoError(t, err)
	require.Len(t, workout.Exercises, 1)
	assert.Equal(t, "Lunge", workout.Exercises[0].Name)

	require.NoError(t, svc.DeleteExerciseByName(ctx, "2024-09-05", "LUNGE"))
	workouts, err := svc.ListWorkouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, workouts)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterCascadeDeletes.WithLabelValues(metrics.LevelExercise)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterCascadeDeletes.WithLabelValues(metrics.LevelWorkout)))
}

func TestDeleteSetsByName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	first, err := svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.NoError(t, err)
	_, err = svc.AddSet(ctx, "2024-09-05", "Squat", 5, 110)
	require.NoError(t, err)
	_, err = svc.AddSet(ctx, "2024-09-05", "Plank", 1, 0)
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteSetsByExerciseName(ctx, "2024-09-05", "Squat", nil), domain.ErrInvalidArgument)
	require.ErrorIs(t, svc.DeleteSetsByExerciseName(ctx, "2024-09-05", "Squat", []string{" "}), domain.ErrInvalidArgument)
	require.ErrorIs(t, svc.DeleteSetsByExerciseName(ctx, "2024-09-05", "Curl", []string{"x"}), service.ErrExerciseNotFound)

	require.NoError(t, svc.DeleteSetsByExerciseName(ctx, "2024-09-05", "squat", []string{first.Sets[0].ID, "unknown"}))
	squat, err := svc.GetExerciseByName(ctx, "2024-09-05", "Squat")
	require.NoError(t, err)
	require.Len(t, squat.Sets, 1)
	assert.Equal(t, 110.0, squat.Sets[0].Weight)

	require.NoError(t, svc.DeleteSetsByExerciseName(ctx, "2024-09-05", "Squat", []string{squat.Sets[0].ID}))
	_, err = svc.GetExerciseByName(ctx, "2024-09-05", "Squat")
	require.ErrorIs(t, err, service.ErrExerciseNotFound)

	workout, err := svc.GetWorkoutByDate(ctx, "2024-09-05")
	require.NoError(t, err)
	require.Len(t, workout.Exercises, 1)
	assert.Equal(t, "Plank", workout.Exercises[0].Name)
}

func TestBulkUpdateSets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	_, err := svc.AddSet(ctx, "2024-09-05", "Deadlift", 5, 140)
	require.NoError(t, err)
	exercise, err := svc.AddSet(ctx, "2024-09-05", "Deadlift", 5, 150)
	require.NoError(t, err)
	a, b := exercise.Sets[0].ID, exercise.Sets[1].ID

	t.Run("one invalid update changes nothing", func(t *testing.T) {
		_, err := svc.BulkUpdateSets(ctx, "2024-09-05", "Deadlift", []domain.SetUpdate{
			{ID: a, Reps: intPtr(3)},
			{ID: b, Weight: floatPtr(-5)},
		})
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		got, err := svc.GetExerciseByName(ctx, "2024-09-05", "Deadlift")
		require.NoError(t, err)
		assert.Equal(t, exercise.Sets, got.Sets)
	})

	t.Run("valid batch applies and skips unknown ids", func(t *testing.T) {
		updated, err := svc.BulkUpdateSets(ctx, "2024-09-05", "deadlift", []domain.SetUpdate{
			{ID: a, Reps: intPtr(3)},
			{ID: b, Weight: floatPtr(155)},
			{ID: "unknown", Reps: intPtr(1)},
		})
		require.NoError(t, err)
		require.Len(t, updated.Sets, 2)
		assert.Equal(t, domain.Set{ID: a, Reps: 3, Weight: 140}, updated.Sets[0])
		assert.Equal(t, domain.Set{ID: b, Reps: 5, Weight: 155}, updated.Sets[1])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.BulkUpdateSets(ctx, "2024-09-05", "Deadlift", nil)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		_, err = svc.BulkUpdateSets(ctx, "2024-09-05", "Squat", []domain.SetUpdate{{ID: a, Reps: intPtr(1)}})
		require.ErrorIs(t, err, service.ErrExerciseNotFound)
		_, err = svc.BulkUpdateSets(ctx, "2024-09-07", "Deadlift", []domain.SetUpdate{{ID: a, Reps: intPtr(1)}})
		require.ErrorIs(t, err, service.ErrWorkoutNotFound)
	})
}

func TestImportWorkout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	_, err := svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.NoError(t, err)

	stored, err := svc.ImportWorkout(ctx, domain.WorkoutDraft{
		Date: "2024-09-05",
		Exercises: []domain.ExerciseDraft{
			{Name: "squat", Sets: []domain.SetDraft{{Reps: 10, Weight: 80}}},
			{Name: "Leg Press", Sets: []domain.SetDraft{{Reps: 12, Weight: 150}, {Reps: 12, Weight: 150}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWorkoutName, stored.Name, "existing workouts keep their name")
	require.Len(t, stored.Exercises, 2)
	assert.Len(t, stored.Exercises[0].Sets, 2)
	assert.Len(t, stored.Exercises[1].Sets, 2)

	fresh, err := svc.ImportWorkout(ctx, domain.WorkoutDraft{
		Date:      "2024-09-06",
		Exercises: []domain.ExerciseDraft{{Name: "Row", Sets: []domain.SetDraft{{Reps: 8, Weight: 50}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportedWorkoutName, fresh.Name)

	_, err = svc.ImportWorkout(ctx, domain.WorkoutDraft{
		Date: "2024-09-07",
		Exercises: []domain.ExerciseDraft{
			{Name: "Row", Sets: []domain.SetDraft{{Reps: 8, Weight: 50}}},
			{Name: "Curl", Sets: []domain.SetDraft{{Reps: 0, Weight: 10}}},
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	workout, err := svc.GetWorkoutByDate(ctx, "2024-09-07")
	require.NoError(t, err)
	assert.Empty(t, workout.Exercises)
}

func TestAddSet_ConcurrentSameDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkoutService(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddSet(ctx, "2024-09-05", "Pull Up", 8, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	exercise, err := svc.GetExerciseByName(ctx, "2024-09-05", "Pull Up")
	require.NoError(t, err)
	assert.Len(t, exercise.Sets, 20)
}

type failingRepo struct {
	err error
}

func (f failingRepo) List(ctx context.Context) ([]domain.Workout, error) { return nil, f.err }

func (f failingRepo) GetByDate(ctx context.Context, date string) (*domain.Workout, error) {
	return nil, f.err
}

func (f failingRepo) Mutate(ctx context.Context, date string, fn repository.MutateFunc) (*domain.Workout, error) {
	return nil, f.err
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	svc := service.NewWorkoutService(failingRepo{err: errors.New("connection reset")}, nil)

	_, err := svc.ListWorkouts(ctx)
	require.ErrorIs(t, err, service.ErrUpstreamFailure)
	_, err = svc.GetWorkoutByDate(ctx, "2024-09-05")
	require.ErrorIs(t, err, service.ErrUpstreamFailure)
	_, err = svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.ErrorIs(t, err, service.ErrUpstreamFailure)

	svc = service.NewWorkoutService(failingRepo{err: repository.ErrConflict}, nil)
	_, err = svc.AddSet(ctx, "2024-09-05", "Squat", 5, 100)
	require.ErrorIs(t, err, repository.ErrConflict)
	assert.NotErrorIs(t, err, service.ErrUpstreamFailure)
}
