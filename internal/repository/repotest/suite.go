// Package repotest holds the behaviour every repository backend must share.
// Backend packages call these helpers from their own tests.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

// ConcurrentWriters is the number of goroutines racing on one date in
// RunWorkoutRepositoryTests. It exceeds the retry budget of optimistic
// backends, so those must serialize local writers rather than rely on retries.
const ConcurrentWriters = 24

func addSetFn(exercise string, reps int, weight float64) repository.MutateFunc {
	return func(current *domain.Workout) (*domain.Workout, error) {
		if current == nil {
			current = domain.NewWorkout("", "")
		}
		if _, err := current.FindOrAddExercise(exercise).AddSet(reps, weight); err != nil {
			return nil, err
		}
		return current, nil
	}
}

// RunWorkoutRepositoryTests exercises a WorkoutRepository implementation.
// newRepo must return an empty repository.
func RunWorkoutRepositoryTests(t *testing.T, newRepo func(t *testing.T) repository.WorkoutRepository) {
	ctx := context.Background()

	t.Run("get missing date", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByDate(ctx, "2024-09-05")
		require.ErrorIs(t, err, repository.ErrNotFound)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("insert then replace", func(t *testing.T) {
		repo := newRepo(t)
		stored, err := repo.Mutate(ctx, "2024-09-05", addSetFn("Bent Over Row", 5, 43))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "2024-09-05", stored.Date)
		assert.Equal(t, domain.DefaultWorkoutName, stored.Name)
		assert.Equal(t, int64(1), stored.Version)
		assert.False(t, stored.CreatedAt.IsZero())

		stored, err = repo.Mutate(ctx, "2024-09-05", addSetFn("bent over row", 5, 45))
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.Version)

		got, err := repo.GetByDate(ctx, "2024-09-05")
		require.NoError(t, err)
		require.Len(t, got.Exercises, 1)
		assert.Equal(t, "Bent Over Row", got.Exercises[0].Name)
		require.Len(t, got.Exercises[0].Sets, 2)
		assert.Equal(t, 5, got.Exercises[0].Sets[1].Reps)
		assert.Equal(t, 45.0, got.Exercises[0].Sets[1].Weight)
		assert.NotEqual(t, got.Exercises[0].Sets[0].ID, got.Exercises[0].Sets[1].ID)
	})

	t.Run("list newest first", func(t *testing.T) {
		repo := newRepo(t)
		for _, date := range []string{"2024-09-03", "2024-09-10", "2024-08-30"} {
			_, err := repo.Mutate(ctx, date, addSetFn("Squat", 5, 100))
			require.NoError(t, err)
		}
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "2024-09-10", list[0].Date)
		assert.Equal(t, "2024-09-03", list[1].Date)
		assert.Equal(t, "2024-08-30", list[2].Date)
	})

	t.Run("error aborts the write", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Mutate(ctx, "2024-09-05", addSetFn("Squat", 5, 100))
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = repo.Mutate(ctx, "2024-09-05", func(current *domain.Workout) (*domain.Workout, error) {
			current.Exercises[0].Sets[0].Reps = 99
			current.Name = "changed"
			return nil, boom
		})
		require.ErrorIs(t, err, boom)

		got, err := repo.GetByDate(ctx, "2024-09-05")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultWorkoutName, got.Name)
		assert.Equal(t, 5, got.Exercises[0].Sets[0].Reps)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("nothing is written for an absent empty workout", func(t *testing.T) {
		repo := newRepo(t)
		stored, err := repo.Mutate(ctx, "2024-09-05", func(current *domain.Workout) (*domain.Workout, error) {
			assert.Nil(t, current)
			return domain.NewWorkout("2024-09-05", ""), nil
		})
		require.NoError(t, err)
		assert.Nil(t, stored)

		_, err = repo.GetByDate(ctx, "2024-09-05")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("emptied workout is deleted", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Mutate(ctx, "2024-09-05", addSetFn("Squat", 5, 100))
		require.NoError(t, err)

		stored, err := repo.Mutate(ctx, "2024-09-05", func(current *domain.Workout) (*domain.Workout, error) {
			require.NotNil(t, current)
			current.Exercises = nil
			return current, nil
		})
		require.NoError(t, err)
		assert.Nil(t, stored)

		_, err = repo.GetByDate(ctx, "2024-09-05")
		require.ErrorIs(t, err, repository.ErrNotFound)
		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("returned workouts are copies", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Mutate(ctx, "2024-09-05", addSetFn("Squat", 5, 100))
		require.NoError(t, err)

		got, err := repo.GetByDate(ctx, "2024-09-05")
		require.NoError(t, err)
		got.Exercises[0].Sets[0].Reps = 1

		again, err := repo.GetByDate(ctx, "2024-09-05")
		require.NoError(t, err)
		assert.Equal(t, 5, again.Exercises[0].Sets[0].Reps)
	})

	t.Run("concurrent writers on one date serialize", func(t *testing.T) {
		repo := newRepo(t)
		var wg sync.WaitGroup
		errs := make(chan error, ConcurrentWriters)
		for i := 0; i < ConcurrentWriters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Mutate(ctx, "2024-09-05", addSetFn("Deadlift", i+1, 100))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.GetByDate(ctx, "2024-09-05")
		require.NoError(t, err)
		require.Len(t, got.Exercises, 1)
		assert.Len(t, got.Exercises[0].Sets, ConcurrentWriters)
		assert.Equal(t, int64(ConcurrentWriters), got.Version)
	})
}

// RunExerciseLibraryRepositoryTests exercises an ExerciseLibraryRepository implementation.
func RunExerciseLibraryRepositoryTests(t *testing.T, newRepo func(t *testing.T) repository.ExerciseLibraryRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	entry := func(id, name string) *domain.LibraryExercise {
		return &domain.LibraryExercise{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	}

	t.Run("create get list", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entry("squat", "Squat")))
		require.NoError(t, repo.Create(ctx, entry("bench", "Bench Press")))

		got, err := repo.GetByID(ctx, "squat")
		require.NoError(t, err)
		assert.Equal(t, "Squat", got.Name)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Bench Press", list[0].Name)
		assert.Equal(t, "Squat", list[1].Name)

		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicates rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entry("squat", "Squat")))
		require.ErrorIs(t, repo.Create(ctx, entry("squat", "Front Squat")), repository.ErrDuplicate)
		require.ErrorIs(t, repo.Create(ctx, entry("squat-2", "SQUAT")), repository.ErrDuplicate)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entry("squat", "Squat")))
		require.NoError(t, repo.Create(ctx, entry("row", "Row")))

		updated := entry("squat", "Back Squat")
		updated.MuscleGroup = "Legs"
		require.NoError(t, repo.Update(ctx, updated))
		got, err := repo.GetByID(ctx, "squat")
		require.NoError(t, err)
		assert.Equal(t, "Back Squat", got.Name)
		assert.Equal(t, "Legs", got.MuscleGroup)

		require.ErrorIs(t, repo.Update(ctx, entry("missing", "Curl")), repository.ErrNotFound)
		require.ErrorIs(t, repo.Update(ctx, entry("squat", "row")), repository.ErrDuplicate)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entry("squat", "Squat")))
		require.NoError(t, repo.Delete(ctx, "squat"))
		require.ErrorIs(t, repo.Delete(ctx, "squat"), repository.ErrNotFound)
		_, err := repo.GetByID(ctx, "squat")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}
