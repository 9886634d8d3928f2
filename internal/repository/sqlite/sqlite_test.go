package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
	"peakpt/workout-app/internal/repository/repotest"
	"peakpt/workout-app/internal/repository/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nested", "peakpt.db")
}

func TestWorkoutRepository(t *testing.T) {
	repotest.RunWorkoutRepositoryTests(t, func(t *testing.T) repository.WorkoutRepository {
		db, err := sqlite.Open(openTestDB(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return sqlite.NewWorkoutRepository(db)
	})
}

func TestExerciseLibraryRepository(t *testing.T) {
	repotest.RunExerciseLibraryRepositoryTests(t, func(t *testing.T) repository.ExerciseLibraryRepository {
		db, err := sqlite.Open(openTestDB(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return sqlite.NewExerciseLibraryRepository(db)
	})
}

func TestWorkoutsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := openTestDB(t)

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = sqlite.NewWorkoutRepository(db).Mutate(ctx, "2024-09-05", func(current *domain.Workout) (*domain.Workout, error) {
		w := domain.NewWorkout("", "Push day")
		_, err := w.FindOrAddExercise("Bench Press").AddSet(8, 60)
		return w, err
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := sqlite.NewWorkoutRepository(db).GetByDate(ctx, "2024-09-05")
	require.NoError(t, err)
	assert.Equal(t, "Push day", got.Name)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, 60.0, got.Exercises[0].Sets[0].Weight)
}
