package repository

import (
	"context"
	"time"

	"peakpt/workout-app/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrConflict  = RepositoryError("concurrent modification, giving up")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// MutateFunc receives a private copy of the stored workout, or nil when the
// date has none, and returns the workout to store. Returning nil or a workout
// without exercises deletes the document. A returned error aborts the write.
// Implementations may call the function more than once when they lose a race.
type MutateFunc func(current *domain.Workout) (*domain.Workout, error)

// WorkoutRepository stores one workout document per date.
type WorkoutRepository interface {
	// List returns every workout ordered by date, newest first.
	List(ctx context.Context) ([]domain.Workout, error)
	GetByDate(ctx context.Context, date string) (*domain.Workout, error)
	// Mutate runs a read-modify-write on the workout of the given date.
	// Two mutations of the same date never interleave. It returns the
	// workout as stored afterwards, or nil when none remains.
	Mutate(ctx context.Context, date string, fn MutateFunc) (*domain.Workout, error)
}

// ExerciseLibraryRepository stores the flat catalog of known exercise names.
type ExerciseLibraryRepository interface {
	// List returns all entries ordered by name.
	List(ctx context.Context) ([]domain.LibraryExercise, error)
	GetByID(ctx context.Context, id string) (*domain.LibraryExercise, error)
	// Create fails with ErrDuplicate when the id or the name (case-insensitive) is taken.
	Create(ctx context.Context, exercise *domain.LibraryExercise) error
	Update(ctx context.Context, exercise *domain.LibraryExercise) error
	Delete(ctx context.Context, id string) error
}

// WriteOp is the storage action a mutation resolves to.
type WriteOp int

const (
	WriteNone WriteOp = iota
	WriteInsert
	WriteReplace
	WriteDelete
)

// PlanWrite decides how to persist next given what was read, and stamps the
// bookkeeping fields (key, version, timestamps) on next accordingly.
// Workouts without exercises are never written.
func PlanWrite(date string, current, next *domain.Workout, now time.Time) WriteOp {
	if next.IsEmpty() {
		if current == nil {
			return WriteNone
		}
		return WriteDelete
	}
	next.Date = date
	next.UpdatedAt = now
	if current == nil {
		next.Version = 1
		next.CreatedAt = now
		return WriteInsert
	}
	next.Version = current.Version + 1
	next.CreatedAt = current.CreatedAt
	return WriteReplace
}
