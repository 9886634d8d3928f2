// Package memory keeps workouts and the exercise library in process memory.
// It backs tests and the "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

type workoutRepository struct {
	mu       sync.RWMutex
	workouts map[string]*domain.Workout
	locker   *repository.DateLocker
	now      func() time.Time
}

// NewWorkoutRepository returns an empty in-memory WorkoutRepository.
func NewWorkoutRepository() repository.WorkoutRepository {
	return &workoutRepository{
		workouts: make(map[string]*domain.Workout),
		locker:   repository.NewDateLocker(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *workoutRepository) List(ctx context.Context) ([]domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workouts := make([]domain.Workout, 0, len(r.workouts))
	for _, w := range r.workouts {
		workouts = append(workouts, *w.Clone())
	}
	// YYYY-MM-DD sorts lexically in date order
	sort.Slice(workouts, func(i, j int) bool { return workouts[i].Date > workouts[j].Date })
	return workouts, nil
}

func (r *workoutRepository) GetByDate(ctx context.Context, date string) (*domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workouts[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return w.Clone(), nil
}

func (r *workoutRepository) Mutate(ctx context.Context, date string, fn repository.MutateFunc) (*domain.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.locker.Lock(date)
	defer unlock()

	r.mu.RLock()
	current := r.workouts[date].Clone()
	r.mu.RUnlock()

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch repository.PlanWrite(date, current, next, r.now()) {
	case repository.WriteNone:
		return nil, nil
	case repository.WriteDelete:
		delete(r.workouts, date)
		return nil, nil
	default:
		r.workouts[date] = next.Clone()
		return next, nil
	}
}
