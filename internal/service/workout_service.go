package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrUpstreamFailure wraps failures of the store or of an external service.
	ErrUpstreamFailure = errors.New("upstream failure")
)

// --- Service Interface ---

// WorkoutService is the workout store: every read and write of workouts,
// their exercises and sets goes through it. Mutations run as a single
// read-modify-write of the workout document and cascade empty levels away.
type WorkoutService interface {
	ListWorkouts(ctx context.Context) ([]domain.Workout, error)
	// GetWorkoutByDate returns a placeholder when the date has no workout.
	GetWorkoutByDate(ctx context.Context, date string) (*domain.Workout, error)
	GetExerciseByName(ctx context.Context, date, name string) (*domain.Exercise, error)
	// GetExerciseByID returns a placeholder when the exercise or workout is missing.
	GetExerciseByID(ctx context.Context, date, exerciseID string) (*domain.Exercise, error)

	DeleteExerciseByID(ctx context.Context, date, exerciseID string) error
	DeleteExerciseByName(ctx context.Context, date, name string) error
	DeleteSetsByExerciseID(ctx context.Context, date, exerciseID string, setIDs []string) error
	DeleteSetsByExerciseName(ctx context.Context, date, name string, setIDs []string) error

	BulkUpdateSets(ctx context.Context, date, name string, updates []domain.SetUpdate) (*domain.Exercise, error)
	AddSet(ctx context.Context, date, name string, reps int, weight float64) (*domain.Exercise, error)
	// ImportWorkout merges a whole draft into the workout of its date.
	ImportWorkout(ctx context.Context, draft domain.WorkoutDraft) (*domain.Workout, error)
}

// --- Service Implementation ---

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	metrics     *metrics.Manager
}

// NewWorkoutService creates a new WorkoutService. metricsManager may be nil.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, metricsManager *metrics.Manager) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
		metrics:     metricsManager,
	}
}

// upstream tags storage failures. Lost compare-and-swap races stay
// recognizable as repository.ErrConflict.
func upstream(err error) error {
	if err == nil || errors.Is(err, repository.ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
}

// mutate runs fn through the repository. Errors produced by fn itself are
// returned untouched.
func (s *workoutService) mutate(ctx context.Context, date string, fn repository.MutateFunc) (*domain.Workout, error) {
	var fnErr error
	stored, err := s.workoutRepo.Mutate(ctx, date, func(current *domain.Workout) (*domain.Workout, error) {
		next, err := fn(current)
		fnErr = err
		return next, err
	})
	if err != nil {
		if fnErr != nil && errors.Is(err, fnErr) {
			return nil, err
		}
		return nil, upstream(err)
	}
	return stored, nil
}

func (s *workoutService) ListWorkouts(ctx context.Context) ([]domain.Workout, error) {
	workouts, err := s.workoutRepo.List(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	return workouts, nil
}

func (s *workoutService) GetWorkoutByDate(ctx context.Context, date string) (*domain.Workout, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	workout, err := s.workoutRepo.GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			placeholder := domain.EmptyWorkout(date)
			return &placeholder, nil
		}
		return nil, upstream(err)
	}
	return workout, nil
}

func (s *workoutService) GetExerciseByName(ctx context.Context, date, name string) (*domain.Exercise, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}
	workout, err := s.workoutRepo.GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, upstream(err)
	}
	exercise := workout.ExerciseByName(name)
	if exercise == nil {
		return nil, ErrExerciseNotFound
	}
	found := exercise.Clone()
	return &found, nil
}

func (s *workoutService) GetExerciseByID(ctx context.Context, date, exerciseID string) (*domain.Exercise, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	placeholder := domain.EmptyExercise(exerciseID)
	workout, err := s.workoutRepo.GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &placeholder, nil
		}
		return nil, upstream(err)
	}
	exercise := workout.ExerciseByID(exerciseID)
	if exercise == nil {
		return &placeholder, nil
	}
	found := exercise.Clone()
	return &found, nil
}

func (s *workoutService) DeleteExerciseByID(ctx context.Context, date, exerciseID string) error {
	if err := domain.ValidateDate(date); err != nil {
		return err
	}
	if strings.TrimSpace(exerciseID) == "" {
		return fmt.Errorf("%w: exercise id is required", domain.ErrInvalidArgument)
	}
	return s.deleteExercise(ctx, date, func(w *domain.Workout) bool { return w.RemoveExerciseByID(exerciseID) })
}

func (s *workoutService) DeleteExerciseByName(ctx context.Context, date, name string) error {
	if err := domain.ValidateDate(date); err != nil {
		return err
	}
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return err
	}
	return s.deleteExercise(ctx, date, func(w *domain.Workout) bool { return w.RemoveExerciseByName(name) })
}

func (s *workoutService) deleteExercise(ctx context.Context, date string, remove func(*domain.Workout) bool) error {
	stored, err := s.mutate(ctx, date, func(current *domain.Workout) (*domain.Workout, error) {
		if current == nil {
			return nil, ErrWorkoutNotFound
		}
		if !remove(current) {
			return nil, ErrExerciseNotFound
		}
		return current, nil
	})
	if err != nil {
		return err
	}

	s.metrics.CascadeDeleted(metrics.LevelExercise, 1)
	if stored == nil {
		s.metrics.CascadeDeleted(metrics.LevelWorkout, 1)
		log.WithField("date", date).Info("last exercise deleted, workout removed")
	}
	return nil
}

func (s *workoutService) DeleteSetsByExerciseID(ctx context.Context, date, exerciseID string, setIDs []string) error {
	if err := domain.ValidateDate(date); err != nil {
		return err
	}
	if err := domain.ValidateSetIDs(setIDs); err != nil {
		return err
	}
	return s.deleteSets(ctx, date, setIDs, func(w *domain.Workout) *domain.Exercise { return w.ExerciseByID(exerciseID) })
}

func (s *workoutService) DeleteSetsByExerciseName(ctx context.Context, date, name string, setIDs []string) error {
	if err := domain.ValidateDate(date); err != nil {
		return err
	}
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return err
	}
	if err := domain.ValidateSetIDs(setIDs); err != nil {
		return err
	}
	return s.deleteSets(ctx, date, setIDs, func(w *domain.Workout) *domain.Exercise { return w.ExerciseByName(name) })
}

// deleteSets removes the listed sets, then drops the exercise if it ran
// empty and the workout if it has no exercise left.
func (s *workoutService) deleteSets(ctx context.Context, date string, setIDs []string, find func(*domain.Workout) *domain.Exercise) error {
	var removedSets, removedExercises int
	stored, err := s.mutate(ctx, date, func(current *domain.Workout) (*domain.Workout, error) {
		if current == nil {
			return nil, ErrWorkoutNotFound
		}
		exercise := find(current)
		if exercise == nil {
			return nil, ErrExerciseNotFound
		}
		removedSets = exercise.RemoveSets(setIDs)
		removedExercises = current.PruneEmptyExercises()
		return current, nil
	})
	if err != nil {
		return err
	}

	s.metrics.CascadeDeleted(metrics.LevelSet, removedSets)
	s.metrics.CascadeDeleted(metrics.LevelExercise, removedExercises)
	fields := log.Fields{"date": date, "sets": removedSets}
	if removedExercises > 0 {
		log.WithFields(fields).Info("exercise emptied by set deletion, removed")
	}
	if stored == nil {
		s.metrics.CascadeDeleted(metrics.LevelWorkout, 1)
		log.WithFields(fields).Info("workout emptied by set deletion, removed")
	}
	return nil
}

func (s *workoutService) BulkUpdateSets(ctx context.Context, date, name string, updates []domain.SetUpdate) (*domain.Exercise, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSetUpdates(updates); err != nil {
		return nil, err
	}

	var updated domain.Exercise
	var applied int
	_, err = s.mutate(ctx, date, func(current *domain.Workout) (*domain.Workout, error) {
		if current == nil {
			return nil, ErrWorkoutNotFound
		}
		exercise := current.ExerciseByName(name)
		if exercise == nil {
			return nil, ErrExerciseNotFound
		}
		n, err := exercise.ApplySetUpdates(updates)
		if err != nil {
			return nil, err
		}
		applied = n
		updated = exercise.Clone()
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"date":     date,
		"exercise": updated.Name,
		"updated":  applied,
		"skipped":  len(updates) - applied,
	}).Debug("sets updated")
	return &updated, nil
}

func (s *workoutService) AddSet(ctx context.Context, date, name string, reps int, weight float64) (*domain.Exercise, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSet(reps, weight); err != nil {
		return nil, err
	}

	var updated domain.Exercise
	_, err = s.mutate(ctx, date, func(current *domain.Workout) (*domain.Workout, error) {
		if current == nil {
			current = domain.NewWorkout(date, "")
		}
		exercise := current.FindOrAddExercise(name)
		if _, err := exercise.AddSet(reps, weight); err != nil {
			return nil, err
		}
		updated = exercise.Clone()
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SetsAdded(1)
	return &updated, nil
}

func (s *workoutService) ImportWorkout(ctx context.Context, draft domain.WorkoutDraft) (*domain.Workout, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		name = domain.ImportedWorkoutName
	}

	var added int
	stored, err := s.mutate(ctx, draft.Date, func(current *domain.Workout) (*domain.Workout, error) {
		if current == nil {
			current = domain.NewWorkout(draft.Date, name)
		}
		added = current.Merge(draft)
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SetsAdded(added)
	log.WithFields(log.Fields{
		"date":      draft.Date,
		"exercises": len(draft.Exercises),
		"sets":      added,
	}).Info("workout imported")
	return stored, nil
}
