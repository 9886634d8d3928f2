package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

type exerciseLibraryRepository struct {
	mu        sync.RWMutex
	exercises map[string]domain.LibraryExercise
}

// NewExerciseLibraryRepository returns an empty in-memory ExerciseLibraryRepository.
func NewExerciseLibraryRepository() repository.ExerciseLibraryRepository {
	return &exerciseLibraryRepository{exercises: make(map[string]domain.LibraryExercise)}
}

func (r *exerciseLibraryRepository) List(ctx context.Context) ([]domain.LibraryExercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.LibraryExercise, 0, len(r.exercises))
	for _, e := range r.exercises {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return list, nil
}

func (r *exerciseLibraryRepository) GetByID(ctx context.Context, id string) (*domain.LibraryExercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *exerciseLibraryRepository) Create(ctx context.Context, exercise *domain.LibraryExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exercises[exercise.ID]; ok {
		return repository.ErrDuplicate
	}
	if r.nameTaken(exercise.Name, "") {
		return repository.ErrDuplicate
	}
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *exerciseLibraryRepository) Update(ctx context.Context, exercise *domain.LibraryExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(exercise.Name, exercise.ID) {
		return repository.ErrDuplicate
	}
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *exerciseLibraryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// nameTaken must be called with mu held.
func (r *exerciseLibraryRepository) nameTaken(name, exceptID string) bool {
	for id, e := range r.exercises {
		if id != exceptID && strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}
