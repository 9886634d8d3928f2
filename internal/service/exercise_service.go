package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrLibraryExerciseNotFound = errors.New("library exercise not found")
	ErrLibraryExerciseExists   = errors.New("an exercise with this id or name already exists")
)

const libraryListCacheKey = "library::all"

// --- Service Interface ---

// ExerciseService manages the exercise library used for autocomplete.
// Library names never constrain the exercise names stored in workouts.
type ExerciseService interface {
	ListExercises(ctx context.Context) ([]domain.LibraryExercise, error)
	GetExerciseByID(ctx context.Context, id string) (*domain.LibraryExercise, error)
	// CreateExercise generates an id when id is empty.
	CreateExercise(ctx context.Context, id, name, muscleGroup string) (*domain.LibraryExercise, error)
	UpdateExercise(ctx context.Context, id, name, muscleGroup string) (*domain.LibraryExercise, error)
	DeleteExercise(ctx context.Context, id string) error
}

// --- Service Implementation ---

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseLibraryRepository
	cache        *freecache.Cache
	cacheTTL     time.Duration
	metrics      *metrics.Manager

	// generation counts invalidations; a list read before the latest one is never cached
	cacheMu    sync.Mutex
	generation uint64
}

// NewExerciseService creates a new instance of exerciseService. The list is
// cached in a freecache of cacheSize bytes for at most cacheTTL.
func NewExerciseService(exerciseRepo repository.ExerciseLibraryRepository, cacheSize int, cacheTTL time.Duration, metricsManager *metrics.Manager) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		cache:        freecache.NewCache(cacheSize),
		cacheTTL:     cacheTTL,
		metrics:      metricsManager,
	}
}

// ListExercises returns the library sorted by name, from cache when possible.
func (s *exerciseService) ListExercises(ctx context.Context) ([]domain.LibraryExercise, error) {
	if cached, err := s.cache.Get([]byte(libraryListCacheKey)); err == nil {
		var exercises []domain.LibraryExercise
		if err = json.Unmarshal(cached, &exercises); err == nil {
			s.metrics.LibraryCacheLookup(true)
			return exercises, nil
		}
		log.Errorf("failed to decode cached exercise library: %s", err)
	}
	s.metrics.LibraryCacheLookup(false)

	generation := s.cacheGeneration()
	exercises, err := s.exerciseRepo.List(ctx)
	if err != nil {
		return nil, upstream(err)
	}

	if encoded, err := json.Marshal(exercises); err != nil {
		log.Errorf("failed to encode exercise library for cache: %s", err)
	} else {
		s.storeList(generation, encoded)
	}
	return exercises, nil
}

func (s *exerciseService) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// storeList caches encoded unless a write invalidated the cache after it was read.
func (s *exerciseService) storeList(generation uint64, encoded []byte) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if generation != s.generation {
		log.Debug("exercise library changed during list, not caching")
		return
	}
	if err := s.cache.Set([]byte(libraryListCacheKey), encoded, int(s.cacheTTL.Seconds())); err != nil {
		log.Warnf("failed to cache exercise library: %s", err)
	}
}

// GetExerciseByID retrieves a single library entry.
func (s *exerciseService) GetExerciseByID(ctx context.Context, id string) (*domain.LibraryExercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibraryExerciseNotFound
		}
		return nil, upstream(err)
	}
	return exercise, nil
}

// CreateExercise adds an entry to the library.
func (s *exerciseService) CreateExercise(ctx context.Context, id, name, muscleGroup string) (*domain.LibraryExercise, error) {
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = domain.NewEntityID()
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	exercise := &domain.LibraryExercise{
		ID:          id,
		Name:        name,
		MuscleGroup: strings.TrimSpace(muscleGroup),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrLibraryExerciseExists, name)
		}
		return nil, upstream(err)
	}
	s.invalidate()
	return exercise, nil
}

// UpdateExercise renames an entry or changes its muscle group.
func (s *exerciseService) UpdateExercise(ctx context.Context, id, name, muscleGroup string) (*domain.LibraryExercise, error) {
	name, err := domain.NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}

	existing, err := s.GetExerciseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = name
	existing.MuscleGroup = strings.TrimSpace(muscleGroup)
	existing.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrLibraryExerciseNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, fmt.Errorf("%w: %q", ErrLibraryExerciseExists, name)
		}
		return nil, upstream(err)
	}
	s.invalidate()
	return existing, nil
}

// DeleteExercise removes an entry from the library.
func (s *exerciseService) DeleteExercise(ctx context.Context, id string) error {
	if err := s.exerciseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLibraryExerciseNotFound
		}
		return upstream(err)
	}
	s.invalidate()
	return nil
}

func (s *exerciseService) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	s.cache.Del([]byte(libraryListCacheKey))
}
