package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// DefaultWorkoutName is used for workouts created implicitly by adding a set.
const DefaultWorkoutName = "Custom workout"

// Set is one reps/weight pair recorded against an Exercise.
type Set struct {
	ID     string  `bson:"id" json:"id"`
	Reps   int     `bson:"reps" json:"reps"`     // always > 0
	Weight float64 `bson:"weight" json:"weight"` // always >= 0
}

// Exercise is a named movement inside a Workout. Names are unique within
// their workout under case-insensitive comparison.
type Exercise struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Sets []Set  `bson:"sets" json:"sets"`
}

// Workout is the root aggregate for one calendar day. The date is the
// natural key and doubles as the document id.
type Workout struct {
	Date      string     `bson:"_id" json:"date"`
	Name      string     `bson:"name" json:"name"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
	Version   int64      `bson:"version" json:"version"` // bumped on every write, used for compare-and-swap
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// SetUpdate carries a partial update for one set in a bulk update.
// Nil fields are left untouched.
type SetUpdate struct {
	ID     string
	Reps   *int
	Weight *float64
}

// NewWorkout returns an unsaved workout without exercises.
func NewWorkout(date, name string) *Workout {
	if name == "" {
		name = DefaultWorkoutName
	}
	return &Workout{Date: date, Name: name, Exercises: []Exercise{}}
}

// EmptyWorkout is the placeholder returned when no workout exists for a date.
func EmptyWorkout(date string) Workout {
	return Workout{Date: date, Name: "", Exercises: []Exercise{}}
}

// EmptyExercise is the placeholder returned when an exercise id is unknown.
func EmptyExercise(id string) Exercise {
	return Exercise{ID: id, Name: "", Sets: []Set{}}
}

// ValidateSet enforces reps > 0 and weight >= 0.
func ValidateSet(reps int, weight float64) error {
	if reps <= 0 {
		return fmt.Errorf("%w: reps must be greater than 0", ErrInvalidArgument)
	}
	if weight < 0 {
		return fmt.Errorf("%w: weight must be a non-negative number", ErrInvalidArgument)
	}
	return nil
}

// NormalizeExerciseName trims the name and rejects blank ones.
func NormalizeExerciseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: exercise name is required", ErrInvalidArgument)
	}
	return name, nil
}

// ValidateSetIDs rejects an empty list or blank ids.
func ValidateSetIDs(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: setIds must be a non-empty array", ErrInvalidArgument)
	}
	if lo.Contains(lo.Map(ids, func(id string, _ int) string { return strings.TrimSpace(id) }), "") {
		return fmt.Errorf("%w: setIds must not contain blank ids", ErrInvalidArgument)
	}
	return nil
}

// ValidateSetUpdates checks every update of a batch. All violations are
// reported together so the caller sees the whole picture at once.
func ValidateSetUpdates(updates []SetUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: updates must be a non-empty array", ErrInvalidArgument)
	}
	var err error
	for i, u := range updates {
		if strings.TrimSpace(u.ID) == "" {
			err = multierr.Append(err, fmt.Errorf("%w: update %d has no set id", ErrInvalidArgument, i))
		}
		if u.Reps != nil && *u.Reps <= 0 {
			err = multierr.Append(err, fmt.Errorf("%w: update %d (set %s): reps must be greater than 0", ErrInvalidArgument, i, u.ID))
		}
		if u.Weight != nil && *u.Weight < 0 {
			err = multierr.Append(err, fmt.Errorf("%w: update %d (set %s): weight must be a non-negative number", ErrInvalidArgument, i, u.ID))
		}
	}
	return err
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Clone returns a deep copy so callers can mutate it freely.
func (w *Workout) Clone() *Workout {
	if w == nil {
		return nil
	}
	cp := *w
	cp.Exercises = make([]Exercise, len(w.Exercises))
	for i, e := range w.Exercises {
		cp.Exercises[i] = e.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the exercise.
func (e Exercise) Clone() Exercise {
	cp := e
	cp.Sets = make([]Set, len(e.Sets))
	copy(cp.Sets, e.Sets)
	return cp
}

// IsEmpty reports whether the workout has nothing left worth persisting.
func (w *Workout) IsEmpty() bool {
	return w == nil || len(w.Exercises) == 0
}

// ExerciseByName finds an exercise case-insensitively. The returned pointer
// aliases the workout's slice.
func (w *Workout) ExerciseByName(name string) *Exercise {
	_, i, ok := lo.FindIndexOf(w.Exercises, func(e Exercise) bool { return sameName(e.Name, name) })
	if !ok {
		return nil
	}
	return &w.Exercises[i]
}

// ExerciseByID finds an exercise by its identifier.
func (w *Workout) ExerciseByID(id string) *Exercise {
	_, i, ok := lo.FindIndexOf(w.Exercises, func(e Exercise) bool { return e.ID == id })
	if !ok {
		return nil
	}
	return &w.Exercises[i]
}

// RemoveExerciseByName drops the matching exercise and reports whether one was found.
func (w *Workout) RemoveExerciseByName(name string) bool {
	return w.removeExercises(func(e Exercise) bool { return sameName(e.Name, name) })
}

// RemoveExerciseByID drops the matching exercise and reports whether one was found.
func (w *Workout) RemoveExerciseByID(id string) bool {
	return w.removeExercises(func(e Exercise) bool { return e.ID == id })
}

func (w *Workout) removeExercises(match func(Exercise) bool) bool {
	before := len(w.Exercises)
	w.Exercises = lo.Filter(w.Exercises, func(e Exercise, _ int) bool { return !match(e) })
	return len(w.Exercises) != before
}

// FindOrAddExercise returns the exercise with the given name, appending an
// empty one first when the workout has none.
func (w *Workout) FindOrAddExercise(name string) *Exercise {
	if e := w.ExerciseByName(name); e != nil {
		return e
	}
	w.Exercises = append(w.Exercises, Exercise{
		ID:   NewEntityID(),
		Name: strings.TrimSpace(name),
		Sets: []Set{},
	})
	return &w.Exercises[len(w.Exercises)-1]
}

// PruneEmptyExercises removes exercises without sets and returns how many went.
func (w *Workout) PruneEmptyExercises() int {
	before := len(w.Exercises)
	w.Exercises = lo.Filter(w.Exercises, func(e Exercise, _ int) bool { return len(e.Sets) > 0 })
	return before - len(w.Exercises)
}

// AddSet appends a validated set with a fresh id.
func (e *Exercise) AddSet(reps int, weight float64) (Set, error) {
	if err := ValidateSet(reps, weight); err != nil {
		return Set{}, err
	}
	set := Set{ID: NewEntityID(), Reps: reps, Weight: weight}
	e.Sets = append(e.Sets, set)
	return set, nil
}

// RemoveSets deletes the sets whose ids are listed and returns how many went.
func (e *Exercise) RemoveSets(ids []string) int {
	before := len(e.Sets)
	e.Sets = lo.Filter(e.Sets, func(s Set, _ int) bool { return !lo.Contains(ids, s.ID) })
	return before - len(e.Sets)
}

// ApplySetUpdates validates the whole batch and only then applies it.
// Updates for unknown set ids are skipped. Returns the number of sets touched.
func (e *Exercise) ApplySetUpdates(updates []SetUpdate) (int, error) {
	if err := ValidateSetUpdates(updates); err != nil {
		return 0, err
	}
	applied := 0
	for _, u := range updates {
		_, i, ok := lo.FindIndexOf(e.Sets, func(s Set) bool { return s.ID == u.ID })
		if !ok {
			continue
		}
		if u.Reps != nil {
			e.Sets[i].Reps = *u.Reps
		}
		if u.Weight != nil {
			e.Sets[i].Weight = *u.Weight
		}
		applied++
	}
	return applied, nil
}
