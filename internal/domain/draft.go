package domain

import (
	"fmt"

	"go.uber.org/multierr"
)

// ImportedWorkoutName names workouts created from a photo import when the
// draft carries no name of its own.
const ImportedWorkoutName = "AI Vision Workout"

// WorkoutDraft is a raw workout payload coming from outside the store, such
// as the vision service or a seed file. It has no ids yet.
type WorkoutDraft struct {
	Date      string          `json:"date"`
	Name      string          `json:"name"`
	Exercises []ExerciseDraft `json:"exercises"`
}

type ExerciseDraft struct {
	Name string     `json:"name"`
	Sets []SetDraft `json:"sets"`
}

type SetDraft struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// Validate checks the whole draft. Every problem is reported, not just the first.
func (d WorkoutDraft) Validate() error {
	if err := ValidateDate(d.Date); err != nil {
		return err
	}
	if len(d.Exercises) == 0 {
		return fmt.Errorf("%w: workout has no exercises", ErrInvalidArgument)
	}
	var err error
	for i, ex := range d.Exercises {
		if _, nameErr := NormalizeExerciseName(ex.Name); nameErr != nil {
			err = multierr.Append(err, fmt.Errorf("exercise %d: %w", i, nameErr))
		}
		if len(ex.Sets) == 0 {
			err = multierr.Append(err, fmt.Errorf("%w: exercise %d (%s) has no sets", ErrInvalidArgument, i, ex.Name))
		}
		for j, s := range ex.Sets {
			if setErr := ValidateSet(s.Reps, s.Weight); setErr != nil {
				err = multierr.Append(err, fmt.Errorf("exercise %d (%s) set %d: %w", i, ex.Name, j, setErr))
			}
		}
	}
	return err
}

// Merge appends the draft's sets to w, reusing exercises with the same name.
// The draft must have been validated. Returns the number of sets added.
func (w *Workout) Merge(d WorkoutDraft) int {
	added := 0
	for _, ex := range d.Exercises {
		target := w.FindOrAddExercise(ex.Name)
		for _, s := range ex.Sets {
			target.Sets = append(target.Sets, Set{ID: NewEntityID(), Reps: s.Reps, Weight: s.Weight})
			added++
		}
	}
	return added
}
