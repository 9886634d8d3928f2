// internal/domain/exercise.go
package domain

import "time"

// LibraryExercise is an entry of the flat exercise catalog used for
// autocomplete. Workout exercise names are never validated against it.
type LibraryExercise struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	MuscleGroup string    `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g. "Chest", "Legs"
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
