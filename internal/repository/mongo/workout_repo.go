// internal/repository/mongo/workout_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

const (
	workoutCollectionName = "workouts"
	// maxMutateAttempts bounds the compare-and-swap retries of Mutate.
	maxMutateAttempts = 10
)

// mongoWorkoutRepository implements repository.WorkoutRepository.
// Writers in this process queue on a per-date lock; every document also
// carries a version used for optimistic concurrency, so several server
// processes can share one database.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
	locker     *repository.DateLocker
	now        func() time.Time
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
		locker:     repository.NewDateLocker(),
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// List retrieves all workouts, newest date first.
func (r *mongoWorkoutRepository) List(ctx context.Context) ([]domain.Workout, error) {
	workouts := []domain.Workout{}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// GetByDate retrieves the workout of a single day.
func (r *mongoWorkoutRepository) GetByDate(ctx context.Context, date string) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": date}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Mutate reads the document, applies fn and writes the result back only if
// nobody else wrote in between. Only writers of other processes can win such
// a race; lost races are retried from a fresh read.
func (r *mongoWorkoutRepository) Mutate(ctx context.Context, date string, fn repository.MutateFunc) (*domain.Workout, error) {
	unlock := r.locker.Lock(date)
	defer unlock()

	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		current, err := r.GetByDate(ctx, date)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		next, err := fn(current.Clone())
		if err != nil {
			return nil, err
		}

		won, err := r.write(ctx, date, current, next)
		if err != nil {
			return nil, err
		}
		if !won {
			continue
		}
		if next.IsEmpty() {
			return nil, nil
		}
		return next, nil
	}
	return nil, repository.ErrConflict
}

// write persists next and reports false when the stored version moved on.
func (r *mongoWorkoutRepository) write(ctx context.Context, date string, current, next *domain.Workout) (bool, error) {
	switch repository.PlanWrite(date, current, next, r.now()) {
	case repository.WriteInsert:
		if _, err := r.collection.InsertOne(ctx, next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return false, nil
			}
			return false, err
		}
	case repository.WriteReplace:
		filter := bson.M{"_id": date, "version": current.Version}
		result, err := r.collection.ReplaceOne(ctx, filter, next)
		if err != nil {
			return false, err
		}
		if result.MatchedCount == 0 {
			return false, nil
		}
	case repository.WriteDelete:
		filter := bson.M{"_id": date, "version": current.Version}
		result, err := r.collection.DeleteOne(ctx, filter)
		if err != nil {
			return false, err
		}
		if result.DeletedCount == 0 {
			return false, nil
		}
	}
	return true, nil
}

// EnsureWorkoutIndexes creates necessary indexes for the workouts collection.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Lookups of an exercise by name across days
			Keys:    bson.D{{Key: "exercises.name", Value: 1}},
			Options: options.Index().SetCollation(caseInsensitive),
		},
		{
			Keys: bson.D{{Key: "exercises.id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	logIndexError(collection, err)
}
