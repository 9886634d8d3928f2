package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

const exerciseLibraryCollectionName = "exercise_library"

// mongoExerciseLibraryRepository implements repository.ExerciseLibraryRepository.
// Name uniqueness relies on the case-insensitive unique index created by
// EnsureExerciseLibraryIndexes.
type mongoExerciseLibraryRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseLibraryRepository creates a new exercise library repository backed by MongoDB.
func NewMongoExerciseLibraryRepository(db *mongo.Database) repository.ExerciseLibraryRepository {
	return &mongoExerciseLibraryRepository{
		collection: db.Collection(exerciseLibraryCollectionName),
	}
}

// List retrieves every entry sorted by name.
func (r *mongoExerciseLibraryRepository) List(ctx context.Context) ([]domain.LibraryExercise, error) {
	exercises := []domain.LibraryExercise{}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetCollation(caseInsensitive)

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// GetByID retrieves an entry by its ID.
func (r *mongoExerciseLibraryRepository) GetByID(ctx context.Context, id string) (*domain.LibraryExercise, error) {
	var exercise domain.LibraryExercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// Create inserts a new entry.
func (r *mongoExerciseLibraryRepository) Create(ctx context.Context, exercise *domain.LibraryExercise) error {
	_, err := r.collection.InsertOne(ctx, exercise)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// Update replaces an existing entry.
func (r *mongoExerciseLibraryRepository) Update(ctx context.Context, exercise *domain.LibraryExercise) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": exercise.ID}, exercise)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (r *mongoExerciseLibraryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseLibraryIndexes creates necessary indexes for the exercise library collection.
func EnsureExerciseLibraryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One entry per name regardless of case
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetName("exercise_name_unique").
				SetUnique(true).
				SetCollation(caseInsensitive),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	logIndexError(collection, err)
}
