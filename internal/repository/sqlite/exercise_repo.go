package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

type exerciseLibraryRepository struct {
	db *sql.DB
}

// NewExerciseLibraryRepository returns an ExerciseLibraryRepository over an opened database.
func NewExerciseLibraryRepository(db *sql.DB) repository.ExerciseLibraryRepository {
	return &exerciseLibraryRepository{db: db}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *exerciseLibraryRepository) List(ctx context.Context) ([]domain.LibraryExercise, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM exercise_library ORDER BY name_key`)
	if err != nil {
		return nil, fmt.Errorf("select exercise library: %w", err)
	}
	defer func() { _ = rows.Close() }()

	list := []domain.LibraryExercise{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var e domain.LibraryExercise
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode exercise: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *exerciseLibraryRepository) GetByID(ctx context.Context, id string) (*domain.LibraryExercise, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM exercise_library WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	var e domain.LibraryExercise
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode exercise: %w", err)
	}
	return &e, nil
}

func (r *exerciseLibraryRepository) Create(ctx context.Context, exercise *domain.LibraryExercise) error {
	payload, err := json.Marshal(exercise)
	if err != nil {
		return fmt.Errorf("encode exercise: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO exercise_library(id, name_key, payload) VALUES(?, ?, ?)`,
		exercise.ID, nameKey(exercise.Name), payload)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *exerciseLibraryRepository) Update(ctx context.Context, exercise *domain.LibraryExercise) error {
	payload, err := json.Marshal(exercise)
	if err != nil {
		return fmt.Errorf("encode exercise: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE exercise_library SET name_key = ?, payload = ? WHERE id = ?`,
		nameKey(exercise.Name), payload, exercise.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return requireAffected(res)
}

func (r *exerciseLibraryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exercise_library WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
