package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/repository"
)

type workoutRepository struct {
	db     *sql.DB
	locker *repository.DateLocker
	now    func() time.Time
}

// NewWorkoutRepository returns a WorkoutRepository over an opened database.
func NewWorkoutRepository(db *sql.DB) repository.WorkoutRepository {
	return &workoutRepository{
		db:     db,
		locker: repository.NewDateLocker(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *workoutRepository) List(ctx context.Context) ([]domain.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM workouts ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("select workouts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	workouts := []domain.Workout{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var w domain.Workout
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("decode workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func (r *workoutRepository) GetByDate(ctx context.Context, date string) (*domain.Workout, error) {
	return getWorkout(ctx, r.db.QueryRowContext(ctx, `SELECT payload FROM workouts WHERE date = ?`, date))
}

func getWorkout(ctx context.Context, row *sql.Row) (*domain.Workout, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	var w domain.Workout
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("decode workout: %w", err)
	}
	return &w, nil
}

func (r *workoutRepository) Mutate(ctx context.Context, date string, fn repository.MutateFunc) (w *domain.Workout, retErr error) {
	unlock := r.locker.Lock(date)
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := getWorkout(ctx, tx.QueryRowContext(ctx, `SELECT payload FROM workouts WHERE date = ?`, date))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	var res sql.Result
	op := repository.PlanWrite(date, current, next, r.now())
	switch op {
	case repository.WriteNone:
		return nil, tx.Commit()
	case repository.WriteDelete:
		res, err = tx.ExecContext(ctx, `DELETE FROM workouts WHERE date = ? AND version = ?`, date, current.Version)
	case repository.WriteInsert, repository.WriteReplace:
		payload, mErr := json.Marshal(next)
		if mErr != nil {
			return nil, fmt.Errorf("encode workout: %w", mErr)
		}
		if op == repository.WriteInsert {
			res, err = tx.ExecContext(ctx, `INSERT INTO workouts(date, version, payload) VALUES(?, ?, ?)`, date, next.Version, payload)
		} else {
			res, err = tx.ExecContext(ctx, `UPDATE workouts SET version = ?, payload = ? WHERE date = ? AND version = ?`,
				next.Version, payload, date, current.Version)
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		// another process changed the row between our read and write
		return nil, repository.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if op == repository.WriteDelete {
		return nil, nil
	}
	return next, nil
}
