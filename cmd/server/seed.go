package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/service"
)

// seedWorkout is one entry of a seed file. Dates may be plain days or
// full RFC 3339 timestamps.
type seedWorkout struct {
	Date      string                 `json:"date"`
	Name      string                 `json:"name"`
	Exercises []domain.ExerciseDraft `json:"exercises"`
}

func seedCmd(configDir *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import workouts from a JSON file",
		Long: `Reads a JSON array of {date, name, exercises:[{name, sets:[{reps, weight}]}]}
and merges every entry into the configured store. Exercises that already exist
on a day get the new sets appended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := loadApp(ctx, *configDir)
			if err != nil {
				return err
			}
			defer cleanup()

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			imported, err := seedWorkouts(ctx, a.workouts, raw)
			log.WithFields(log.Fields{"file": file, "imported": imported}).Info("seeding finished")
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with the workouts to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// seedWorkouts imports every entry of raw. Bad entries are skipped and
// reported together; the rest are still imported.
func seedWorkouts(ctx context.Context, workouts service.WorkoutService, raw []byte) (int, error) {
	var entries []seedWorkout
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	var errs error
	imported := 0
	for i, entry := range entries {
		date, err := seedDate(entry.Date)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		draft := domain.WorkoutDraft{Date: date, Name: entry.Name, Exercises: entry.Exercises}
		if _, err := workouts.ImportWorkout(ctx, draft); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("entry %d (%s): %w", i, date, err))
			continue
		}
		imported++
	}
	return imported, errs
}

// seedDate reduces s to its YYYY-MM-DD day. Timestamps are read in UTC.
func seedDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := domain.ValidateDate(s); err == nil {
		return s, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return ts.UTC().Format(domain.DateLayout), nil
}
