package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"peakpt/workout-app/internal/config"
	"peakpt/workout-app/internal/logging"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/repository"
	"peakpt/workout-app/internal/repository/memory"
	"peakpt/workout-app/internal/repository/mongo"
	"peakpt/workout-app/internal/repository/sqlite"
	"peakpt/workout-app/internal/service"
	"peakpt/workout-app/internal/storage"
	"peakpt/workout-app/internal/vision"
)

// app holds everything both subcommands share. Build it once with newApp
// and release it with Close.
type app struct {
	cfg      config.Config
	registry *prometheus.Registry // nil when metrics are disabled
	metrics  *metrics.Manager

	workouts  service.WorkoutService
	exercises service.ExerciseService
	photos    service.PhotoService // nil when no vision model is configured

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Close())
		}
	}()

	// --- Metrics ---
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = metrics.NewManager("peakpt", "server", a.registry)
	}

	// --- Repositories ---
	workoutRepo, exerciseRepo, err := a.openRepositories(ctx)
	if err != nil {
		return nil, err
	}

	// --- Services ---
	a.workouts = service.NewWorkoutService(workoutRepo, a.metrics)
	a.exercises = service.NewExerciseService(exerciseRepo, cfg.LibraryCache.SizeBytes, cfg.LibraryCache.TTL, a.metrics)

	if cfg.Vision.APIKey == "" {
		log.Info("vision.api_key not set, photo import disabled")
		return a, nil
	}
	fileStorage, err := openFileStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.photos = service.NewPhotoService(a.workouts, fileStorage, vision.NewOpenAIExtractor(cfg.Vision), cfg.Vision.Timeout, cfg.Server.MaxUploadBytes, a.metrics)
	log.WithFields(log.Fields{"model": cfg.Vision.Model, "files": cfg.Files.Driver}).Info("photo import enabled")
	return a, nil
}

func (a *app) openRepositories(ctx context.Context) (repository.WorkoutRepository, repository.ExerciseLibraryRepository, error) {
	cfg := a.cfg
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		return memory.NewWorkoutRepository(), memory.NewExerciseLibraryRepository(), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		log.WithField("path", cfg.SQLite.Path).Info("SQLite database opened")
		return sqlite.NewWorkoutRepository(db), sqlite.NewExerciseLibraryRepository(db), nil

	case config.DriverMongo:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, func() error {
			log.Info("Disconnecting MongoDB...")
			return mongo.DisconnectDB(dbClient)
		})
		appDB := dbClient.Database(cfg.Database.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		mongo.EnsureIndexes(indexCtx, appDB)
		log.WithField("database", cfg.Database.Name).Info("Database connection established")
		return mongo.NewMongoWorkoutRepository(appDB), mongo.NewMongoExerciseLibraryRepository(appDB), nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func openFileStorage(ctx context.Context, cfg config.Config) (storage.FileStorage, error) {
	switch cfg.Files.Driver {
	case config.DriverS3:
		fileStorage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return fileStorage, nil
	case config.DriverMemory:
		return storage.NewMemoryStorage(""), nil
	}
	return nil, errors.New("unknown files driver " + cfg.Files.Driver)
}

// Close releases database handles in reverse order of opening.
func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}

func loadApp(ctx context.Context, configDir string) (*app, func(), error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logCloser := logging.Setup(cfg.Log)

	a, err := newApp(ctx, cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Error("failed to release resources")
		}
		_ = logCloser.Close()
	}
	return a, cleanup, nil
}
