package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/repository/memory"
	"peakpt/workout-app/internal/service"
	"peakpt/workout-app/internal/storage"
)

type fakeExtractor struct {
	draft *domain.WorkoutDraft
	err   error
	block bool

	gotImage       []byte
	gotContentType string
}

func (f *fakeExtractor) ExtractWorkout(ctx context.Context, date string, image []byte, contentType string) (*domain.WorkoutDraft, error) {
	f.gotImage = image
	f.gotContentType = contentType
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	d := *f.draft
	d.Date = date
	return &d, nil
}

func legDayDraft() *domain.WorkoutDraft {
	return &domain.WorkoutDraft{
		Name: domain.ImportedWorkoutName,
		Exercises: []domain.ExerciseDraft{
			{Name: "Squat", Sets: []domain.SetDraft{{Reps: 10, Weight: 80}, {Reps: 10, Weight: 80}, {Reps: 10, Weight: 80}}},
		},
	}
}

type photoFixture struct {
	svc       service.PhotoService
	workouts  service.WorkoutService
	files     *recordingStorage
	extractor *fakeExtractor
	metrics   *metrics.Manager
}

// recordingStorage remembers the keys written through it.
type recordingStorage struct {
	storage.FileStorage
	putKeys []string
}

func (r *recordingStorage) PutObject(ctx context.Context, objectKey string, data []byte, contentType string) error {
	r.putKeys = append(r.putKeys, objectKey)
	return r.FileStorage.PutObject(ctx, objectKey, data, contentType)
}

func newPhotoFixture(t *testing.T, extractor *fakeExtractor) photoFixture {
	t.Helper()
	m := metrics.NewTestManager()
	workouts := service.NewWorkoutService(memory.NewWorkoutRepository(), m)
	files := &recordingStorage{FileStorage: storage.NewMemoryStorage("http://files.test")}
	return photoFixture{
		svc:       service.NewPhotoService(workouts, files, extractor, 50*time.Millisecond, 64, m),
		workouts:  workouts,
		files:     files,
		extractor: extractor,
		metrics:   m,
	}
}

func TestRequestUploadURL(t *testing.T) {
	f := newPhotoFixture(t, &fakeExtractor{draft: legDayDraft()})
	ctx := context.Background()

	resp, err := f.svc.RequestUploadURL(ctx, "2024-09-05", "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "photos/2024-09-05/"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".png"))
	assert.Contains(t, resp.UploadURL, resp.ObjectKey)

	_, err = f.svc.RequestUploadURL(ctx, "2024-09-05", "video/mp4")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = f.svc.RequestUploadURL(ctx, "05-09-2024", "image/png")
	require.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestUploadAndImport(t *testing.T) {
	f := newPhotoFixture(t, &fakeExtractor{draft: legDayDraft()})
	ctx := context.Background()

	result, err := f.svc.UploadAndImport(ctx, "2024-09-05", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), f.extractor.gotImage)
	assert.Equal(t, "image/jpeg", f.extractor.gotContentType)
	assert.Equal(t, domain.ImportedWorkoutName, result.Workout.Name)
	require.Len(t, result.Workout.Exercises, 1)
	assert.Len(t, result.Workout.Exercises[0].Sets, 3)
	assert.Contains(t, result.PhotoURL, result.ObjectKey)

	obj, err := f.files.GetObject(ctx, result.ObjectKey, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterVisionImports.WithLabelValues("success")))
}

func TestImportFromObject(t *testing.T) {
	f := newPhotoFixture(t, &fakeExtractor{draft: legDayDraft()})
	ctx := context.Background()

	resp, err := f.svc.RequestUploadURL(ctx, "2024-09-05", "image/webp")
	require.NoError(t, err)

	_, err = f.svc.ImportFromObject(ctx, "2024-09-05", resp.ObjectKey)
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	require.NoError(t, f.files.PutObject(ctx, resp.ObjectKey, []byte("webp"), "image/webp"))
	result, err := f.svc.ImportFromObject(ctx, "2024-09-05", resp.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, "2024-09-05", result.Workout.Date)

	_, err = f.svc.ImportFromObject(ctx, "2024-09-06", resp.ObjectKey)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = f.svc.ImportFromObject(ctx, "2024-09-05", "photos/2024-09-05/../2024-09-06/x.jpg")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestImport_FailuresCommitNothing(t *testing.T) {
	invalid := legDayDraft()
	invalid.Exercises = append(invalid.Exercises, domain.ExerciseDraft{Name: "Curl", Sets: []domain.SetDraft{{Reps: -1}}})

	for name, extractor := range map[string]*fakeExtractor{
		"extractor error": {err: errors.New("model overloaded")},
		"invalid draft":   {draft: invalid},
		"timeout":         {block: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newPhotoFixture(t, extractor)
			ctx := context.Background()

			_, err := f.svc.UploadAndImport(ctx, "2024-09-05", []byte("img"), "image/jpeg")
			require.ErrorIs(t, err, service.ErrVisionFailed)
			require.ErrorIs(t, err, service.ErrUpstreamFailure)
			assert.NotErrorIs(t, err, domain.ErrInvalidArgument)

			workout, err := f.workouts.GetWorkoutByDate(ctx, "2024-09-05")
			require.NoError(t, err)
			assert.Empty(t, workout.Exercises)

			require.Len(t, f.files.putKeys, 1)
			_, err = f.files.GetObject(ctx, f.files.putKeys[0], 0)
			require.ErrorIs(t, err, storage.ErrObjectNotFound, "photo of a failed import is removed")
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterVisionImports.WithLabelValues("failure")))
		})
	}
}

func TestUploadAndImport_Validation(t *testing.T) {
	f := newPhotoFixture(t, &fakeExtractor{draft: legDayDraft()})
	ctx := context.Background()

	_, err := f.svc.UploadAndImport(ctx, "2024-09-05", nil, "image/jpeg")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = f.svc.UploadAndImport(ctx, "2024-09-05", []byte("x"), "application/pdf")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = f.svc.UploadAndImport(ctx, "2024-02-30", []byte("x"), "image/jpeg")
	require.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestImport_OversizedPhotos(t *testing.T) {
	f := newPhotoFixture(t, &fakeExtractor{draft: legDayDraft()})
	ctx := context.Background()
	big := []byte(strings.Repeat("x", 65))

	_, err := f.svc.UploadAndImport(ctx, "2024-09-05", big, "image/jpeg")
	require.ErrorIs(t, err, storage.ErrObjectTooLarge)
	assert.Empty(t, f.files.putKeys, "oversized upload is never stored")

	// a presigned upload is not bounded by the server, so the read is
	resp, err := f.svc.RequestUploadURL(ctx, "2024-09-05", "image/jpeg")
	require.NoError(t, err)
	require.NoError(t, f.files.PutObject(ctx, resp.ObjectKey, big, "image/jpeg"))
	_, err = f.svc.ImportFromObject(ctx, "2024-09-05", resp.ObjectKey)
	require.ErrorIs(t, err, storage.ErrObjectTooLarge)
	assert.Nil(t, f.extractor.gotImage)

	workout, err := f.workouts.GetWorkoutByDate(ctx, "2024-09-05")
	require.NoError(t, err)
	assert.Empty(t, workout.Exercises)
}
