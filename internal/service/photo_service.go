package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/storage"
	"peakpt/workout-app/internal/vision"
)

// ErrVisionFailed means the photo could not be turned into a workout.
// It wraps ErrUpstreamFailure.
var ErrVisionFailed = fmt.Errorf("%w: could not read a workout from the photo", ErrUpstreamFailure)

// photo content types accepted by the vision model, with their key extension
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the client reports back on import
}

// PhotoImport is the outcome of importing a workout photo.
type PhotoImport struct {
	Workout   *domain.Workout
	ObjectKey string
	PhotoURL  string
}

// PhotoService imports workouts from photos of hand-written logs.
type PhotoService interface {
	// RequestUploadURL returns a presigned PUT URL for a photo of the given day.
	RequestUploadURL(ctx context.Context, date, contentType string) (*UploadURLResponse, error)
	// ImportFromObject reads an uploaded photo and merges the workout on it.
	ImportFromObject(ctx context.Context, date, objectKey string) (*PhotoImport, error)
	// UploadAndImport stores the photo, then imports it.
	UploadAndImport(ctx context.Context, date string, image []byte, contentType string) (*PhotoImport, error)
}

type photoService struct {
	workouts    WorkoutService
	fileStorage storage.FileStorage
	extractor   vision.Extractor
	timeout     time.Duration
	maxBytes    int64
	metrics     *metrics.Manager
}

// NewPhotoService creates a PhotoService. Each extraction is bounded by timeout
// and photos larger than maxBytes are refused with storage.ErrObjectTooLarge.
func NewPhotoService(
	workouts WorkoutService,
	fileStorage storage.FileStorage,
	extractor vision.Extractor,
	timeout time.Duration,
	maxBytes int64,
	metricsManager *metrics.Manager,
) PhotoService {
	return &photoService{
		workouts:    workouts,
		fileStorage: fileStorage,
		extractor:   extractor,
		timeout:     timeout,
		maxBytes:    maxBytes,
		metrics:     metricsManager,
	}
}

func normalizeImageType(contentType string) (string, string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported image content type %q", domain.ErrInvalidArgument, contentType)
	}
	return contentType, ext, nil
}

func photoPrefix(date string) string {
	return path.Join("photos", date) + "/"
}

func (s *photoService) RequestUploadURL(ctx context.Context, date, contentType string) (*UploadURLResponse, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	contentType, ext, err := normalizeImageType(contentType)
	if err != nil {
		return nil, err
	}

	objectKey := photoPrefix(date) + uuid.NewString() + "." + ext
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: generate upload url: %w", ErrUpstreamFailure, err)
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

func (s *photoService) ImportFromObject(ctx context.Context, date, objectKey string) (*PhotoImport, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	objectKey = strings.TrimSpace(objectKey)
	if !strings.HasPrefix(objectKey, photoPrefix(date)) || path.Clean(objectKey) != objectKey {
		return nil, fmt.Errorf("%w: object key must be a photo of %s", domain.ErrInvalidArgument, date)
	}

	obj, err := s.fileStorage.GetObject(ctx, objectKey, s.maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrObjectTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read photo: %w", ErrUpstreamFailure, err)
	}
	return s.importImage(ctx, date, objectKey, obj.Data, obj.ContentType)
}

func (s *photoService) UploadAndImport(ctx context.Context, date string, image []byte, contentType string) (*PhotoImport, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrInvalidArgument)
	}
	if s.maxBytes > 0 && int64(len(image)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit %d", storage.ErrObjectTooLarge, len(image), s.maxBytes)
	}
	contentType, ext, err := normalizeImageType(contentType)
	if err != nil {
		return nil, err
	}

	objectKey := photoPrefix(date) + uuid.NewString() + "." + ext
	if err := s.fileStorage.PutObject(ctx, objectKey, image, contentType); err != nil {
		return nil, fmt.Errorf("%w: store photo: %w", ErrUpstreamFailure, err)
	}
	result, err := s.importImage(ctx, date, objectKey, image, contentType)
	if err != nil {
		// nothing references the photo any more
		if delErr := s.fileStorage.DeleteObject(ctx, objectKey); delErr != nil {
			log.WithField("objectKey", objectKey).WithError(delErr).Warn("failed to remove photo of a failed import")
		}
		return nil, err
	}
	return result, nil
}

// importImage extracts a draft, validates all of it, then commits it in one write.
func (s *photoService) importImage(ctx context.Context, date, objectKey string, image []byte, contentType string) (*PhotoImport, error) {
	logger := log.WithFields(log.Fields{"date": date, "objectKey": objectKey})

	extractCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	draft, err := s.extractor.ExtractWorkout(extractCtx, date, image, contentType)
	elapsed := time.Since(start).Seconds()
	if err == nil {
		err = draft.Validate()
	}
	if err != nil {
		s.metrics.VisionImport("failure", elapsed)
		logger.WithError(err).Warn("photo import failed")
		return nil, fmt.Errorf("%w: %v", ErrVisionFailed, err)
	}

	workout, err := s.workouts.ImportWorkout(ctx, *draft)
	if err != nil {
		s.metrics.VisionImport("failure", elapsed)
		return nil, err
	}
	s.metrics.VisionImport("success", elapsed)

	photoURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		// the workout is committed; the link is a convenience
		logger.WithError(err).Warn("failed to presign photo download url")
	}
	logger.WithField("exercises", len(draft.Exercises)).Info("workout imported from photo")
	return &PhotoImport{Workout: workout, ObjectKey: objectKey, PhotoURL: photoURL}, nil
}
