package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"peakpt/workout-app/internal/service"
)

// multipartSlack is the room left for boundaries and part headers on top of the image itself.
const multipartSlack = 64 << 10

// PhotoHandler turns photos of hand-written workouts into stored workouts.
type PhotoHandler struct {
	photoService   service.PhotoService
	maxUploadBytes int64
}

// NewPhotoHandler creates a new PhotoHandler. Larger uploads are rejected.
func NewPhotoHandler(photoService service.PhotoService, maxUploadBytes int64) *PhotoHandler {
	return &PhotoHandler{photoService: photoService, maxUploadBytes: maxUploadBytes}
}

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ImportPhotoRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type PhotoImportResponse struct {
	Workout   WorkoutResponse `json:"workout"`
	ObjectKey string          `json:"objectKey"`
	PhotoURL  string          `json:"photoUrl,omitempty"`
}

func mapPhotoImportToResponse(result *service.PhotoImport) PhotoImportResponse {
	return PhotoImportResponse{
		Workout:   MapWorkoutToResponse(result.Workout),
		ObjectKey: result.ObjectKey,
		PhotoURL:  result.PhotoURL,
	}
}

// UploadPhoto accepts a multipart form with the photo in the "image" field.
// @Router /workouts/{date}/photos [post]
func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	tooLarge := fmt.Sprintf("Image exceeds %d bytes", h.maxUploadBytes)
	bodyLimit := h.maxUploadBytes + multipartSlack
	if c.Request.ContentLength > bodyLimit {
		abortWithError(c, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		abortWithError(c, http.StatusBadRequest, "Multipart field 'image' is required")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unable to read uploaded image")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unable to read uploaded image")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	result, err := h.photoService.UploadAndImport(c.Request.Context(), date, data, contentType)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapPhotoImportToResponse(result))
}

// RequestUploadURL hands out a presigned URL for uploading a photo directly to storage.
// @Router /workouts/{date}/photos/upload-url [post]
func (h *PhotoHandler) RequestUploadURL(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.photoService.RequestUploadURL(c.Request.Context(), date, req.ContentType)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ImportPhoto imports a photo previously uploaded through a presigned URL.
// @Router /workouts/{date}/photos/import [post]
func (h *PhotoHandler) ImportPhoto(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	var req ImportPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.photoService.ImportFromObject(c.Request.Context(), date, req.ObjectKey)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapPhotoImportToResponse(result))
}
