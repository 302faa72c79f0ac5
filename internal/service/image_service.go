package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/digkill/AstroImages/internal/apperr"
	"github.com/digkill/AstroImages/internal/imagegen"
	"github.com/digkill/AstroImages/internal/metrics"
	"github.com/digkill/AstroImages/internal/models"
	"github.com/digkill/AstroImages/internal/prompt"
	"github.com/digkill/AstroImages/internal/storage"
)

const creditsPerImage = 1

type CreateImageRequest struct {
	ImageType string `json:"imageType"`
	UserID    string `json:"userId"`
	Prompt    string `json:"prompt,omitempty"`
	AIModel   string `json:"aiModel,omitempty"`
}

type ImageSummary struct {
	ID        string             `json:"id"`
	ImageURL  string             `json:"imageUrl"`
	ImageName string             `json:"imageName"`
	ImageType models.ImageType   `json:"imageType"`
	Status    models.ImageStatus `json:"status"`
	Prompt    string             `json:"prompt,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

func summarize(img models.Image) ImageSummary {
	return ImageSummary{
		ID:        img.ID,
		ImageURL:  img.ImageURL,
		ImageName: img.ImageName,
		ImageType: img.ImageType,
		Status:    img.Status,
		Prompt:    img.Prompt,
		CreatedAt: img.CreatedAt,
	}
}

type ImageService struct {
	users     UserStore
	images    ImageStore
	blobs     BlobStore
	generator ImageGenerator
	log       *slog.Logger
	now       func() time.Time
}

func NewImageService(users UserStore, images ImageStore, blobs BlobStore, generator ImageGenerator, log *slog.Logger) *ImageService {
	return &ImageService{
		users:     users,
		images:    images,
		blobs:     blobs,
		generator: generator,
		log:       log,
		now:       time.Now,
	}
}

// Create runs the generation workflow: resolve the user, pick a prompt,
// generate, download, upload, record the image and charge one credit.
// Failures are terminal. Nothing is rolled back, so a failure after the upload
// leaves an orphaned blob and a failed charge leaves a free image.
func (s *ImageService) Create(ctx context.Context, req CreateImageRequest) (*ImageSummary, error) {
	imageType, ok := models.ParseImageType(req.ImageType)
	if !ok {
		return nil, apperr.New(apperr.ValidationFailed, "imageType must be one of partner, celebrity, pet, tattoo, city, art")
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, apperr.New(apperr.ValidationFailed, "userId is required")
	}

	user, err := s.users.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "Failed to load user", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.UserNotFound, fmt.Sprintf("User with id %s not found", userID))
	}

	text := req.Prompt
	if strings.TrimSpace(text) == "" {
		text = prompt.Build(imageType, prompt.ProfileFromUser(user))
	}

	log := s.log.With("user_id", userID, "image_type", imageType)

	generated, err := s.generator.Generate(ctx, imagegen.GenerateOptions{Prompt: text, Model: req.AIModel})
	if err != nil {
		metrics.RecordGeneration(string(imageType), metrics.OutcomeGenerationFailed)
		log.Error("image generation failed", "err", err)
		return nil, apperr.Wrap(apperr.ImageGenerationFailed, "Failed to generate image", err)
	}

	data, contentType, err := s.generator.Download(ctx, generated.URL)
	if err != nil {
		metrics.RecordGeneration(string(imageType), metrics.OutcomeGenerationFailed)
		log.Error("generated image download failed", "err", err, "url", generated.URL)
		return nil, apperr.Wrap(apperr.ImageGenerationFailed, "Failed to download generated image", err)
	}
	if !isImageContent(contentType) {
		metrics.RecordGeneration(string(imageType), metrics.OutcomeGenerationFailed)
		return nil, apperr.New(apperr.InvalidImageFormat, fmt.Sprintf("Generated content has type %q, expected an image", contentType))
	}

	name := storage.ObjectName(user.Name, s.now())
	imageURL, err := s.blobs.Upload(ctx, name, data, uploadContentType(contentType))
	if err != nil {
		metrics.RecordGeneration(string(imageType), metrics.OutcomeUploadFailed)
		log.Error("image upload failed", "err", err, "name", name)
		return nil, apperr.Wrap(apperr.ImageUploadFailed, "Failed to upload image", err)
	}

	record, err := s.images.Create(ctx, &models.Image{
		UserID:    userID,
		ImageURL:  imageURL,
		ImageName: name,
		ImageType: imageType,
		Prompt:    text,
		Status:    models.ImageStatusCompleted,
		AIModel:   generated.Model,
		IsActive:  true,
	})
	if err != nil {
		metrics.RecordGeneration(string(imageType), metrics.OutcomePersistFailed)
		log.Error("image record insert failed, blob orphaned", "err", err, "url", imageURL)
		return nil, apperr.Wrap(apperr.InternalError, "Failed to save image", err)
	}

	if err := s.users.DecrementCredits(ctx, userID, creditsPerImage); err != nil {
		metrics.RecordGeneration(string(imageType), metrics.OutcomePersistFailed)
		log.Error("credit deduction failed, image kept", "err", err, "image_id", record.ID)
		return nil, apperr.Wrap(apperr.InternalError, "Failed to deduct credit", err)
	}
	metrics.RecordCreditsDeducted(creditsPerImage)
	metrics.RecordGeneration(string(imageType), metrics.OutcomeSuccess)

	log.Info("image generated", "image_id", record.ID, "name", name, "model", generated.Model)
	summary := summarize(*record)
	return &summary, nil
}

// ListByUser returns the user's active images, newest first. A user without
// images is reported as IMAGE_NOT_FOUND rather than an empty list.
func (s *ImageService) ListByUser(ctx context.Context, userID string) ([]ImageSummary, error) {
	images, err := s.images.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "Failed to list images", err)
	}
	if len(images) == 0 {
		return nil, apperr.New(apperr.ImageNotFound, fmt.Sprintf("No images found for user %s", userID))
	}

	out := make([]ImageSummary, 0, len(images))
	for _, img := range images {
		out = append(out, summarize(img))
	}
	return out, nil
}

// Stream opens the stored bytes of an image. byteRange is an HTTP Range header
// value and may be empty. Callers must close the returned body.
func (s *ImageService) Stream(ctx context.Context, imageID, byteRange string) (*storage.Object, error) {
	img, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ImageRetrievalFailed, "Failed to load image", err)
	}
	if img == nil {
		return nil, apperr.New(apperr.ImageNotFound, fmt.Sprintf("Image with id %s not found", imageID))
	}

	name, err := s.blobs.NameFromURL(img.ImageURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.ImageRetrievalFailed, "Failed to resolve image location", err)
	}

	obj, err := s.blobs.Open(ctx, name, byteRange)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.ImageNotFound, fmt.Sprintf("Image with id %s not found", imageID))
		}
		return nil, apperr.Wrap(apperr.ImageRetrievalFailed, "Failed to retrieve image", err)
	}
	return obj, nil
}

// isImageContent accepts image types plus empty and octet-stream types.
func isImageContent(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || ct == "application/octet-stream" || strings.HasPrefix(ct, "image/")
}

func uploadContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/png"
}
