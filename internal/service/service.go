// Package service holds the image workflow and the user profile operations.
package service

import (
	"context"

	"github.com/digkill/AstroImages/internal/imagegen"
	"github.com/digkill/AstroImages/internal/models"
	"github.com/digkill/AstroImages/internal/storage"
)

// UserStore reports absent users as (nil, nil).
type UserStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Replace(ctx context.Context, user *models.User) (*models.User, error)
	DecrementCredits(ctx context.Context, userID string, amount int) error
}

// ImageStore reports absent images as (nil, nil).
type ImageStore interface {
	Create(ctx context.Context, image *models.Image) (*models.Image, error)
	FindByID(ctx context.Context, id string) (*models.Image, error)
	ListByUser(ctx context.Context, userID string) ([]models.Image, error)
}

type BlobStore interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, name, byteRange string) (*storage.Object, error)
	NameFromURL(url string) (string, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, opts imagegen.GenerateOptions) (*imagegen.Image, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}
