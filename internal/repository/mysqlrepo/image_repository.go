package mysqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/digkill/AstroImages/internal/models"
)

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

const imageColumns = `id, user_id, image_url, image_name, image_type, COALESCE(prompt, ''), status, COALESCE(ai_model, ''), is_active, created_at, updated_at`

func (r *ImageRepository) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	const query = `
INSERT INTO images (id, user_id, image_url, image_name, image_type, prompt, status, ai_model, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?, ?, ?)`
	created := *image
	created.ID = uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query, created.ID, created.UserID, created.ImageURL, created.ImageName, created.ImageType,
		created.Prompt, created.Status, created.AIModel, created.IsActive, now, now); err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	return &created, nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id string) (*models.Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	img, err := scanImage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}
	return img, nil
}

func (r *ImageRepository) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image list: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(s scanner) (*models.Image, error) {
	var img models.Image
	if err := s.Scan(&img.ID, &img.UserID, &img.ImageURL, &img.ImageName, &img.ImageType, &img.Prompt, &img.Status, &img.AIModel,
		&img.IsActive, &img.CreatedAt, &img.UpdatedAt); err != nil {
		return nil, err
	}
	return &img, nil
}
