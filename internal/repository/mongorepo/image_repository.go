package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digkill/AstroImages/internal/models"
)

type imageDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	ImageURL  string             `bson:"imageUrl"`
	ImageName string             `bson:"imageName"`
	ImageType string             `bson:"imageType"`
	Prompt    string             `bson:"prompt,omitempty"`
	Status    string             `bson:"status"`
	AIModel   string             `bson:"aiModel,omitempty"`
	IsActive  bool               `bson:"isActive"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d imageDocument) toModel() models.Image {
	return models.Image{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ImageURL:  d.ImageURL,
		ImageName: d.ImageName,
		ImageType: models.ImageType(d.ImageType),
		Prompt:    d.Prompt,
		Status:    models.ImageStatus(d.Status),
		AIModel:   d.AIModel,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type ImageRepository struct {
	images *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{images: db.Collection(imagesCollection)}
}

func (r *ImageRepository) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := imageDocument{
		ID:        primitive.NewObjectID(),
		UserID:    image.UserID,
		ImageURL:  image.ImageURL,
		ImageName: image.ImageName,
		ImageType: string(image.ImageType),
		Prompt:    image.Prompt,
		Status:    string(image.Status),
		AIModel:   image.AIModel,
		IsActive:  image.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.images.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	created := doc.toModel()
	return &created, nil
}

// FindByID treats ids that are not valid ObjectIDs as absent.
func (r *ImageRepository) FindByID(ctx context.Context, id string) (*models.Image, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc imageDocument
	if err := r.images.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find image: %w", err)
	}
	img := doc.toModel()
	return &img, nil
}

func (r *ImageRepository) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.images.Find(ctx, bson.M{"userId": userID, "isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}

	images := make([]models.Image, 0, len(docs))
	for _, d := range docs {
		images = append(images, d.toModel())
	}
	return images, nil
}
