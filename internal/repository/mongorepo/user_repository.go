// Package mongorepo stores users and image records in MongoDB collections.
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
	"github.com/digkill/AstroImages/internal/repository"
)

const (
	usersCollection  = "users"
	imagesCollection = "images"
)

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"userId"`
	Name           string             `bson:"name"`
	Gender         string             `bson:"gender"`
	BirthDate      time.Time          `bson:"birthDate"`
	KnowsBirthTime bool               `bson:"knowsBirthTime"`
	BirthTime      string             `bson:"birthTime"`
	BirthPlace     string             `bson:"birthPlace"`
	InterestedIn   string             `bson:"interestedIn"`
	SunSign        string             `bson:"sunSign"`
	MoonSign       string             `bson:"moonSign"`
	RisingSign     string             `bson:"risingSign"`
	Credits        int                `bson:"credits"`
	IsActive       bool               `bson:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		Name:           d.Name,
		Gender:         models.Gender(d.Gender),
		BirthDate:      d.BirthDate,
		KnowsBirthTime: d.KnowsBirthTime,
		BirthTime:      d.BirthTime,
		BirthPlace:     d.BirthPlace,
		InterestedIn:   models.InterestedIn(d.InterestedIn),
		SunSign:        d.SunSign,
		MoonSign:       d.MoonSign,
		RisingSign:     d.RisingSign,
		Credits:        d.Credits,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type UserRepository struct {
	db    *mongo.Database
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, users: db.Collection(usersCollection)}
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (r *UserRepository) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		UserID:         user.UserID,
		Name:           user.Name,
		Gender:         string(user.Gender),
		BirthDate:      user.BirthDate,
		KnowsBirthTime: user.KnowsBirthTime,
		BirthTime:      user.BirthTime,
		BirthPlace:     user.BirthPlace,
		InterestedIn:   string(user.InterestedIn),
		SunSign:        user.SunSign,
		MoonSign:       user.MoonSign,
		RisingSign:     user.RisingSign,
		Credits:        user.Credits,
		IsActive:       user.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toModel(), nil
}

// Replace overwrites the profile fields of an existing user. Credits, the
// active flag and the creation time are left untouched.
func (r *UserRepository) Replace(ctx context.Context, user *models.User) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"name":           user.Name,
		"gender":         string(user.Gender),
		"birthDate":      user.BirthDate,
		"knowsBirthTime": user.KnowsBirthTime,
		"birthTime":      user.BirthTime,
		"birthPlace":     user.BirthPlace,
		"interestedIn":   string(user.InterestedIn),
		"sunSign":        user.SunSign,
		"moonSign":       user.MoonSign,
		"risingSign":     user.RisingSign,
		"updatedAt":      time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"userId": user.UserID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("replace user: %s vanished", user.UserID)
		}
		return nil, fmt.Errorf("replace user: %w", err)
	}
	return doc.toModel(), nil
}

// DecrementCredits lowers the balance by amount without going below zero.
func (r *UserRepository) DecrementCredits(ctx context.Context, userID string, amount int) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "credits", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$credits", amount}}},
			}}}},
			{Key: "updatedAt", Value: time.Now().UTC().Truncate(time.Millisecond)},
		}}},
	}
	if _, err := r.users.UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return fmt.Errorf("decrement credits: %w", err)
	}
	return nil
}
