package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/digkill/AstroImages/internal/apperr"
	"github.com/digkill/AstroImages/internal/models"
	"github.com/digkill/AstroImages/internal/repository"
)

const birthDateLayout = "2006-01-02"

type UpsertUserInput struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	BirthDate      string `json:"birthDate"`
	KnowsBirthTime bool   `json:"knowsBirthTime"`
	BirthTime      string `json:"birthTime"`
	BirthPlace     string `json:"birthPlace"`
	InterestedIn   string `json:"interestedIn"`
	SunSign        string `json:"sunSign"`
	MoonSign       string `json:"moonSign"`
	RisingSign     string `json:"risingSign"`
}

type UserProfile struct {
	ID             string              `json:"id"`
	UserID         string              `json:"userId"`
	Name           string              `json:"name"`
	Gender         models.Gender       `json:"gender"`
	BirthDate      string              `json:"birthDate"`
	KnowsBirthTime bool                `json:"knowsBirthTime"`
	BirthTime      string              `json:"birthTime,omitempty"`
	BirthPlace     string              `json:"birthPlace"`
	InterestedIn   models.InterestedIn `json:"interestedIn"`
	SunSign        string              `json:"sunSign"`
	MoonSign       string              `json:"moonSign"`
	RisingSign     string              `json:"risingSign"`
	Credits        int                 `json:"credits"`
	IsActive       bool                `json:"isActive"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func NewUserProfile(u *models.User) UserProfile {
	return UserProfile{
		ID:             u.ID,
		UserID:         u.UserID,
		Name:           u.Name,
		Gender:         u.Gender,
		BirthDate:      u.BirthDate.Format(birthDateLayout),
		KnowsBirthTime: u.KnowsBirthTime,
		BirthTime:      u.BirthTime,
		BirthPlace:     u.BirthPlace,
		InterestedIn:   u.InterestedIn,
		SunSign:        u.SunSign,
		MoonSign:       u.MoonSign,
		RisingSign:     u.RisingSign,
		Credits:        u.Credits,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type UpsertResult struct {
	User    *models.User
	Created bool
}

type UserService struct {
	users          UserStore
	initialCredits int
	log            *slog.Logger
}

func NewUserService(users UserStore, initialCredits int, log *slog.Logger) *UserService {
	return &UserService{users: users, initialCredits: initialCredits, log: log}
}

// Upsert creates the user or replaces every profile field of an existing one.
// Credits and the creation time of an existing user are kept.
func (s *UserService) Upsert(ctx context.Context, in UpsertUserInput) (*UpsertResult, error) {
	user, err := parseProfile(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByUserID(ctx, user.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "Failed to load user", err)
	}

	if existing != nil {
		updated, err := s.users.Replace(ctx, user)
		if err != nil {
			return nil, apperr.Wrap(apperr.InternalError, "Failed to update user", err)
		}
		s.log.Info("user updated", "user_id", user.UserID)
		return &UpsertResult{User: updated}, nil
	}

	user.Credits = s.initialCredits
	user.IsActive = true
	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.UserAlreadyExists, fmt.Sprintf("User with id %s already exists", user.UserID))
		}
		return nil, apperr.Wrap(apperr.InternalError, "Failed to create user", err)
	}
	s.log.Info("user created", "user_id", user.UserID, "credits", created.Credits)
	return &UpsertResult{User: created, Created: true}, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "Failed to load user", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.UserNotFound, fmt.Sprintf("User with id %s not found", userID))
	}
	return user, nil
}

// parseProfile reports every invalid field at once.
func parseProfile(in UpsertUserInput) (*models.User, error) {
	var problems []string
	required := func(field, value string) string {
		value = strings.TrimSpace(value)
		if value == "" {
			problems = append(problems, field+" is required")
		}
		return value
	}

	user := &models.User{
		UserID:         required("userId", in.UserID),
		Name:           required("name", in.Name),
		BirthPlace:     required("birthPlace", in.BirthPlace),
		KnowsBirthTime: in.KnowsBirthTime,
		SunSign:        strings.TrimSpace(in.SunSign),
		MoonSign:       strings.TrimSpace(in.MoonSign),
		RisingSign:     strings.TrimSpace(in.RisingSign),
		Gender:         models.Gender(strings.ToLower(strings.TrimSpace(in.Gender))),
		InterestedIn:   models.InterestedIn(strings.ToLower(strings.TrimSpace(in.InterestedIn))),
	}

	if !user.Gender.Valid() {
		problems = append(problems, "gender must be one of male, female")
	}
	if !user.InterestedIn.Valid() {
		problems = append(problems, "interestedIn must be one of boys, girls, non-binary")
	}

	if raw := required("birthDate", in.BirthDate); raw != "" {
		birthDate, err := parseBirthDate(raw)
		if err != nil {
			problems = append(problems, "birthDate must be YYYY-MM-DD or RFC3339")
		}
		user.BirthDate = birthDate
	}

	user.BirthTime = strings.TrimSpace(in.BirthTime)
	switch {
	case in.KnowsBirthTime && user.BirthTime == "":
		problems = append(problems, "birthTime is required when knowsBirthTime is true")
	case user.BirthTime != "":
		if _, err := time.Parse("15:04", user.BirthTime); err != nil {
			problems = append(problems, "birthTime must be HH:MM")
		}
	}

	if len(problems) > 0 {
		return nil, apperr.New(apperr.ValidationFailed, "Validation failed: "+strings.Join(problems, "; "))
	}
	return user, nil
}

func parseBirthDate(raw string) (time.Time, error) {
	if t, err := time.Parse(birthDateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
