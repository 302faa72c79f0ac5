package models

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

type InterestedIn string

const (
	InterestedInBoys      InterestedIn = "boys"
	InterestedInGirls     InterestedIn = "girls"
	InterestedInNonBinary InterestedIn = "non-binary"
)

func (i InterestedIn) Valid() bool {
	switch i {
	case InterestedInBoys, InterestedInGirls, InterestedInNonBinary:
		return true
	}
	return false
}

type ImageType string

const (
	ImageTypePartner   ImageType = "partner"
	ImageTypeCelebrity ImageType = "celebrity"
	ImageTypePet       ImageType = "pet"
	ImageTypeTattoo    ImageType = "tattoo"
	ImageTypeCity      ImageType = "city"
	ImageTypeArt       ImageType = "art"
)

// ImageTypes lists every category in the order clients present them.
var ImageTypes = []ImageType{
	ImageTypePartner,
	ImageTypeCelebrity,
	ImageTypePet,
	ImageTypeTattoo,
	ImageTypeCity,
	ImageTypeArt,
}

// ParseImageType accepts any casing; older clients send "Tattoo".
func ParseImageType(raw string) (ImageType, bool) {
	candidate := ImageType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range ImageTypes {
		if t == candidate {
			return t, true
		}
	}
	return "", false
}

type ImageStatus string

const (
	ImageStatusPending   ImageStatus = "pending"
	ImageStatusCompleted ImageStatus = "completed"
	ImageStatusFailed    ImageStatus = "failed"
)

type User struct {
	ID             string
	UserID         string
	Name           string
	Gender         Gender
	BirthDate      time.Time
	KnowsBirthTime bool
	BirthTime      string
	BirthPlace     string
	InterestedIn   InterestedIn
	SunSign        string
	MoonSign       string
	RisingSign     string
	Credits        int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Image struct {
	ID        string
	UserID    string
	ImageURL  string
	ImageName string
	ImageType ImageType
	Prompt    string
	Status    ImageStatus
	AIModel   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
