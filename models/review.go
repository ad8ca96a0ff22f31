package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Review document fields.
const (
	ReviewFieldRating     = "rating"
	ReviewFieldComment    = "comment"
	ReviewFieldUserID     = "userId"
	ReviewFieldBuildingID = "buildingId"
	ReviewFieldLinked     = "linked"

	// Link retry bookkeeping used by the reconciler.
	ReviewFieldLinkAttempts = "linkAttempts"
	ReviewFieldNextLinkAt   = "nextLinkAt"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating left by one user on one building. Linked is set once
// both the user and the building reference it. Until then NextLinkAt says
// when the reconciler may try the links again.
type Review struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	BuildingID   string    `json:"buildingId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	Linked       bool      `json:"linked"`
	LinkAttempts int       `json:"-"`
	NextLinkAt   time.Time `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *Review) Document() bson.M {
	return bson.M{
		ReviewFieldRating:     r.Rating,
		ReviewFieldComment:    r.Comment,
		ReviewFieldUserID:     r.UserID,
		ReviewFieldBuildingID: r.BuildingID,
		ReviewFieldLinked:     r.Linked,

		ReviewFieldLinkAttempts: r.LinkAttempts,
		ReviewFieldNextLinkAt:   r.NextLinkAt,
	}
}

func ReviewFromDocument(doc bson.M) (*Review, error) {
	id, err := requiredString(doc, FieldID)
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}
	r := &Review{
		ID:           id,
		UserID:       stringField(doc, ReviewFieldUserID),
		BuildingID:   stringField(doc, ReviewFieldBuildingID),
		Rating:       intField(doc, ReviewFieldRating),
		Comment:      stringField(doc, ReviewFieldComment),
		Linked:       boolField(doc, ReviewFieldLinked),
		LinkAttempts: intField(doc, ReviewFieldLinkAttempts),
		NextLinkAt:   timeField(doc, ReviewFieldNextLinkAt),
		CreatedAt:    timeField(doc, FieldCreatedAt),
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return nil, fmt.Errorf("review %s: rating %d out of range", id, r.Rating)
	}
	return r, nil
}
