// models/user.go
package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// User document fields.
const (
	UserFieldName       = "name"
	UserFieldEmail      = "email"
	UserFieldRole       = "role"
	UserFieldProfilePic = "profilePic"
	UserFieldLikes      = "likes"
	UserFieldReviews    = "reviews"
)

// RoleUser is the role given to self-provisioned accounts.
const RoleUser = "user"

// User is the store-side record of an identity. Its id equals the identity subject.
type User struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	ProfilePic string   `json:"profilePic,omitempty"`
	Likes      []string `json:"likes"`
	Reviews    []string `json:"reviews"`
}

func (u *User) Document() bson.M {
	return bson.M{
		UserFieldName:       u.Name,
		UserFieldEmail:      u.Email,
		UserFieldRole:       u.Role,
		UserFieldProfilePic: u.ProfilePic,
		UserFieldLikes:      nonNil(u.Likes),
		UserFieldReviews:    nonNil(u.Reviews),
	}
}

// UserFromDocument decodes a stored user; likes and reviews are normalized to ids.
func UserFromDocument(doc bson.M) (*User, error) {
	id, err := requiredString(doc, FieldID)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return &User{
		ID:         id,
		Name:       stringField(doc, UserFieldName),
		Email:      stringField(doc, UserFieldEmail),
		Role:       stringField(doc, UserFieldRole),
		ProfilePic: stringField(doc, UserFieldProfilePic),
		Likes:      RefIDs(doc[UserFieldLikes]),
		Reviews:    RefIDs(doc[UserFieldReviews]),
	}, nil
}

// LikesBuilding reports whether buildingID is among the user's likes.
func (u *User) LikesBuilding(buildingID string) bool {
	return containsID(u.Likes, buildingID)
}
