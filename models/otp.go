package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner types of a reset code.
const (
	OwnerUser  = "user"
	OwnerAdmin = "admin"
)

// OTPEntry is the single live password-reset code for an email.
// IssueID changes on every issue so conditional updates never touch a newer code.
type OTPEntry struct {
	Email     string             `bson:"email" json:"email"`
	IssueID   string             `bson:"issueId" json:"-"`
	Code      string             `bson:"code" json:"-"`
	Verified  bool               `bson:"verified" json:"verified"`
	OwnerType string             `bson:"ownerType" json:"ownerType"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (e *OTPEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
