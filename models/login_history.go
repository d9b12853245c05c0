package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord is an append-only audit entry for a login attempt.
type LoginRecord struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Email     string              `bson:"email" json:"email"`
	Admin     bool                `bson:"admin,omitempty" json:"admin,omitempty"`
	IPAddress string              `bson:"ipAddress" json:"ipAddress"`
	UserAgent string              `bson:"userAgent" json:"userAgent"`
	Timestamp time.Time           `bson:"loginTime" json:"loginTime"`
	Success   bool                `bson:"success" json:"success"`
}
