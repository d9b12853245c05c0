package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationLog records an outbound email attempt.
type NotificationLog struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind    string             `bson:"kind" json:"kind"`
	ToEmail string             `bson:"toEmail" json:"toEmail"`
	Subject string             `bson:"subject" json:"subject"`
	Success bool               `bson:"success" json:"success"`
	Error   string             `bson:"error,omitempty" json:"error,omitempty"`
	SentAt  time.Time          `bson:"sentAt" json:"sentAt"`
}
