package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for account authorization.
const (
	RoleUser      = "user"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

// SignupRoles are the roles a visitor may pick at registration. Admins are seeded, never signed up.
var SignupRoles = []string{RoleUser, RolePublisher}

// AccountState is the approval lifecycle of an account. Only publishers ever leave StateApproved.
type AccountState int

const (
	StateApproved AccountState = iota
	StatePending
	StateRejected
)

func (s AccountState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRejected:
		return "rejected"
	default:
		return "approved"
	}
}

type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"fullName" json:"fullName"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"` // bcrypt hash
	Role         string             `bson:"role" json:"role"`  // user or publisher
	IsApproved   bool               `bson:"isApproved" json:"isApproved"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// State derives the approval state from role and flag. A rejected publisher has no record left,
// so StateRejected is only ever reported by the approval decision itself.
func (a *Account) State() AccountState {
	if a.Role == RolePublisher && !a.IsApproved {
		return StatePending
	}
	return StateApproved
}
