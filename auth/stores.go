package auth

import (
	"context"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The lookups below return (nil, nil) when nothing matches, as store.DB does.

type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) (primitive.ObjectID, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetAccountPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	ApprovePublisher(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	PendingPublishers(ctx context.Context) ([]models.Account, error)
}

type AdminStore interface {
	AdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, a *models.Admin) (primitive.ObjectID, error)
	SetAdminPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// OTPStore holds at most one entry per email. Conditional operations take the
// entry's IssueID so they never act on a code issued after the caller read it.
type OTPStore interface {
	PutOTP(ctx context.Context, e *models.OTPEntry) error
	OTPByEmail(ctx context.Context, email string) (*models.OTPEntry, error)
	MarkOTPVerified(ctx context.Context, email, issueID string) (bool, error)
	DeleteOTP(ctx context.Context, email, issueID string) (bool, error)
}

type LoginHistorySink interface {
	InsertLoginRecord(ctx context.Context, rec *models.LoginRecord) error
}
