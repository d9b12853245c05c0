package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateAccount inserts the account; a taken email yields ErrDuplicateKey via the unique index.
func (db *DB) CreateAccount(ctx context.Context, a *models.Account) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, a, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, wrapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return db.findAccount(ctx, bson.M{"email": email})
}

func (db *DB) AccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return db.findAccount(ctx, bson.M{"_id": id})
}

func (db *DB) findAccount(ctx context.Context, filter bson.M) (*models.Account, error) {
	var a models.Account
	err := db.Users().FindOne(ctx, filter).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}})
	return err
}

func (db *DB) SetAccountPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
	return err
}

// ApprovePublisher flips isApproved on a publisher record. Reports false when no publisher matched.
func (db *DB) ApprovePublisher(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RolePublisher},
		bson.M{"$set": bson.M{"isApproved": true}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// DeleteAccount removes the account and returns the deleted record, or nil when none existed.
func (db *DB) DeleteAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	err := db.Users().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// PendingPublishers lists publishers awaiting a decision, oldest first.
func (db *DB) PendingPublishers(ctx context.Context) ([]models.Account, error) {
	cur, err := db.Users().Find(ctx,
		bson.M{"role": models.RolePublisher, "isApproved": false},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	accounts := []models.Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListAccounts pages through accounts newest first, optionally filtered by role.
func (db *DB) ListAccounts(ctx context.Context, role string, page, limit int64) ([]models.Account, int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip((page - 1) * limit).SetLimit(limit)
	cur, err := db.Users().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	accounts := []models.Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, 0, err
	}
	total, err := db.Users().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}
