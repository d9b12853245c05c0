package store

import (
	"context"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *DB) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	err := db.Admins().FindOne(ctx, bson.M{"email": email}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) CreateAdmin(ctx context.Context, a *models.Admin) (primitive.ObjectID, error) {
	res, err := db.Admins().InsertOne(ctx, a)
	if err != nil {
		return primitive.NilObjectID, wrapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) SetAdminPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := db.Admins().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
	return err
}
