package store

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PutOTP replaces whatever entry exists for the email, invalidating earlier codes.
func (db *DB) PutOTP(ctx context.Context, e *models.OTPEntry) error {
	doc := *e
	if db.sealer != nil {
		sealed, err := db.sealer.Seal([]byte(e.Code))
		if err != nil {
			return fmt.Errorf("seal otp: %w", err)
		}
		doc.Code = sealed
	}
	_, err := db.OTPs().ReplaceOne(ctx, bson.M{"email": e.Email}, &doc, options.Replace().SetUpsert(true))
	return err
}

func (db *DB) OTPByEmail(ctx context.Context, email string) (*models.OTPEntry, error) {
	var e models.OTPEntry
	err := db.OTPs().FindOne(ctx, bson.M{"email": email}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if db.sealer != nil {
		code, err := db.sealer.Open(e.Code)
		if err != nil {
			return nil, fmt.Errorf("open otp: %w", err)
		}
		e.Code = code
	}
	return &e, nil
}

// MarkOTPVerified sets verified on the entry only if it is still the given issue.
func (db *DB) MarkOTPVerified(ctx context.Context, email, issueID string) (bool, error) {
	res, err := db.OTPs().UpdateOne(ctx,
		bson.M{"email": email, "issueId": issueID},
		bson.M{"$set": bson.M{"verified": true}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// DeleteOTP removes the entry only if it is still the given issue.
func (db *DB) DeleteOTP(ctx context.Context, email, issueID string) (bool, error) {
	res, err := db.OTPs().DeleteOne(ctx, bson.M{"email": email, "issueId": issueID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
