package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kevinaaaquil/intelliread/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateKey is returned when an insert collides with a unique index (e.g. email).
var ErrDuplicateKey = errors.New("store: duplicate key")

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database

	// sealer encrypts OTP codes at rest; nil stores them as-is.
	sealer *utils.Sealer
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	slog.Info("connected to mongodb", "db", dbName)
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

// WithSealer enables encryption of OTP codes at rest.
func (db *DB) WithSealer(s *utils.Sealer) *DB {
	db.sealer = s
	return db
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Admins() *mongo.Collection {
	return db.Database.Collection("admins")
}

func (db *DB) OTPs() *mongo.Collection {
	return db.Database.Collection("otps")
}

func (db *DB) LoginHistory() *mongo.Collection {
	return db.Database.Collection("login_history")
}

func (db *DB) BookColl() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) NotificationLogs() *mongo.Collection {
	return db.Database.Collection("notification_logs")
}

func (db *DB) Sessions() *mongo.Collection {
	return db.Database.Collection("sessions")
}

// EnsureIndexes creates the unique and TTL indexes the stores rely on.
// The TTL indexes only reclaim space; expiry is always re-checked on read.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	ttl := options.Index().SetExpireAfterSeconds(0)
	plan := []struct {
		coll *mongo.Collection
		idx  mongo.IndexModel
	}{
		{db.Users(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{db.Users(), mongo.IndexModel{Keys: bson.D{{Key: "role", Value: 1}, {Key: "isApproved", Value: 1}}}},
		{db.Admins(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{db.OTPs(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{db.OTPs(), mongo.IndexModel{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: ttl}},
		{db.Sessions(), mongo.IndexModel{Keys: bson.D{{Key: "expiry", Value: 1}}, Options: ttl}},
		{db.BookColl(), mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{db.BookColl(), mongo.IndexModel{Keys: bson.D{{Key: "uploadedBy", Value: 1}}}},
	}
	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateOne(ctx, p.idx); err != nil {
			return err
		}
	}
	return nil
}

// Ping reports whether the deployment is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

func wrapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}
