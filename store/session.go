package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionStore keeps scs session data in the sessions collection.
// It satisfies both scs.Store and scs.CtxStore.
type SessionStore struct {
	coll *mongo.Collection
}

type sessionDoc struct {
	Token  string    `bson:"_id"`
	Data   []byte    `bson:"data"`
	Expiry time.Time `bson:"expiry"`
}

func (db *DB) SessionStore() *SessionStore {
	return &SessionStore{coll: db.Sessions()}
}

func (s *SessionStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	// the TTL monitor runs once a minute, so an expired document may still be around
	if time.Now().After(doc.Expiry) {
		return nil, false, nil
	}
	return doc.Data, true, nil
}

func (s *SessionStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	doc := sessionDoc{Token: token, Data: b, Expiry: expiry}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": token}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *SessionStore) DeleteCtx(ctx context.Context, token string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": token})
	return err
}

func (s *SessionStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *SessionStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *SessionStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}
