package store

import (
	"context"

	"github.com/kevinaaaquil/intelliread/models"
)

// InsertLoginRecord appends a login attempt to the audit trail.
func (db *DB) InsertLoginRecord(ctx context.Context, rec *models.LoginRecord) error {
	_, err := db.LoginHistory().InsertOne(ctx, rec)
	return err
}
