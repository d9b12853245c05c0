package store

import (
	"context"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertNotificationLog records an outbound email attempt.
func (db *DB) InsertNotificationLog(ctx context.Context, log *models.NotificationLog) error {
	_, err := db.NotificationLogs().InsertOne(ctx, log, options.InsertOne())
	return err
}
