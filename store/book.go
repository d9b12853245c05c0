package store

import (
	"context"
	"regexp"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.BookColl().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func bookFilter(q models.BookQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if !q.UploadedBy.IsZero() {
		filter["uploadedBy"] = q.UploadedBy
	}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
			bson.M{"description": re},
		}
	}
	return filter
}

// Books returns one page of books matching q, newest first, and the total match count.
func (db *DB) Books(ctx context.Context, q models.BookQuery) ([]models.Book, int64, error) {
	filter := bookFilter(q)
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(q.Skip())
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cur, err := db.BookColl().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	total, err := db.BookColl().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// BookByID returns the book or nil when it does not exist.
func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.BookColl().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book by ID and returns it, or nil when it did not exist.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.BookColl().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBooksByUploader removes every book of a publisher and returns their object keys.
func (db *DB) DeleteBooksByUploader(ctx context.Context, uploader primitive.ObjectID) ([]string, error) {
	cur, err := db.BookColl().Find(ctx, bson.M{"uploadedBy": uploader}, options.Find().SetProjection(bson.M{"s3Key": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	if _, err := db.BookColl().DeleteMany(ctx, bson.M{"uploadedBy": uploader}); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(books))
	for _, b := range books {
		if b.S3Key != "" {
			keys = append(keys, b.S3Key)
		}
	}
	return keys, nil
}

// UpdateBook overwrites a book's editable fields and status.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, book *models.Book) error {
	update := bson.M{
		"title":        book.Title,
		"author":       book.Author,
		"description":  book.Description,
		"category":     book.Category,
		"isbn":         book.ISBN,
		"publisher":    book.Publisher,
		"pageCount":    book.PageCount,
		"coverImage":   book.CoverURL,
		"format":       book.Format,
		"s3Key":        book.S3Key,
		"originalName": book.OriginalName,
		"status":       book.Status,
		"updatedAt":    book.UpdatedAt,
	}
	_, err := db.BookColl().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

// SetBookStatus moderates a book. Reports false when the book does not exist.
func (db *DB) SetBookStatus(ctx context.Context, id primitive.ObjectID, status string) (bool, error) {
	res, err := db.BookColl().UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (db *DB) BumpBookCounter(ctx context.Context, id primitive.ObjectID, counter models.BookCounter) error {
	_, err := db.BookColl().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{string(counter): 1}})
	return err
}

// PublisherStats aggregates counts and usage for one uploader.
func (db *DB) PublisherStats(ctx context.Context, uploader primitive.ObjectID) (*models.PublisherStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"uploadedBy": uploader}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"totalBooks":     bson.M{"$sum": 1},
			"pendingBooks":   bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.BookPending}}, 1, 0}}},
			"approvedBooks":  bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.BookApproved}}, 1, 0}}},
			"totalDownloads": bson.M{"$sum": "$downloadCount"},
			"totalReads":     bson.M{"$sum": "$readCount"},
		}}},
	}
	cur, err := db.BookColl().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		TotalBooks     int64 `bson:"totalBooks"`
		PendingBooks   int64 `bson:"pendingBooks"`
		ApprovedBooks  int64 `bson:"approvedBooks"`
		TotalDownloads int64 `bson:"totalDownloads"`
		TotalReads     int64 `bson:"totalReads"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	stats := &models.PublisherStats{}
	if len(rows) > 0 {
		r := rows[0]
		*stats = models.PublisherStats{
			TotalBooks:     r.TotalBooks,
			PendingBooks:   r.PendingBooks,
			ApprovedBooks:  r.ApprovedBooks,
			TotalDownloads: r.TotalDownloads,
			TotalReads:     r.TotalReads,
		}
	}
	return stats, nil
}

type countQuery struct {
	coll   *mongo.Collection
	filter bson.M
	dst    *int64
}

// Summary counts the dashboard figures. Users whose lastLogin is after activeSince count as active.
func (db *DB) Summary(ctx context.Context, activeSince time.Time) (*models.Summary, error) {
	s := &models.Summary{}
	queries := []countQuery{
		{db.Users(), bson.M{}, &s.TotalUsers},
		{db.Users(), bson.M{"role": models.RolePublisher}, &s.TotalPublishers},
		{db.Users(), bson.M{"role": models.RolePublisher, "isApproved": false}, &s.PendingPublishers},
		{db.Users(), bson.M{"lastLogin": bson.M{"$gte": activeSince}}, &s.ActiveUsers},
		{db.BookColl(), bson.M{}, &s.TotalBooks},
		{db.BookColl(), bson.M{"status": models.BookPending}, &s.PendingBooks},
		{db.BookColl(), bson.M{"status": models.BookApproved}, &s.ApprovedBooks},
	}
	for _, q := range queries {
		n, err := q.coll.CountDocuments(ctx, q.filter)
		if err != nil {
			return nil, err
		}
		*q.dst = n
	}
	return s, nil
}
