package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book moderation statuses.
const (
	BookPending  = "pending"
	BookApproved = "approved"
	BookRejected = "rejected"
)

var BookStatuses = []string{BookPending, BookApproved, BookRejected}

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Author        string             `bson:"author" json:"author"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	ISBN          string             `bson:"isbn,omitempty" json:"isbn,omitempty"`
	Publisher     string             `bson:"publisher,omitempty" json:"publisher,omitempty"`
	PageCount     int                `bson:"pageCount,omitempty" json:"pageCount,omitempty"`
	CoverURL      string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Format        string             `bson:"format,omitempty" json:"format,omitempty"` // "epub" or "pdf"
	S3Key         string             `bson:"s3Key,omitempty" json:"-"`
	OriginalName  string             `bson:"originalName,omitempty" json:"originalName,omitempty"`
	Status        string             `bson:"status" json:"status"`
	UploadedBy    primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	DownloadCount int64              `bson:"downloadCount" json:"downloadCount"`
	ReadCount     int64              `bson:"readCount" json:"readCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BookCounter names a per-book usage counter.
type BookCounter string

const (
	CounterRead     BookCounter = "readCount"
	CounterDownload BookCounter = "downloadCount"
)

// BookQuery filters a catalogue listing. Zero values mean "any".
type BookQuery struct {
	Status     string
	Category   string
	Search     string // case-insensitive match on title, author or description
	UploadedBy primitive.ObjectID
	Page       int64
	Limit      int64
}

// Skip returns the offset for the query's page, treating page < 1 as the first page.
func (q BookQuery) Skip() int64 {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// PublisherStats aggregates a publisher's catalogue.
type PublisherStats struct {
	TotalBooks     int64 `json:"totalBooks"`
	PendingBooks   int64 `json:"pendingBooks"`
	ApprovedBooks  int64 `json:"approvedBooks"`
	TotalDownloads int64 `json:"totalDownloads"`
	TotalReads     int64 `json:"totalReads"`
}

// Summary is the admin dashboard overview.
type Summary struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalPublishers   int64 `json:"totalPublishers"`
	PendingPublishers int64 `json:"pendingPublishers"`
	TotalBooks        int64 `json:"totalBooks"`
	PendingBooks      int64 `json:"pendingBooks"`
	ApprovedBooks     int64 `json:"approvedBooks"`
	ActiveUsers       int64 `json:"activeUsers"`
}
