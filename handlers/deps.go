package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogStore is the book persistence the catalogue, publisher and admin handlers share.
type CatalogStore interface {
	InsertBook(ctx context.Context, b *models.Book) (primitive.ObjectID, error)
	Books(ctx context.Context, q models.BookQuery) ([]models.Book, int64, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, b *models.Book) error
	SetBookStatus(ctx context.Context, id primitive.ObjectID, status string) (bool, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	DeleteBooksByUploader(ctx context.Context, uploader primitive.ObjectID) ([]string, error)
	BumpBookCounter(ctx context.Context, id primitive.ObjectID, counter models.BookCounter) error
	PublisherStats(ctx context.Context, uploader primitive.ObjectID) (*models.PublisherStats, error)
}

// DashboardStore backs the admin overview pages.
type DashboardStore interface {
	Summary(ctx context.Context, activeSince time.Time) (*models.Summary, error)
	ListAccounts(ctx context.Context, role string, page, limit int64) ([]models.Account, int64, error)
}

// ObjectStore holds uploaded book files. *service.S3Service implements it.
type ObjectStore interface {
	Upload(ctx context.Context, prefix, originalFilename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration, filename string) (string, error)
}

// MetadataLookup fills in book details from an ISBN. *service.MetadataClient implements it.
type MetadataLookup interface {
	ByISBN(ctx context.Context, isbn string) (*service.BookMetadata, error)
}

// Page is the envelope of every paginated listing.
type Page struct {
	Success     bool  `json:"success"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	Total       int64 `json:"total"`
}

func newPage(page, limit, total int64) Page {
	pages := int64(0)
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Success: true, TotalPages: pages, CurrentPage: page, Total: total}
}

// paging reads page and limit, falling back to page 1 and def for missing or bad values.
func paging(r *http.Request, def int64) (page, limit int64) {
	page, limit = 1, def
	if n, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && n > 0 {
		limit = min(n, 100)
	}
	return page, limit
}

func idParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// unavailable reports a persistence failure; the request fails closed.
func unavailable(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, &auth.Error{Kind: auth.KindStoreUnavailable, Message: "service temporarily unavailable", Err: err})
}

type okMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeOK(w http.ResponseWriter, msg string) {
	middleware.WriteJSON(w, http.StatusOK, okMessage{Success: true, Message: msg})
}

// discardObject removes a file no record points to anymore. Failures only leave an orphan behind.
func discardObject(r *http.Request, objects ObjectStore, log *slog.Logger, key string) {
	if key == "" || objects == nil {
		return
	}
	if err := objects.Delete(r.Context(), key); err != nil {
		log.WarnContext(r.Context(), "delete book file", "key", key, "err", err)
	}
}
