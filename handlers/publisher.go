package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublisherHandler lets approved publishers manage their own submissions.
// Every route is mounted behind an approved-publisher requirement.
type PublisherHandler struct {
	Gate     *auth.Gate
	Catalog  CatalogStore
	Objects  ObjectStore
	Metadata MetadataLookup
	MaxBytes int64
	Log      *slog.Logger
}

type PublisherBooksResponse struct {
	BookListResponse
	Stats *models.PublisherStats `json:"stats"`
}

type StatsResponse struct {
	Success bool                   `json:"success"`
	Stats   *models.PublisherStats `json:"stats"`
}

func (h *PublisherHandler) publisher(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	p, err := h.Gate.RequirePublisher(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		middleware.WriteError(w, r, auth.ErrUnauthenticated)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *PublisherHandler) List(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.publisher(w, r)
	if !ok {
		return
	}
	page, limit := paging(r, 10)
	books, total, err := h.Catalog.Books(r.Context(), models.BookQuery{
		UploadedBy: uploader,
		Status:     r.URL.Query().Get("status"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		unavailable(w, r, err)
		return
	}
	stats, err := h.Catalog.PublisherStats(r.Context(), uploader)
	if err != nil {
		unavailable(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, PublisherBooksResponse{
		BookListResponse: BookListResponse{Page: newPage(page, limit, total), Books: books},
		Stats:            stats,
	})
}

// Create submits a book for moderation. It always starts pending.
func (h *PublisherHandler) Create(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.publisher(w, r)
	if !ok {
		return
	}
	in, file, ok := readSubmission(w, r, h.MaxBytes)
	if !ok {
		return
	}
	now := time.Now()
	book := &models.Book{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		ISBN:        strings.TrimSpace(in.ISBN),
		CoverURL:    strings.TrimSpace(in.CoverImage),
		Status:      models.BookPending,
		UploadedBy:  uploader,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := storeSubmission(r.Context(), h.Objects, h.Metadata, book, file); err != nil {
		h.storageFailed(w, r, err)
		return
	}
	if book.Title == "" || book.Author == "" {
		h.discard(r, book.S3Key)
		middleware.WriteMessage(w, http.StatusBadRequest, "title and author are required")
		return
	}
	id, err := h.Catalog.InsertBook(r.Context(), book)
	if err != nil {
		h.discard(r, book.S3Key)
		unavailable(w, r, err)
		return
	}
	book.ID = id
	h.Log.InfoContext(r.Context(), "book submitted", "book", id.Hex(), "publisher", uploader.Hex())
	middleware.WriteJSON(w, http.StatusCreated, BookResponse{
		Success: true,
		Message: "Book submitted successfully. Waiting for admin approval.",
		Book:    book,
	})
}

// Update edits an own book. Changing title or author sends it back to moderation.
func (h *PublisherHandler) Update(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.publisher(w, r)
	if !ok {
		return
	}
	book, ok := h.ownBook(w, r, uploader)
	if !ok {
		return
	}
	in, file, ok := readSubmission(w, r, h.MaxBytes)
	if !ok {
		return
	}
	set := func(dst *string, v string) bool {
		v = strings.TrimSpace(v)
		if v == "" || v == *dst {
			return false
		}
		*dst = v
		return true
	}
	retitled := set(&book.Title, in.Title)
	if set(&book.Author, in.Author) {
		retitled = true
	}
	set(&book.Description, in.Description)
	set(&book.Category, in.Category)
	set(&book.ISBN, in.ISBN)
	set(&book.CoverURL, in.CoverImage)
	if retitled {
		book.Status = models.BookPending
	}

	oldKey := book.S3Key
	if err := storeSubmission(r.Context(), h.Objects, nil, book, file); err != nil {
		h.storageFailed(w, r, err)
		return
	}
	book.UpdatedAt = time.Now()
	if err := h.Catalog.UpdateBook(r.Context(), book.ID, book); err != nil {
		if book.S3Key != oldKey {
			h.discard(r, book.S3Key)
		}
		unavailable(w, r, err)
		return
	}
	if book.S3Key != oldKey {
		h.discard(r, oldKey)
	}
	middleware.WriteJSON(w, http.StatusOK, BookResponse{Success: true, Message: "Book updated successfully", Book: book})
}

func (h *PublisherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.publisher(w, r)
	if !ok {
		return
	}
	book, ok := h.ownBook(w, r, uploader)
	if !ok {
		return
	}
	if _, err := h.Catalog.DeleteBook(r.Context(), book.ID); err != nil {
		unavailable(w, r, err)
		return
	}
	h.discard(r, book.S3Key)
	writeOK(w, "Book deleted successfully")
}

func (h *PublisherHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.publisher(w, r)
	if !ok {
		return
	}
	stats, err := h.Catalog.PublisherStats(r.Context(), uploader)
	if err != nil {
		unavailable(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// ownBook loads the book in the URL if uploader owns it. Someone else's book is reported as missing.
func (h *PublisherHandler) ownBook(w http.ResponseWriter, r *http.Request, uploader primitive.ObjectID) (*models.Book, bool) {
	id, ok := idParam(r)
	if !ok {
		middleware.WriteMessage(w, http.StatusBadRequest, "invalid book id")
		return nil, false
	}
	book, err := h.Catalog.BookByID(r.Context(), id)
	if err != nil {
		unavailable(w, r, err)
		return nil, false
	}
	if book == nil || book.UploadedBy != uploader {
		middleware.WriteMessage(w, http.StatusNotFound, "book not found or you do not have permission to change it")
		return nil, false
	}
	return book, true
}

func (h *PublisherHandler) storageFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errNoStorage) {
		middleware.WriteMessage(w, http.StatusServiceUnavailable, "upload not configured")
		return
	}
	h.Log.ErrorContext(r.Context(), "upload book file", "err", err)
	middleware.WriteMessage(w, http.StatusInternalServerError, "failed to upload to storage")
}

func (h *PublisherHandler) discard(r *http.Request, key string) {
	discardObject(r, h.Objects, h.Log, key)
}
