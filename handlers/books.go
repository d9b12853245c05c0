package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/models"
)

// BooksHandler serves the public catalogue. Only approved books are ever visible here.
type BooksHandler struct {
	Catalog CatalogStore
	Objects ObjectStore // nil when file storage is not configured
	Log     *slog.Logger
}

type BookListResponse struct {
	Page
	Books []models.Book `json:"books"`
}

type BookResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Book    *models.Book `json:"book"`
}

type DownloadResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	DownloadURL string `json:"downloadUrl"`
	Title       string `json:"title"`
	Author      string `json:"author"`
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r, 12)
	q := models.BookQuery{
		Status:   models.BookApproved,
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Page:     page,
		Limit:    limit,
	}
	books, total, err := h.Catalog.Books(r.Context(), q)
	if err != nil {
		unavailable(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, BookListResponse{Page: newPage(page, limit, total), Books: books})
}

// Get returns an approved book and counts the view.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, ok := h.approvedBook(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.BumpBookCounter(r.Context(), book.ID, models.CounterRead); err != nil {
		h.Log.WarnContext(r.Context(), "bump read count", "book", book.ID.Hex(), "err", err)
	} else {
		book.ReadCount++
	}
	middleware.WriteJSON(w, http.StatusOK, BookResponse{Success: true, Book: book})
}

// Download hands out a short-lived link to the book file. Mounted behind a user session.
func (h *BooksHandler) Download(w http.ResponseWriter, r *http.Request) {
	book, ok := h.approvedBook(w, r)
	if !ok {
		return
	}
	if book.S3Key == "" {
		middleware.WriteMessage(w, http.StatusNotFound, "this book has no downloadable file")
		return
	}
	if h.Objects == nil {
		middleware.WriteMessage(w, http.StatusServiceUnavailable, "download not configured")
		return
	}
	url, err := h.Objects.PresignedGetURL(r.Context(), book.S3Key, 15*time.Minute, book.OriginalName)
	if err != nil {
		h.Log.ErrorContext(r.Context(), "presign download", "book", book.ID.Hex(), "err", err)
		middleware.WriteMessage(w, http.StatusInternalServerError, "failed to generate download url")
		return
	}
	if err := h.Catalog.BumpBookCounter(r.Context(), book.ID, models.CounterDownload); err != nil {
		h.Log.WarnContext(r.Context(), "bump download count", "book", book.ID.Hex(), "err", err)
	}
	middleware.WriteJSON(w, http.StatusOK, DownloadResponse{
		Success:     true,
		Message:     "Download started",
		DownloadURL: url,
		Title:       book.Title,
		Author:      book.Author,
	})
}

func (h *BooksHandler) approvedBook(w http.ResponseWriter, r *http.Request) (*models.Book, bool) {
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
	if book == nil || book.Status != models.BookApproved {
		middleware.WriteMessage(w, http.StatusNotFound, "book not found")
		return nil, false
	}
	return book, true
}
