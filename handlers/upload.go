package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/service"
	"golang.org/x/sync/errgroup"
)

const (
	contentTypeEPUB = "application/epub+zip"
	contentTypePDF  = "application/pdf"
)

// BookInput holds the editable fields of a submission. Empty fields are left unchanged on update.
type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ISBN        string `json:"isbn"`
	CoverImage  string `json:"coverImage"`
}

type bookFile struct {
	data        []byte
	name        string
	contentType string
	format      string
}

// readSubmission accepts JSON, or a multipart form whose optional "file" part is an EPUB or PDF.
func readSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64) (*BookInput, *bookFile, bool) {
	var in BookInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			middleware.WriteMessage(w, http.StatusBadRequest, "invalid json")
			return nil, nil, false
		}
		return &in, nil, true
	}

	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, nil, false
	}
	in = BookInput{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		ISBN:        r.FormValue("isbn"),
		CoverImage:  r.FormValue("coverImage"),
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return &in, nil, true
	}
	if err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, "failed to read file")
		return nil, nil, false
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(header.Filename)))
	partType := header.Header.Get("Content-Type")
	f := &bookFile{name: header.Filename, contentType: contentTypePDF, format: "pdf"}
	switch {
	case ext == ".epub" || strings.HasPrefix(partType, contentTypeEPUB):
		f.contentType, f.format = contentTypeEPUB, "epub"
	case ext == ".pdf" || strings.HasPrefix(partType, contentTypePDF):
	default:
		middleware.WriteMessage(w, http.StatusBadRequest, "only epub and pdf are allowed")
		return nil, nil, false
	}
	if f.data, err = io.ReadAll(file); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, "failed to read file")
		return nil, nil, false
	}
	return &in, f, true
}

// storeSubmission uploads the file and looks the ISBN up at the same time, then applies
// both to book. A failed lookup only means fewer filled-in fields; a failed upload fails.
func storeSubmission(ctx context.Context, objects ObjectStore, lookup MetadataLookup, book *models.Book, f *bookFile) error {
	var (
		key  string
		meta *service.BookMetadata
	)
	g, gctx := errgroup.WithContext(ctx)
	if f != nil {
		if objects == nil {
			return errNoStorage
		}
		g.Go(func() error {
			k, err := objects.Upload(gctx, "books/", f.name, bytes.NewReader(f.data), f.contentType)
			key = k
			return err
		})
	}
	if lookup != nil && book.ISBN != "" {
		g.Go(func() error {
			if m, err := lookup.ByISBN(gctx, book.ISBN); err == nil {
				meta = m
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if f != nil {
		book.S3Key = key
		book.OriginalName = f.name
		book.Format = f.format
	}
	if meta != nil {
		fillFromMetadata(book, meta)
	}
	return nil
}

var errNoStorage = errors.New("file storage not configured")

// fillFromMetadata only fills gaps; what the publisher typed wins.
func fillFromMetadata(book *models.Book, m *service.BookMetadata) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&book.Title, m.Title)
	fill(&book.Author, m.Author)
	fill(&book.Description, m.Description)
	fill(&book.Category, m.Category)
	fill(&book.Publisher, m.Publisher)
	fill(&book.CoverURL, m.CoverURL)
	book.ISBN = m.ISBN
	if book.PageCount == 0 {
		book.PageCount = m.PageCount
	}
}
