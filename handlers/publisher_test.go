package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustOID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestPublisherRoutesNeedApprovedPublisher(t *testing.T) {
	e := newEnv(t)
	user, _ := e.signup("Reader", "reader@x.com", "reader-pass", "user")

	assert.Equal(t, http.StatusUnauthorized, e.do(e.client(), http.MethodGet, "/api/publisher/books", nil).status)
	r := e.do(user, http.MethodGet, "/api/publisher/books", nil)
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "forbidden", kindOf(r))
}

func TestPublisherCreate(t *testing.T) {
	e := newEnv(t)
	pub, pubID := e.approvedPublisher("pub@x.com")

	r := e.do(pub, http.MethodPost, "/api/publisher/books", BookInput{Title: "  Dune ", Author: "Frank Herbert", Category: "Sci-Fi"})
	require.Equal(t, http.StatusCreated, r.status, r.body)
	book := r.obj("book")
	assert.Equal(t, "Dune", book["title"])
	assert.Equal(t, models.BookPending, book["status"])
	assert.Equal(t, pubID, book["uploadedBy"])

	r = e.do(pub, http.MethodPost, "/api/publisher/books", BookInput{Title: "No author"})
	assert.Equal(t, http.StatusBadRequest, r.status)

	list := e.do(pub, http.MethodGet, "/api/publisher/books", nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Len(t, list.body["books"], 1)
	assert.Equal(t, float64(1), list.obj("stats")["pendingBooks"])
}

func TestPublisherUpload(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")

	r := e.upload(pub, http.MethodPost, "/api/publisher/books",
		map[string]string{"title": "Manual", "author": "Team"}, "manual.pdf", []byte("%PDF-1.7"))
	require.Equal(t, http.StatusCreated, r.status, r.body)
	assert.Equal(t, "pdf", r.obj("book")["format"])
	assert.True(t, e.objects.has("books/manual.pdf"))

	r = e.upload(pub, http.MethodPost, "/api/publisher/books",
		map[string]string{"title": "Notes", "author": "Team"}, "notes.txt", []byte("plain"))
	assert.Equal(t, http.StatusBadRequest, r.status)

	// a rejected submission does not leave its file behind
	r = e.upload(pub, http.MethodPost, "/api/publisher/books",
		map[string]string{"title": "Untitled"}, "orphan.epub", []byte("epub"))
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.False(t, e.objects.has("books/orphan.epub"))
}

func TestPublisherEditsOwnBooksOnly(t *testing.T) {
	e := newEnv(t)
	alice, _ := e.approvedPublisher("alice@x.com")
	bob, _ := e.approvedPublisher("bob@x.com")
	id := e.createBook(alice, "Dune", "Frank Herbert")
	e.setBookStatus(id, models.BookApproved)

	r := e.do(bob, http.MethodPut, "/api/publisher/books/"+id, BookInput{Title: "Stolen"})
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, http.StatusNotFound, e.do(bob, http.MethodDelete, "/api/publisher/books/"+id, nil).status)

	// a description change keeps the book approved
	r = e.do(alice, http.MethodPut, "/api/publisher/books/"+id, BookInput{Description: "Desert planet"})
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.Equal(t, models.BookApproved, r.obj("book")["status"])

	// a new title sends it back to moderation
	r = e.do(alice, http.MethodPut, "/api/publisher/books/"+id, BookInput{Title: "Dune Messiah"})
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.Equal(t, models.BookPending, r.obj("book")["status"])
	assert.Equal(t, "Desert planet", r.obj("book")["description"])

	assert.Equal(t, http.StatusOK, e.do(alice, http.MethodDelete, "/api/publisher/books/"+id, nil).status)
	book, err := e.store.BookByID(context.Background(), mustOID(t, id))
	require.NoError(t, err)
	assert.Nil(t, book)
}

func TestPublisherReplacesFile(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")
	r := e.upload(pub, http.MethodPost, "/api/publisher/books",
		map[string]string{"title": "Dune", "author": "Frank Herbert"}, "v1.epub", []byte("one"))
	require.Equal(t, http.StatusCreated, r.status, r.body)
	id := r.obj("book")["id"].(string)

	r = e.upload(pub, http.MethodPut, "/api/publisher/books/"+id, nil, "v2.epub", []byte("two"))
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.True(t, e.objects.has("books/v2.epub"))
	assert.False(t, e.objects.has("books/v1.epub"))
}

func TestPublisherStats(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")
	e.setBookStatus(e.createBook(pub, "One", "A"), models.BookApproved)
	e.createBook(pub, "Two", "A")

	r := e.do(pub, http.MethodGet, "/api/publisher/stats", nil)
	require.Equal(t, http.StatusOK, r.status)
	stats := r.obj("stats")
	assert.Equal(t, float64(2), stats["totalBooks"])
	assert.Equal(t, float64(1), stats["approvedBooks"])
	assert.Equal(t, float64(1), stats["pendingBooks"])
}
