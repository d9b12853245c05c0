package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueShowsApprovedBooksOnly(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")
	visible := e.createBook(pub, "Dune", "Frank Herbert")
	hidden := e.createBook(pub, "Draft", "Frank Herbert")
	e.setBookStatus(visible, models.BookApproved)

	anon := e.client()
	list := e.do(anon, http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, list.status)
	books := list.body["books"].([]any)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].(map[string]any)["title"])
	assert.Equal(t, float64(1), list.body["total"])

	got := e.do(anon, http.MethodGet, "/api/books/"+visible, nil)
	require.Equal(t, http.StatusOK, got.status)
	assert.Equal(t, float64(1), got.obj("book")["readCount"])
	assert.NotContains(t, got.obj("book"), "s3Key")

	assert.Equal(t, http.StatusNotFound, e.do(anon, http.MethodGet, "/api/books/"+hidden, nil).status)
	assert.Equal(t, http.StatusBadRequest, e.do(anon, http.MethodGet, "/api/books/not-an-id", nil).status)
}

func TestCatalogueSearchAndPaging(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")
	for _, title := range []string{"Go in Action", "Learning Go", "Rust in Action"} {
		e.setBookStatus(e.createBook(pub, title, "Someone"), models.BookApproved)
	}
	anon := e.client()

	r := e.do(anon, http.MethodGet, "/api/books?search=go", nil)
	assert.Len(t, r.body["books"], 2)

	r = e.do(anon, http.MethodGet, "/api/books?limit=2&page=2", nil)
	assert.Len(t, r.body["books"], 1)
	assert.Equal(t, float64(2), r.body["totalPages"])
	assert.Equal(t, float64(2), r.body["currentPage"])
}

func TestDownload(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")
	up := e.upload(pub, http.MethodPost, "/api/publisher/books",
		map[string]string{"title": "Dune", "author": "Frank Herbert"}, "dune.epub", []byte("epub bytes"))
	require.Equal(t, http.StatusCreated, up.status, up.body)
	withFile := up.obj("book")["id"].(string)
	noFile := e.createBook(pub, "Notes", "Frank Herbert")
	e.setBookStatus(withFile, models.BookApproved)
	e.setBookStatus(noFile, models.BookApproved)

	anon := e.do(e.client(), http.MethodGet, "/api/books/"+withFile+"/download", nil)
	assert.Equal(t, http.StatusUnauthorized, anon.status)

	reader, _ := e.signup("Reader", "reader@x.com", "reader-pass", "user")
	r := e.do(reader, http.MethodGet, "/api/books/"+withFile+"/download", nil)
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.Equal(t, "https://files.example/books/dune.epub", r.str("downloadUrl"))

	book, err := e.store.BookByID(context.Background(), mustOID(t, withFile))
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.DownloadCount)

	assert.Equal(t, http.StatusNotFound, e.do(reader, http.MethodGet, "/api/books/"+noFile+"/download", nil).status)
}
