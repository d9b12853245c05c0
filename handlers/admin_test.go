package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesNeedAdmin(t *testing.T) {
	e := newEnv(t)
	user, _ := e.signup("Reader", "reader@x.com", "reader-pass", "user")
	pub, _ := e.approvedPublisher("pub@x.com")

	for _, c := range []*http.Client{e.client(), user, pub} {
		assert.Equal(t, http.StatusUnauthorized, e.do(c, http.MethodGet, "/api/admin/summary", nil).status)
		assert.Equal(t, http.StatusUnauthorized, e.do(c, http.MethodGet, "/api/admin/publishers/pending", nil).status)
	}
}

func TestApproveAndRejectPublishers(t *testing.T) {
	e := newEnv(t)
	admin := e.admin()
	_, keep := e.signup("Keep", "keep@x.com", "publisher-pass", "publisher")
	_, drop := e.signup("Drop", "drop@x.com", "publisher-pass", "publisher")
	keepID := keep.obj("user")["id"].(string)
	dropID := drop.obj("user")["id"].(string)

	pending := e.do(admin, http.MethodGet, "/api/admin/publishers/pending", nil)
	require.Equal(t, http.StatusOK, pending.status)
	assert.Len(t, pending.body["publishers"], 2)

	r := e.do(admin, http.MethodPost, "/api/admin/publishers/"+keepID+"/approve", nil)
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.Equal(t, true, r.obj("publisher")["isApproved"])

	r = e.do(admin, http.MethodPost, "/api/admin/publishers/"+dropID+"/reject", nil)
	require.Equal(t, http.StatusOK, r.status, r.body)
	assert.Equal(t, "drop@x.com", r.obj("publisher")["email"])

	r = e.do(admin, http.MethodPost, "/api/admin/publishers/"+keepID+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, r.status, "an approved publisher is deleted, not rejected")

	r = e.do(admin, http.MethodPost, "/api/admin/publishers/"+dropID+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "account_not_found", kindOf(r))

	pending = e.do(admin, http.MethodGet, "/api/admin/publishers/pending", nil)
	assert.Empty(t, pending.body["publishers"])

	assert.Equal(t, http.StatusOK, e.login(e.client(), "keep@x.com", "publisher-pass").status)
	assert.Equal(t, http.StatusBadRequest, e.login(e.client(), "drop@x.com", "publisher-pass").status)
}

func TestApproveUserIsNotFound(t *testing.T) {
	e := newEnv(t)
	_, r := e.signup("Reader", "reader@x.com", "reader-pass", "user")
	id := r.obj("user")["id"].(string)

	got := e.do(e.admin(), http.MethodPost, "/api/admin/publishers/"+id+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, got.status)
}

func TestAdminSummaryAndUsers(t *testing.T) {
	e := newEnv(t)
	e.signup("Reader", "reader@x.com", "reader-pass", "user")
	e.signup("Pending", "pending@x.com", "publisher-pass", "publisher")
	pub, _ := e.approvedPublisher("pub@x.com")
	e.createBook(pub, "Dune", "Frank Herbert")
	admin := e.admin()

	r := e.do(admin, http.MethodGet, "/api/admin/summary", nil)
	require.Equal(t, http.StatusOK, r.status)
	s := r.obj("summary")
	assert.Equal(t, float64(3), s["totalUsers"])
	assert.Equal(t, float64(2), s["totalPublishers"])
	assert.Equal(t, float64(1), s["pendingPublishers"])
	assert.Equal(t, float64(1), s["pendingBooks"])
	assert.Equal(t, float64(1), s["activeUsers"], "only the publisher has logged in")

	r = e.do(admin, http.MethodGet, "/api/admin/users?role=publisher", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.body["users"], 2)
	assert.Equal(t, float64(2), r.body["total"])

	r = e.do(admin, http.MethodGet, "/api/admin/users?limit=1", nil)
	assert.Len(t, r.body["users"], 1)
	assert.Equal(t, float64(3), r.body["totalPages"])

	assert.Equal(t, http.StatusBadRequest, e.do(admin, http.MethodGet, "/api/admin/users?role=admin", nil).status)
}

func TestAdminDeleteUserCascadesBooks(t *testing.T) {
	e := newEnv(t)
	pub, pubID := e.approvedPublisher("pub@x.com")
	up := e.upload(pub, http.MethodPost, "/api/publisher/books",
		map[string]string{"title": "Dune", "author": "Frank Herbert"}, "dune.epub", []byte("epub"))
	require.Equal(t, http.StatusCreated, up.status, up.body)
	e.createBook(pub, "Notes", "Frank Herbert")
	admin := e.admin()

	r := e.do(admin, http.MethodDelete, "/api/admin/users/"+pubID, nil)
	require.Equal(t, http.StatusOK, r.status, r.body)

	books, total, err := e.store.Books(context.Background(), models.BookQuery{UploadedBy: mustOID(t, pubID)})
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Zero(t, total)
	assert.False(t, e.objects.has("books/dune.epub"))

	assert.Equal(t, http.StatusNotFound, e.do(admin, http.MethodDelete, "/api/admin/users/"+pubID, nil).status)
}

func TestAdminModeratesBooks(t *testing.T) {
	e := newEnv(t)
	pub, _ := e.approvedPublisher("pub@x.com")
	id := e.createBook(pub, "Dune", "Frank Herbert")
	e.createBook(pub, "Other", "Someone")
	admin := e.admin()

	r := e.do(admin, http.MethodGet, "/api/admin/books?status=pending", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.body["books"], 2)

	bad := e.do(admin, http.MethodPut, "/api/admin/books/"+id, BookStatusRequest{Status: "published"})
	assert.Equal(t, http.StatusBadRequest, bad.status)

	missing := e.do(admin, http.MethodPut, "/api/admin/books/"+mustOID(t, "65f000000000000000000000").Hex(), BookStatusRequest{Status: models.BookApproved})
	assert.Equal(t, http.StatusNotFound, missing.status)

	e.setBookStatus(id, models.BookRejected)
	r = e.do(admin, http.MethodGet, "/api/admin/books?status=rejected", nil)
	assert.Len(t, r.body["books"], 1)

	assert.Equal(t, http.StatusOK, e.do(admin, http.MethodDelete, "/api/admin/books/"+id, nil).status)
	assert.Equal(t, http.StatusNotFound, e.do(admin, http.MethodDelete, "/api/admin/books/"+id, nil).status)
}
