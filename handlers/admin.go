package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/models"
)

// AdminHandler serves the moderation dashboard. Each method checks for an
// admin principal itself, on top of the route-level requirement.
type AdminHandler struct {
	Gate      *auth.Gate
	Approvals *auth.Approvals
	Creds     *auth.Credentials
	Catalog   CatalogStore
	Dashboard DashboardStore
	Objects   ObjectStore
	Log       *slog.Logger
	Now       func() time.Time
}

type DecisionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*auth.Decision
}

type PendingResponse struct {
	Success    bool             `json:"success"`
	Publishers []models.Account `json:"publishers"`
}

type SummaryResponse struct {
	Success bool            `json:"success"`
	Summary *models.Summary `json:"summary"`
}

type UserListResponse struct {
	Page
	Users []models.Account `json:"users"`
}

type BookStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AdminHandler) admin(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, err := h.Gate.RequireAdmin(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	d, err := h.Approvals.Decide(r.Context(), h.Gate.Principal(r.Context()), chi.URLParam(r, "id"), approve)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	msg := "Publisher approved successfully"
	if !approve {
		msg = "Publisher rejected and removed"
	}
	middleware.WriteJSON(w, http.StatusOK, DecisionResponse{Success: true, Message: msg, Decision: d})
}

func (h *AdminHandler) Pending(w http.ResponseWriter, r *http.Request) {
	list, err := h.Approvals.ListPending(r.Context(), h.Gate.Principal(r.Context()))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, PendingResponse{Success: true, Publishers: list})
}

// Summary counts accounts and books. Active users are those who logged in during the last day.
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	s, err := h.Dashboard.Summary(r.Context(), h.now().Add(-24*time.Hour))
	if err != nil {
		unavailable(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, SummaryResponse{Success: true, Summary: s})
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role != "" && !slices.Contains(models.SignupRoles, role) {
		middleware.WriteMessage(w, http.StatusBadRequest, "role must be user or publisher")
		return
	}
	page, limit := paging(r, 10)
	users, total, err := h.Dashboard.ListAccounts(r.Context(), role, page, limit)
	if err != nil {
		unavailable(w, r, err)
		return
	}
	if users == nil {
		users = []models.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, UserListResponse{Page: newPage(page, limit, total), Users: users})
}

// DeleteUser removes an account and everything it uploaded.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.admin(w, r)
	if !ok {
		return
	}
	acct, err := h.Creds.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	keys, err := h.Catalog.DeleteBooksByUploader(r.Context(), acct.ID)
	if err != nil {
		// the account is gone already; its books are orphaned, not visible to anyone new
		h.Log.ErrorContext(r.Context(), "delete books of removed account", "account", acct.ID.Hex(), "err", err)
	}
	for _, key := range keys {
		h.discard(r, key)
	}
	h.Log.InfoContext(r.Context(), "account removed by admin", "email", acct.Email, "books", len(keys), "by", p.Email)
	writeOK(w, "User and their books deleted successfully")
}

func (h *AdminHandler) Books(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !slices.Contains(models.BookStatuses, status) {
		middleware.WriteMessage(w, http.StatusBadRequest, "invalid status")
		return
	}
	page, limit := paging(r, 10)
	books, total, err := h.Catalog.Books(r.Context(), models.BookQuery{
		Status: status,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		unavailable(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, BookListResponse{Page: newPage(page, limit, total), Books: books})
}

func (h *AdminHandler) UpdateBookStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.admin(w, r)
	if !ok {
		return
	}
	id, ok := idParam(r)
	if !ok {
		middleware.WriteMessage(w, http.StatusBadRequest, "invalid book id")
		return
	}
	var req BookStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if !slices.Contains(models.BookStatuses, req.Status) {
		middleware.WriteMessage(w, http.StatusBadRequest, "status must be pending, approved or rejected")
		return
	}
	found, err := h.Catalog.SetBookStatus(r.Context(), id, req.Status)
	if err != nil {
		unavailable(w, r, err)
		return
	}
	if !found {
		middleware.WriteMessage(w, http.StatusNotFound, "book not found")
		return
	}
	h.Log.InfoContext(r.Context(), "book status changed", "book", id.Hex(), "status", req.Status, "by", p.Email)
	writeOK(w, "Book status updated to "+req.Status)
}

func (h *AdminHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	id, ok := idParam(r)
	if !ok {
		middleware.WriteMessage(w, http.StatusBadRequest, "invalid book id")
		return
	}
	book, err := h.Catalog.DeleteBook(r.Context(), id)
	if err != nil {
		unavailable(w, r, err)
		return
	}
	if book == nil {
		middleware.WriteMessage(w, http.StatusNotFound, "book not found")
		return
	}
	h.discard(r, book.S3Key)
	writeOK(w, "Book deleted successfully")
}

func (h *AdminHandler) discard(r *http.Request, key string) {
	discardObject(r, h.Objects, h.Log, key)
}
