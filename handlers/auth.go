package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/models"
)

type AuthHandler struct {
	Creds  *auth.Credentials
	Gate   *auth.Gate
	Tokens *auth.Tokens
	Log    *slog.Logger
}

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	User    *models.Account `json:"user"`
	Token   string          `json:"token,omitempty"`
}

type AdminResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Admin   *models.Admin `json:"admin"`
	Token   string        `json:"token,omitempty"`
}

type StatusResponse struct {
	Success bool `json:"success"`
	auth.Status
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorBody{Kind: string(auth.KindValidation), Error: "invalid json"})
		return false
	}
	return true
}

func client(r *http.Request) auth.Client {
	return auth.Client{IP: middleware.ClientIP(r), UserAgent: r.UserAgent()}
}

// Signup registers a user or publisher. Users are logged in straight away;
// publishers have to wait for an admin.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, &req) {
		return
	}
	acct, err := h.Creds.Register(r.Context(), req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	resp := AccountResponse{Success: true, User: acct}
	if acct.State() == models.StatePending {
		resp.Message = "Publisher account created. Please wait for admin approval before logging in."
		middleware.WriteJSON(w, http.StatusCreated, resp)
		return
	}
	token, ok := h.establish(w, r, auth.AccountPrincipal(acct))
	if !ok {
		return
	}
	resp.Message = "Account created successfully"
	resp.Token = token
	middleware.WriteJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	acct, err := h.Creds.Authenticate(r.Context(), req.Email, req.Password, client(r))
	if errors.Is(err, auth.ErrAccountNotFound) {
		// unknown email and wrong password look the same from outside
		err = &auth.Error{Kind: auth.KindInvalidCredentials, Message: auth.MessageOf(err)}
	}
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	token, ok := h.establish(w, r, auth.AccountPrincipal(acct))
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, AccountResponse{Success: true, Message: "Login successful", User: acct, Token: token})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	admin, err := h.Creds.AuthenticateAdmin(r.Context(), req.Email, req.Password, client(r))
	if errors.Is(err, auth.ErrAccountNotFound) {
		err = &auth.Error{Kind: auth.KindInvalidCredentials, Message: auth.MessageOf(err)}
	}
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	token, ok := h.establish(w, r, auth.AdminPrincipal(admin))
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, AdminResponse{Success: true, Message: "Admin login successful", Admin: admin, Token: token})
}

// Logout never fails; logging out twice is fine.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Gate.Destroy(r.Context())
	writeOK(w, "Logged out successfully")
}

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, StatusResponse{Success: true, Status: h.Gate.Status(r.Context())})
}

// Me returns the caller's account as currently stored, not the login snapshot.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.Gate.RequireUser(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	acct, err := h.Creds.Account(r.Context(), p.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, AccountResponse{Success: true, User: acct})
}

func (h *AuthHandler) establish(w http.ResponseWriter, r *http.Request, p auth.Principal) (string, bool) {
	if err := h.Gate.Establish(r.Context(), p); err != nil {
		middleware.WriteError(w, r, err)
		return "", false
	}
	if h.Tokens == nil {
		return "", true
	}
	token, err := h.Tokens.Issue(p)
	if err != nil {
		// the session is already in place; API clients just go without a token
		h.Log.ErrorContext(r.Context(), "issue token", "email", p.Email, "err", err)
		return "", true
	}
	return token, true
}
