package auth

import (
	"context"
	"log/slog"

	"github.com/alexedwards/scs/v2"
)

const (
	sessKind     = "principal.kind"
	sessID       = "principal.id"
	sessEmail    = "principal.email"
	sessName     = "principal.name"
	sessRole     = "principal.role"
	sessApproved = "principal.approved"
)

// Gate classifies requests by the principal bound to their session or bearer token.
// The request context must have passed through the session manager's LoadAndSave.
type Gate struct {
	sessions *scs.SessionManager
	log      *slog.Logger
}

func NewGate(sessions *scs.SessionManager, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{sessions: sessions, log: log}
}

func (g *Gate) Sessions() *scs.SessionManager { return g.sessions }

// Establish binds p to the current session under a fresh token.
func (g *Gate) Establish(ctx context.Context, p Principal) error {
	if err := g.sessions.RenewToken(ctx); err != nil {
		return storeErr("renew session", err)
	}
	g.sessions.Put(ctx, sessKind, p.Kind)
	g.sessions.Put(ctx, sessID, p.ID)
	g.sessions.Put(ctx, sessEmail, p.Email)
	g.sessions.Put(ctx, sessName, p.Name)
	g.sessions.Put(ctx, sessRole, p.Role)
	g.sessions.Put(ctx, sessApproved, p.Approved)
	return nil
}

// Principal returns the caller's identity, or nil when anonymous. A bearer
// principal attached with WithPrincipal wins over the session.
func (g *Gate) Principal(ctx context.Context) *Principal {
	if p, ok := principalFromContext(ctx); ok {
		return p
	}
	return g.sessionPrincipal(ctx)
}

func (g *Gate) sessionPrincipal(ctx context.Context) (p *Principal) {
	// scs panics when ctx was not loaded by LoadAndSave. Treat the caller as
	// anonymous but say so: it means a route is missing the session middleware.
	defer func() {
		if r := recover(); r != nil {
			g.log.WarnContext(ctx, "read principal without loaded session", "panic", r)
			p = nil
		}
	}()
	id := g.sessions.GetString(ctx, sessID)
	if id == "" {
		return nil
	}
	return &Principal{
		Kind:     g.sessions.GetString(ctx, sessKind),
		ID:       id,
		Email:    g.sessions.GetString(ctx, sessEmail),
		Name:     g.sessions.GetString(ctx, sessName),
		Role:     g.sessions.GetString(ctx, sessRole),
		Approved: g.sessions.GetBool(ctx, sessApproved),
	}
}

// Require returns the principal if it satisfies need.
func (g *Gate) Require(ctx context.Context, need Level) (*Principal, error) {
	p := g.Principal(ctx)
	if err := Authorize(p, need); err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Gate) RequireUser(ctx context.Context) (*Principal, error) {
	return g.Require(ctx, LevelUser)
}

func (g *Gate) RequirePublisher(ctx context.Context) (*Principal, error) {
	return g.Require(ctx, LevelPublisher)
}

func (g *Gate) RequireAdmin(ctx context.Context) (*Principal, error) {
	return g.Require(ctx, LevelAdmin)
}

// Destroy ends the session. Calling it without a session is fine; store errors are only logged.
func (g *Gate) Destroy(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			g.log.WarnContext(ctx, "destroy without loaded session", "panic", r)
		}
	}()
	if err := g.sessions.Destroy(ctx); err != nil {
		g.log.WarnContext(ctx, "destroy session", "err", err)
	}
}

// Status is the public view of the caller's login state.
type Status struct {
	LoggedIn bool       `json:"isLoggedIn"`
	Role     string     `json:"role,omitempty"`
	IsAdmin  bool       `json:"isAdmin,omitempty"`
	User     *Principal `json:"user,omitempty"`
}

func (g *Gate) Status(ctx context.Context) Status {
	p := g.Principal(ctx)
	if p == nil {
		return Status{}
	}
	return Status{LoggedIn: true, Role: p.Role, IsAdmin: p.Kind == KindAdmin, User: p}
}
