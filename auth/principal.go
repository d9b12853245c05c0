package auth

import (
	"context"

	"github.com/kevinaaaquil/intelliread/models"
)

// Principal kinds. Accounts (users and publishers) and admins live in separate collections.
const (
	KindAccount = "account"
	KindAdmin   = "admin"
)

// Principal is the identity snapshot bound to a session or bearer token.
// Role and Approved are captured at login and not refreshed for the session's lifetime.
type Principal struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}

// Level is an authorization level a route can require.
type Level int

const (
	LevelAnonymous Level = iota
	LevelUser
	LevelPublisher
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelPublisher:
		return "publisher"
	case LevelAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// AccountPrincipal snapshots an account for a session.
func AccountPrincipal(a *models.Account) Principal {
	return Principal{
		Kind:     KindAccount,
		ID:       a.ID.Hex(),
		Email:    a.Email,
		Name:     a.FullName,
		Role:     a.Role,
		Approved: a.IsApproved,
	}
}

// AdminPrincipal snapshots an admin for a session.
func AdminPrincipal(a *models.Admin) Principal {
	return Principal{
		Kind:     KindAdmin,
		ID:       a.ID.Hex(),
		Email:    a.Email,
		Name:     a.Username,
		Role:     models.RoleAdmin,
		Approved: true,
	}
}

// Authorize is the single decision point for every gate. A nil principal is anonymous.
//
//	LevelUser:      any account session (user or publisher); admins are not users.
//	LevelPublisher: an account session with role publisher and approval; other sessions are forbidden.
//	LevelAdmin:     an admin session.
func Authorize(p *Principal, need Level) error {
	switch need {
	case LevelAnonymous:
		return nil
	case LevelUser:
		if p == nil || p.Kind != KindAccount {
			return fail(KindUnauthenticated, "please login first")
		}
		return nil
	case LevelPublisher:
		if p == nil {
			return fail(KindUnauthenticated, "please login first")
		}
		if p.Kind != KindAccount || p.Role != models.RolePublisher || !p.Approved {
			return fail(KindForbidden, "publisher access required")
		}
		return nil
	case LevelAdmin:
		if p == nil || p.Kind != KindAdmin {
			return fail(KindUnauthenticated, "please login as admin")
		}
		return nil
	}
	return fail(KindForbidden, "access denied")
}

type principalKey struct{}

// WithPrincipal attaches a principal resolved outside the session (e.g. a bearer token).
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
