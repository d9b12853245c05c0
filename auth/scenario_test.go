package auth

import (
	"context"
	"testing"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/stretchr/testify/require"
)

func TestScenario_PublisherApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)

	pub := f.register(t, "Pub", "pub@x.com", "pub-secret", models.RolePublisher)
	_, err := f.creds.Authenticate(ctx, "pub@x.com", "pub-secret", Client{})
	require.ErrorIs(t, err, ErrPublisherNotApproved)

	_, err = f.approvals.Decide(ctx, admin, pub.ID.Hex(), true)
	require.NoError(t, err)

	acct, err := f.creds.Authenticate(ctx, "pub@x.com", "pub-secret", Client{})
	require.NoError(t, err)
	p := AccountPrincipal(acct)
	require.NoError(t, Authorize(&p, LevelPublisher))
}

func TestScenario_OTPPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "A", "a@b.com", "old-password", models.RoleUser)

	require.NoError(t, f.ledger.Issue(ctx, "a@b.com"))
	code := f.issuedCode(t)

	_, err := f.ledger.Verify(ctx, "a@b.com", otherCode(code))
	require.ErrorIs(t, err, ErrOTPMismatch)

	owner, err := f.ledger.Verify(ctx, "a@b.com", code)
	require.NoError(t, err)
	require.Equal(t, models.OwnerUser, owner)

	require.NoError(t, f.ledger.ResetPassword(ctx, "a@b.com", code, "ninechars"))

	_, err = f.creds.Authenticate(ctx, "a@b.com", "old-password", Client{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.creds.Authenticate(ctx, "a@b.com", "ninechars", Client{})
	require.NoError(t, err)
}

func TestScenario_OTPExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "A", "a@b.com", "old-password", models.RoleUser)

	require.NoError(t, f.ledger.Issue(ctx, "a@b.com"))
	f.clock.Advance(10*time.Minute + time.Second)

	_, err := f.ledger.Verify(ctx, "a@b.com", f.issuedCode(t))
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestScenario_DuplicateRegistration(t *testing.T) {
	f := newFixture(t)

	f.register(t, "A", "A@x.com", "secret", models.RoleUser)
	_, err := f.creds.Register(context.Background(), "A", "a@x.com", "secret", models.RoleUser)

	require.ErrorIs(t, err, ErrDuplicateAccount)
}
