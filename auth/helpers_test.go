package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/store/memstore"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) last(kind NotificationKind) (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Kind == kind {
			return f.sent[i], true
		}
	}
	return Notification{}, false
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// brokenStore fails every account lookup as an unreachable database would.
type brokenStore struct {
	*memstore.Store
}

var errDown = errors.New("server selection timeout")

func (brokenStore) AccountByEmail(context.Context, string) (*models.Account, error) {
	return nil, errDown
}

type fixture struct {
	store     *memstore.Store
	notifier  *fakeNotifier
	clock     *fakeClock
	dispatch  *Dispatcher
	creds     *Credentials
	ledger    *Ledger
	approvals *Approvals
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	n := &fakeNotifier{}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	log := quietLogger()
	hasher := NewHasher(MinCost, 4)
	d := NewDispatcher(n, log)

	creds := NewCredentials(st, st, st, hasher, d, log)
	creds.Now = clock.Now
	ledger := NewLedger(st, st, st, creds, hasher, d, log)
	ledger.Now = clock.Now

	return &fixture{
		store:     st,
		notifier:  n,
		clock:     clock,
		dispatch:  d,
		creds:     creds,
		ledger:    ledger,
		approvals: NewApprovals(st, d, log),
	}
}

func (f *fixture) register(t *testing.T, name, email, password, role string) *models.Account {
	t.Helper()
	acct, err := f.creds.Register(context.Background(), name, email, password, role)
	require.NoError(t, err)
	return acct
}

func (f *fixture) seedAdmin(t *testing.T) *Principal {
	t.Helper()
	ctx := context.Background()
	created, err := f.creds.SeedAdmin(ctx, "root", "admin@x.com", "admin-pass")
	require.NoError(t, err)
	require.True(t, created)
	admin, err := f.creds.AuthenticateAdmin(ctx, "admin@x.com", "admin-pass", Client{})
	require.NoError(t, err)
	p := AdminPrincipal(admin)
	return &p
}

// issuedCode returns the code delivered by the most recent OTP notification.
func (f *fixture) issuedCode(t *testing.T) string {
	t.Helper()
	n, ok := f.notifier.last(NotifyOTPCode)
	require.True(t, ok, "no otp notification sent")
	return n.Data["code"]
}

// otherCode returns a 4-digit code different from code.
func otherCode(code string) string {
	if code == "0000" {
		return "1111"
	}
	return "0000"
}
