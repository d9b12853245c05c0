package auth

import (
	"context"
	"testing"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecide_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub := f.register(t, "Press", "press@x.com", "secret", models.RolePublisher)
	user := f.register(t, "Reader", "reader@x.com", "secret", models.RoleUser)
	userP := AccountPrincipal(user)

	_, err := f.approvals.Decide(ctx, nil, pub.ID.Hex(), true)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.approvals.Decide(ctx, &userP, pub.ID.Hex(), true)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	stored, err := f.store.AccountByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsApproved)
}

func TestDecide_TargetMustBePublisher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	user := f.register(t, "Reader", "reader@x.com", "secret", models.RoleUser)

	for _, id := range []string{user.ID.Hex(), primitive.NewObjectID().Hex(), "garbage"} {
		_, err := f.approvals.Decide(ctx, admin, id, false)
		assert.ErrorIs(t, err, ErrAccountNotFound, id)
	}
	_, err := f.store.AccountByID(ctx, user.ID)
	require.NoError(t, err)
}

func TestDecide_Approve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	pub := f.register(t, "Press", "press@x.com", "secret", models.RolePublisher)

	d, err := f.approvals.Decide(ctx, admin, pub.ID.Hex(), true)
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, d.State)
	assert.True(t, d.Account.IsApproved)

	// repeating an approval is harmless
	_, err = f.approvals.Decide(ctx, admin, pub.ID.Hex(), true)
	require.NoError(t, err)

	f.dispatch.Wait()
	n, ok := f.notifier.last(NotifyApprovalResult)
	require.True(t, ok)
	assert.Equal(t, "press@x.com", n.To)
	assert.Equal(t, "true", n.Data["approved"])
}

func TestDecide_RejectDeletesAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	pub := f.register(t, "Press", "press@x.com", "secret", models.RolePublisher)

	d, err := f.approvals.Decide(ctx, admin, pub.ID.Hex(), false)
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, d.State)
	assert.Equal(t, "press@x.com", d.Account.Email)

	_, err = f.creds.Authenticate(ctx, "press@x.com", "secret", Client{})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	f.dispatch.Wait()
	n, ok := f.notifier.last(NotifyApprovalResult)
	require.True(t, ok)
	assert.Equal(t, "press@x.com", n.To)
	assert.Equal(t, "Press", n.Data["name"])
	assert.Equal(t, "false", n.Data["approved"])
}

func TestDecide_RejectApprovedRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	pub := f.register(t, "Press", "press@x.com", "secret", models.RolePublisher)
	_, err := f.approvals.Decide(ctx, admin, pub.ID.Hex(), true)
	require.NoError(t, err)

	_, err = f.approvals.Decide(ctx, admin, pub.ID.Hex(), false)

	require.ErrorIs(t, err, ErrValidation)
	_, err = f.creds.Authenticate(ctx, "press@x.com", "secret", Client{})
	assert.NoError(t, err)
}

func TestDecide_NotificationFailureKeepsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	pub := f.register(t, "Press", "press@x.com", "secret", models.RolePublisher)
	f.dispatch.Wait()
	f.notifier.err = assert.AnError

	_, err := f.approvals.Decide(ctx, admin, pub.ID.Hex(), true)
	f.dispatch.Wait()

	require.NoError(t, err)
	stored, err := f.store.AccountByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	f.register(t, "Reader", "reader@x.com", "secret", models.RoleUser)
	pub := f.register(t, "Press", "press@x.com", "secret", models.RolePublisher)

	list, err := f.approvals.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pub.ID, list[0].ID)

	_, err = f.approvals.Decide(ctx, admin, pub.ID.Hex(), true)
	require.NoError(t, err)
	list, err = f.approvals.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.approvals.ListPending(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
