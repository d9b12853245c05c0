package auth

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Approvals drives the publisher state machine: PENDING -> APPROVED, or
// PENDING -> REJECTED, which deletes the account.
type Approvals struct {
	accounts AccountStore
	notify   *Dispatcher
	log      *slog.Logger
}

func NewApprovals(accounts AccountStore, notify *Dispatcher, log *slog.Logger) *Approvals {
	if log == nil {
		log = slog.Default()
	}
	return &Approvals{accounts: accounts, notify: notify, log: log}
}

// Decision is the outcome of Decide. Account is the record as it was left
// (or, for a rejection, as it was just before deletion).
type Decision struct {
	Account models.Account      `json:"publisher"`
	State   models.AccountState `json:"-"`
}

// Decide approves or rejects a publisher. Approving an already approved publisher
// is a no-op success. Rejecting one is refused; removing an approved publisher is
// an account deletion, not a decision. Books are never touched here.
func (a *Approvals) Decide(ctx context.Context, p *Principal, accountID string, approve bool) (d *Decision, err error) {
	op := "reject"
	if approve {
		op = "approve"
	}
	defer func() { observe(op, err) }()

	if err := Authorize(p, LevelAdmin); err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, fail(KindAccountNotFound, "publisher not found")
	}
	acct, err := a.accounts.AccountByID(ctx, id)
	if err != nil {
		return nil, storeErr("lookup publisher", err)
	}
	if acct == nil || acct.Role != models.RolePublisher {
		return nil, fail(KindAccountNotFound, "publisher not found")
	}

	if approve {
		ok, err := a.accounts.ApprovePublisher(ctx, id)
		if err != nil {
			return nil, storeErr("approve publisher", err)
		}
		if !ok {
			return nil, fail(KindAccountNotFound, "publisher not found")
		}
		acct.IsApproved = true
		a.notifyResult(ctx, acct, true)
		a.log.InfoContext(ctx, "publisher approved", "email", acct.Email, "by", p.Email)
		return &Decision{Account: *acct, State: models.StateApproved}, nil
	}

	if acct.IsApproved {
		return nil, fail(KindValidation, "publisher is already approved; delete the account instead")
	}
	deleted, err := a.accounts.DeleteAccount(ctx, id)
	if err != nil {
		return nil, storeErr("reject publisher", err)
	}
	if deleted == nil {
		return nil, fail(KindAccountNotFound, "publisher not found")
	}
	a.notifyResult(ctx, deleted, false)
	a.log.InfoContext(ctx, "publisher rejected", "email", deleted.Email, "by", p.Email)
	return &Decision{Account: *deleted, State: models.StateRejected}, nil
}

// ListPending returns publishers awaiting a decision, oldest first.
func (a *Approvals) ListPending(ctx context.Context, p *Principal) ([]models.Account, error) {
	if err := Authorize(p, LevelAdmin); err != nil {
		return nil, err
	}
	list, err := a.accounts.PendingPublishers(ctx)
	if err != nil {
		return nil, storeErr("list pending publishers", err)
	}
	if list == nil {
		list = []models.Account{}
	}
	return list, nil
}

func (a *Approvals) notifyResult(ctx context.Context, acct *models.Account, approved bool) {
	a.notify.Go(ctx, Notification{
		To:   acct.Email,
		Kind: NotifyApprovalResult,
		Data: map[string]string{"name": acct.FullName, "approved": strconv.FormatBool(approved)},
	})
}
