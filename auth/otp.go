package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/intelliread/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// OTPLifetime is how long an issued code stays usable.
	OTPLifetime = 10 * time.Minute
	// MinPasswordLength applies to passwords set through a reset, counted in characters.
	MinPasswordLength = 8

	otpDigits = 4
)

// Ledger issues, verifies and consumes password-reset codes.
//
// Per email: NONE -> ISSUED -> VERIFIED -> NONE on reset, or
// ISSUED/VERIFIED -> EXPIRED -> NONE when an expired entry is read.
// Expired entries are removed lazily; nothing runs in the background.
type Ledger struct {
	otps     OTPStore
	accounts AccountStore
	admins   AdminStore
	creds    *Credentials
	hasher   *Hasher
	notify   *Dispatcher
	log      *slog.Logger

	TTL  time.Duration
	Now  func() time.Time
	Rand io.Reader
}

func NewLedger(otps OTPStore, accounts AccountStore, admins AdminStore, creds *Credentials, hasher *Hasher, notify *Dispatcher, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		otps:     otps,
		accounts: accounts,
		admins:   admins,
		creds:    creds,
		hasher:   hasher,
		notify:   notify,
		log:      log,
		TTL:      OTPLifetime,
		Now:      time.Now,
		Rand:     rand.Reader,
	}
}

// Issue creates a fresh code for email, replacing any earlier one, and emails it.
// Unlike registration, a delivery failure fails the call: the email is the only
// channel the code reaches the user through.
func (l *Ledger) Issue(ctx context.Context, email string) error {
	return l.issue(ctx, "otp_issue", email)
}

// Resend behaves exactly like Issue; it exists so the two show up separately in audit and metrics.
func (l *Ledger) Resend(ctx context.Context, email string) error {
	return l.issue(ctx, "otp_resend", email)
}

func (l *Ledger) issue(ctx context.Context, op, email string) (err error) {
	defer func() { observe(op, err) }()

	email = NormalizeEmail(email)
	if email == "" {
		return fail(KindValidation, "email is required")
	}
	ownerType, ownerID, err := l.owner(ctx, email)
	if err != nil {
		return err
	}
	code, err := l.newCode()
	if err != nil {
		return err
	}
	now := l.Now()
	entry := &models.OTPEntry{
		Email:     email,
		IssueID:   uuid.NewString(),
		Code:      code,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		ExpiresAt: now.Add(l.TTL),
		CreatedAt: now,
	}
	if err := l.otps.PutOTP(ctx, entry); err != nil {
		return storeErr("put otp", err)
	}

	err = l.notify.Send(ctx, Notification{
		To:   email,
		Kind: NotifyOTPCode,
		Data: map[string]string{"code": code, "minutes": strconv.Itoa(int(l.TTL / time.Minute))},
	})
	if err != nil {
		return &Error{Kind: KindNotification, Message: "failed to send verification code, please try again", Err: err}
	}
	l.log.InfoContext(ctx, "otp issued", "email", email, "op", op, "owner", ownerType)
	return nil
}

// Verify checks code against the live entry and marks it verified. It returns the owner type.
// A mismatch keeps the entry so the user can retry within the lifetime.
func (l *Ledger) Verify(ctx context.Context, email, code string) (ownerType string, err error) {
	defer func() { observe("otp_verify", err) }()

	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return "", fail(KindValidation, "email and code are required")
	}
	entry, err := l.live(ctx, email)
	if err != nil {
		return "", err
	}
	if !sameCode(entry.Code, code) {
		return "", fail(KindOTPMismatch, "invalid verification code")
	}
	ok, err := l.otps.MarkOTPVerified(ctx, email, entry.IssueID)
	if err != nil {
		return "", storeErr("mark otp verified", err)
	}
	if !ok {
		// replaced by a newer issue between read and update
		return "", fail(KindOTPMismatch, "invalid verification code")
	}
	return entry.OwnerType, nil
}

// ResetPassword sets a new password for the owner of a verified code. The same code
// must be resubmitted, so a verified flag left over from an earlier issue is useless.
// The entry is consumed before the password is written, which makes the code single use
// even under concurrent resets.
func (l *Ledger) ResetPassword(ctx context.Context, email, code, newPassword string) (err error) {
	defer func() { observe("otp_reset", err) }()

	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return fail(KindWeakPassword, "password must be at least 8 characters")
	}
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return fail(KindValidation, "email and code are required")
	}
	entry, err := l.live(ctx, email)
	if err != nil {
		return err
	}
	if !entry.Verified || !sameCode(entry.Code, code) {
		return fail(KindOTPNotVerified, "verification code has not been verified")
	}

	hash, err := l.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	consumed, err := l.otps.DeleteOTP(ctx, email, entry.IssueID)
	if err != nil {
		return storeErr("consume otp", err)
	}
	if !consumed {
		return fail(KindOTPNotVerified, "verification code has not been verified")
	}
	if err := l.creds.SetPassword(ctx, entry.OwnerID, entry.OwnerType, hash); err != nil {
		return err
	}
	l.log.InfoContext(ctx, "password reset", "email", email, "owner", entry.OwnerType)
	return nil
}

// live returns the unexpired entry for email, deleting it if it has expired.
func (l *Ledger) live(ctx context.Context, email string) (*models.OTPEntry, error) {
	entry, err := l.otps.OTPByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("lookup otp", err)
	}
	if entry == nil {
		return nil, fail(KindOTPNotFound, "no verification code found, please request a new one")
	}
	if entry.Expired(l.Now()) {
		if _, err := l.otps.DeleteOTP(ctx, email, entry.IssueID); err != nil {
			l.log.WarnContext(ctx, "delete expired otp", "email", email, "err", err)
		}
		return nil, fail(KindOTPExpired, "verification code has expired, please request a new one")
	}
	return entry, nil
}

// owner resolves which record a reset for email would change. Accounts win over admins.
func (l *Ledger) owner(ctx context.Context, email string) (string, primitive.ObjectID, error) {
	acct, err := l.accounts.AccountByEmail(ctx, email)
	if err != nil {
		return "", primitive.NilObjectID, storeErr("lookup account", err)
	}
	if acct != nil {
		return models.OwnerUser, acct.ID, nil
	}
	admin, err := l.admins.AdminByEmail(ctx, email)
	if err != nil {
		return "", primitive.NilObjectID, storeErr("lookup admin", err)
	}
	if admin != nil {
		return models.OwnerAdmin, admin.ID, nil
	}
	return "", primitive.NilObjectID, fail(KindAccountNotFound, "no account found with this email")
}

// newCode draws each digit independently.
func (l *Ledger) newCode() (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < otpDigits; i++ {
		n, err := rand.Int(l.Rand, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func sameCode(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
