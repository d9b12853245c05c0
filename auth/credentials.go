package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases an address; every lookup goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Client identifies where a login attempt came from.
type Client struct {
	IP        string
	UserAgent string
}

// Credentials creates, authenticates and mutates account and admin records.
type Credentials struct {
	accounts AccountStore
	admins   AdminStore
	history  LoginHistorySink
	hasher   *Hasher
	notify   *Dispatcher
	log      *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewCredentials(accounts AccountStore, admins AdminStore, history LoginHistorySink, hasher *Hasher, notify *Dispatcher, log *slog.Logger) *Credentials {
	if log == nil {
		log = slog.Default()
	}
	return &Credentials{
		accounts: accounts,
		admins:   admins,
		history:  history,
		hasher:   hasher,
		notify:   notify,
		log:      log,
		Now:      time.Now,
	}
}

// Register creates a user or publisher account. Users are approved immediately,
// publishers start pending. The welcome or pending-approval email is sent in the
// background and its failure does not affect the result.
func (c *Credentials) Register(ctx context.Context, fullName, email, password, role string) (acct *models.Account, err error) {
	defer func() { observe("register", err) }()

	fullName = strings.TrimSpace(fullName)
	email = NormalizeEmail(email)
	role = strings.ToLower(strings.TrimSpace(role))
	if fullName == "" || email == "" || password == "" || role == "" {
		return nil, fail(KindValidation, "all fields are required")
	}
	if !slices.Contains(models.SignupRoles, role) {
		return nil, fail(KindValidation, "invalid role selected")
	}
	if !emailPattern.MatchString(email) {
		return nil, fail(KindValidation, "please enter a valid email address")
	}

	existing, err := c.accounts.AccountByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("lookup account", err)
	}
	if existing != nil {
		return nil, fail(KindDuplicateAccount, "user already exists with this email")
	}

	hash, err := c.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}
	acct = &models.Account{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsApproved:   role == models.RoleUser,
		CreatedAt:    c.Now(),
	}
	id, err := c.accounts.CreateAccount(ctx, acct)
	if errors.Is(err, store.ErrDuplicateKey) {
		// lost a race against a concurrent signup for the same email
		return nil, fail(KindDuplicateAccount, "user already exists with this email")
	}
	if err != nil {
		return nil, storeErr("create account", err)
	}
	acct.ID = id

	kind := NotifyWelcome
	if acct.State() == models.StatePending {
		kind = NotifyPendingApproval
	}
	c.notify.Go(ctx, Notification{
		To:   acct.Email,
		Kind: kind,
		Data: map[string]string{"name": acct.FullName, "role": acct.Role},
	})
	c.log.InfoContext(ctx, "account registered", "email", acct.Email, "role", acct.Role, "state", acct.State())
	return acct, nil
}

// Authenticate checks an account login. A pending publisher is refused before the
// password is compared. Every attempt is appended to the login history.
func (c *Credentials) Authenticate(ctx context.Context, email, password string, client Client) (acct *models.Account, err error) {
	defer func() { observe("login", err) }()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fail(KindValidation, "email and password are required")
	}
	acct, err = c.accounts.AccountByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("lookup account", err)
	}
	if acct == nil {
		c.record(ctx, nil, email, false, false, client)
		return nil, fail(KindAccountNotFound, "invalid email or password")
	}
	if acct.State() == models.StatePending {
		c.record(ctx, &acct.ID, email, false, false, client)
		return nil, fail(KindPublisherNotApproved, "your publisher account is awaiting admin approval")
	}
	ok, err := c.hasher.Compare(ctx, acct.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.record(ctx, &acct.ID, email, false, false, client)
		return nil, fail(KindInvalidCredentials, "invalid email or password")
	}

	now := c.Now()
	if err := c.accounts.TouchLastLogin(ctx, acct.ID, now); err != nil {
		return nil, storeErr("touch last login", err)
	}
	acct.LastLogin = &now
	c.record(ctx, &acct.ID, email, false, true, client)
	return acct, nil
}

// AuthenticateAdmin checks an admin login. Admins have no approval step.
func (c *Credentials) AuthenticateAdmin(ctx context.Context, email, password string, client Client) (admin *models.Admin, err error) {
	defer func() { observe("admin_login", err) }()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fail(KindValidation, "email and password are required")
	}
	admin, err = c.admins.AdminByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("lookup admin", err)
	}
	if admin == nil {
		c.record(ctx, nil, email, true, false, client)
		return nil, fail(KindAccountNotFound, "invalid admin credentials")
	}
	ok, err := c.hasher.Compare(ctx, admin.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.record(ctx, &admin.ID, email, true, false, client)
		return nil, fail(KindInvalidCredentials, "invalid admin credentials")
	}
	c.record(ctx, &admin.ID, email, true, true, client)
	return admin, nil
}

// SetPassword overwrites the stored hash. Only the OTP ledger calls it, after verification.
func (c *Credentials) SetPassword(ctx context.Context, ownerID primitive.ObjectID, ownerType, hash string) error {
	var err error
	switch ownerType {
	case models.OwnerUser:
		err = c.accounts.SetAccountPassword(ctx, ownerID, hash)
	case models.OwnerAdmin:
		err = c.admins.SetAdminPassword(ctx, ownerID, hash)
	default:
		return fail(KindValidation, "unknown account type")
	}
	if err != nil {
		return storeErr("set password", err)
	}
	return nil
}

// SeedAdmin creates the admin if no admin with that email exists. Reports whether it created one.
func (c *Credentials) SeedAdmin(ctx context.Context, username, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return false, fail(KindValidation, "admin email and password are required")
	}
	existing, err := c.admins.AdminByEmail(ctx, email)
	if err != nil {
		return false, storeErr("lookup admin", err)
	}
	if existing != nil {
		return false, nil
	}
	hash, err := c.hasher.Hash(ctx, password)
	if err != nil {
		return false, err
	}
	_, err = c.admins.CreateAdmin(ctx, &models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    c.Now(),
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("create admin", err)
	}
	return true, nil
}

// Account loads an account by its hex id.
func (c *Credentials) Account(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fail(KindAccountNotFound, "user not found")
	}
	acct, err := c.accounts.AccountByID(ctx, oid)
	if err != nil {
		return nil, storeErr("lookup account", err)
	}
	if acct == nil {
		return nil, fail(KindAccountNotFound, "user not found")
	}
	return acct, nil
}

// Delete removes an account permanently and returns the deleted record.
func (c *Credentials) Delete(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fail(KindAccountNotFound, "user not found")
	}
	acct, err := c.accounts.DeleteAccount(ctx, oid)
	if err != nil {
		return nil, storeErr("delete account", err)
	}
	if acct == nil {
		return nil, fail(KindAccountNotFound, "user not found")
	}
	c.log.InfoContext(ctx, "account deleted", "email", acct.Email, "role", acct.Role)
	return acct, nil
}

func (c *Credentials) record(ctx context.Context, id *primitive.ObjectID, email string, admin, success bool, client Client) {
	rec := &models.LoginRecord{
		UserID:    id,
		Email:     email,
		Admin:     admin,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		Timestamp: c.Now(),
		Success:   success,
	}
	if err := c.history.InsertLoginRecord(ctx, rec); err != nil {
		c.log.WarnContext(ctx, "login history write failed", "email", email, "err", err)
	}
}
