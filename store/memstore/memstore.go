// Package memstore is a process-local implementation of the store methods,
// used for local development (STORE_BACKEND=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu            sync.RWMutex
	accounts      map[primitive.ObjectID]models.Account
	admins        map[primitive.ObjectID]models.Admin
	otps          map[string]models.OTPEntry
	books         map[primitive.ObjectID]models.Book
	logins        []models.LoginRecord
	notifications []models.NotificationLog
}

func New() *Store {
	return &Store{
		accounts: make(map[primitive.ObjectID]models.Account),
		admins:   make(map[primitive.ObjectID]models.Admin),
		otps:     make(map[string]models.OTPEntry),
		books:    make(map[primitive.ObjectID]models.Book),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Accounts

func (s *Store) CreateAccount(_ context.Context, a *models.Account) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return primitive.NilObjectID, store.ErrDuplicateKey
		}
	}
	rec := *a
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	s.accounts[rec.ID] = rec
	return rec.ID, nil
}

func (s *Store) AccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Store) AccountByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		a.LastLogin = &at
		s.accounts[id] = a
	}
	return nil
}

func (s *Store) SetAccountPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		a.PasswordHash = hash
		s.accounts[id] = a
	}
	return nil
}

func (s *Store) ApprovePublisher(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.Role != models.RolePublisher {
		return false, nil
	}
	a.IsApproved = true
	s.accounts[id] = a
	return true, nil
}

func (s *Store) DeleteAccount(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	delete(s.accounts, id)
	return &a, nil
}

func (s *Store) PendingPublishers(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Account{}
	for _, a := range s.accounts {
		if a.Role == models.RolePublisher && !a.IsApproved {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListAccounts(_ context.Context, role string, page, limit int64) ([]models.Account, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := []models.Account{}
	for _, a := range s.accounts {
		if role == "" || a.Role == role {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

// Admins

func (s *Store) AdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateAdmin(_ context.Context, a *models.Admin) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Email == a.Email {
			return primitive.NilObjectID, store.ErrDuplicateKey
		}
	}
	rec := *a
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	s.admins[rec.ID] = rec
	return rec.ID, nil
}

func (s *Store) SetAdminPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.admins[id]; ok {
		a.PasswordHash = hash
		s.admins[id] = a
	}
	return nil
}

// OTPs

func (s *Store) PutOTP(_ context.Context, e *models.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[e.Email] = *e
	return nil
}

func (s *Store) OTPByEmail(_ context.Context, email string) (*models.OTPEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.otps[email]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) MarkOTPVerified(_ context.Context, email, issueID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.otps[email]
	if !ok || e.IssueID != issueID {
		return false, nil
	}
	e.Verified = true
	s.otps[email] = e
	return true, nil
}

func (s *Store) DeleteOTP(_ context.Context, email, issueID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.otps[email]
	if !ok || e.IssueID != issueID {
		return false, nil
	}
	delete(s.otps, email)
	return true, nil
}

// Audit trails

func (s *Store) InsertLoginRecord(_ context.Context, rec *models.LoginRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, *rec)
	return nil
}

// LoginRecords returns a copy of the login history.
func (s *Store) LoginRecords() []models.LoginRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LoginRecord(nil), s.logins...)
}

func (s *Store) InsertNotificationLog(_ context.Context, log *models.NotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *log)
	return nil
}

// NotificationLogs returns a copy of the notification log.
func (s *Store) NotificationLogs() []models.NotificationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.NotificationLog(nil), s.notifications...)
}

// Books

func (s *Store) InsertBook(_ context.Context, b *models.Book) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *b
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	s.books[rec.ID] = rec
	return rec.ID, nil
}

func matches(b models.Book, q models.BookQuery) bool {
	if q.Status != "" && b.Status != q.Status {
		return false
	}
	if q.Category != "" && b.Category != q.Category {
		return false
	}
	if !q.UploadedBy.IsZero() && b.UploadedBy != q.UploadedBy {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		hay := strings.ToLower(b.Title + "\x00" + b.Author + "\x00" + b.Description)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

func (s *Store) Books(_ context.Context, q models.BookQuery) ([]models.Book, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := []models.Book{}
	for _, b := range s.books {
		if matches(b, q) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, q.Page, q.Limit), int64(len(all)), nil
}

func (s *Store) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) DeleteBook(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, nil
	}
	delete(s.books, id)
	return &b, nil
}

func (s *Store) DeleteBooksByUploader(_ context.Context, uploader primitive.ObjectID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := []string{}
	for id, b := range s.books {
		if b.UploadedBy != uploader {
			continue
		}
		if b.S3Key != "" {
			keys = append(keys, b.S3Key)
		}
		delete(s.books, id)
	}
	return keys, nil
}

func (s *Store) UpdateBook(_ context.Context, id primitive.ObjectID, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil
	}
	rec := *book
	rec.ID = id
	rec.UploadedBy = b.UploadedBy
	rec.CreatedAt = b.CreatedAt
	rec.ReadCount = b.ReadCount
	rec.DownloadCount = b.DownloadCount
	s.books[id] = rec
	return nil
}

func (s *Store) SetBookStatus(_ context.Context, id primitive.ObjectID, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return false, nil
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	s.books[id] = b
	return true, nil
}

func (s *Store) BumpBookCounter(_ context.Context, id primitive.ObjectID, counter models.BookCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil
	}
	switch counter {
	case models.CounterRead:
		b.ReadCount++
	case models.CounterDownload:
		b.DownloadCount++
	}
	s.books[id] = b
	return nil
}

func (s *Store) PublisherStats(_ context.Context, uploader primitive.ObjectID) (*models.PublisherStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &models.PublisherStats{}
	for _, b := range s.books {
		if b.UploadedBy != uploader {
			continue
		}
		st.TotalBooks++
		switch b.Status {
		case models.BookPending:
			st.PendingBooks++
		case models.BookApproved:
			st.ApprovedBooks++
		}
		st.TotalDownloads += b.DownloadCount
		st.TotalReads += b.ReadCount
	}
	return st, nil
}

func (s *Store) Summary(_ context.Context, activeSince time.Time) (*models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := &models.Summary{TotalUsers: int64(len(s.accounts)), TotalBooks: int64(len(s.books))}
	for _, a := range s.accounts {
		if a.Role == models.RolePublisher {
			sum.TotalPublishers++
			if !a.IsApproved {
				sum.PendingPublishers++
			}
		}
		if a.LastLogin != nil && !a.LastLogin.Before(activeSince) {
			sum.ActiveUsers++
		}
	}
	for _, b := range s.books {
		switch b.Status {
		case models.BookPending:
			sum.PendingBooks++
		case models.BookApproved:
			sum.ApprovedBooks++
		}
	}
	return sum, nil
}

func paginate[T any](all []T, page, limit int64) []T {
	if limit <= 0 {
		return all
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= int64(len(all)) {
		return []T{}
	}
	end := start + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end]
}
