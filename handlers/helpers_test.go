package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	scsmem "github.com/alexedwards/scs/v2/memstore"
	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/store/memstore"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@intelliread.com"
	adminPassword = "admin-password"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (f *fakeObjects) Upload(_ context.Context, prefix, name string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := prefix + name
	f.objects[key] = data
	return key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) PresignedGetURL(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	return "https://files.example/" + key, nil
}

func (f *fakeObjects) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []auth.Notification
}

func (n *recordingNotifier) Send(_ context.Context, note auth.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) lastCode(to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == auth.NotifyOTPCode && n.sent[i].To == to {
			return n.sent[i].Data["code"]
		}
	}
	return ""
}

type env struct {
	t        *testing.T
	srv      *httptest.Server
	store    *memstore.Store
	objects  *fakeObjects
	notifier *recordingNotifier
}

type envOption func(*Router)

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memstore.New()
	objects := &fakeObjects{objects: map[string][]byte{}}
	notifier := &recordingNotifier{}

	sm := scs.New()
	sm.Store = scsmem.New()
	dispatch := auth.NewDispatcher(notifier, log)
	hasher := auth.NewHasher(auth.MinCost, 4)
	creds := auth.NewCredentials(st, st, st, hasher, dispatch, log)
	ledger := auth.NewLedger(st, st, st, creds, hasher, dispatch, log)
	approvals := auth.NewApprovals(st, dispatch, log)
	gate := auth.NewGate(sm, log)
	tokens := auth.NewTokens("test-secret", time.Hour)

	_, err := creds.SeedAdmin(context.Background(), "admin", adminEmail, adminPassword)
	require.NoError(t, err)

	rt := &Router{
		Auth:      &AuthHandler{Creds: creds, Gate: gate, Tokens: tokens, Log: log},
		OTP:       &OTPHandler{Ledger: ledger},
		Books:     &BooksHandler{Catalog: st, Objects: objects, Log: log},
		Publisher: &PublisherHandler{Gate: gate, Catalog: st, Objects: objects, MaxBytes: 1 << 20, Log: log},
		Admin: &AdminHandler{
			Gate: gate, Approvals: approvals, Creds: creds,
			Catalog: st, Dashboard: st, Objects: objects, Log: log,
		},
		Gate:   gate,
		Tokens: tokens,
		Health: st.Ping,
	}
	for _, o := range opts {
		o(rt)
	}
	srv := httptest.NewServer(rt.Handler())
	t.Cleanup(func() {
		srv.Close()
		dispatch.Wait()
	})
	return &env{t: t, srv: srv, store: st, objects: objects, notifier: notifier}
}

// client returns a browser-like client that keeps its session cookie.
func (e *env) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &http.Client{Jar: jar}
}

type reply struct {
	status int
	body   map[string]any
}

func (r reply) str(key string) string {
	s, _ := r.body[key].(string)
	return s
}

func (r reply) obj(key string) map[string]any {
	m, _ := r.body[key].(map[string]any)
	return m
}

func (e *env) send(c *http.Client, req *http.Request) reply {
	e.t.Helper()
	resp, err := c.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	out := reply{status: resp.StatusCode, body: map[string]any{}}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (e *env) do(c *http.Client, method, path string, body any) reply {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(c, req)
}

func (e *env) upload(c *http.Client, method, path string, fields map[string]string, filename string, data []byte) reply {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.send(c, req)
}

// signup registers an account and returns a client holding its session, if it got one.
func (e *env) signup(name, email, password, role string) (*http.Client, reply) {
	e.t.Helper()
	c := e.client()
	r := e.do(c, http.MethodPost, "/api/signup", SignupRequest{FullName: name, Email: email, Password: password, Role: role})
	require.Equal(e.t, http.StatusCreated, r.status, r.body)
	return c, r
}

func (e *env) login(c *http.Client, email, password string) reply {
	e.t.Helper()
	return e.do(c, http.MethodPost, "/api/login", LoginRequest{Email: email, Password: password})
}

func (e *env) admin() *http.Client {
	e.t.Helper()
	c := e.client()
	r := e.do(c, http.MethodPost, "/api/admin/login", LoginRequest{Email: adminEmail, Password: adminPassword})
	require.Equal(e.t, http.StatusOK, r.status, r.body)
	return c
}

// approvedPublisher signs a publisher up, has the admin approve it and logs it in.
func (e *env) approvedPublisher(email string) (*http.Client, string) {
	e.t.Helper()
	_, r := e.signup("Pub "+email, email, "publisher-pass", models.RolePublisher)
	id := r.obj("user")["id"].(string)
	approved := e.do(e.admin(), http.MethodPost, "/api/admin/publishers/"+id+"/approve", nil)
	require.Equal(e.t, http.StatusOK, approved.status, approved.body)
	c := e.client()
	require.Equal(e.t, http.StatusOK, e.login(c, email, "publisher-pass").status)
	return c, id
}

func (e *env) createBook(c *http.Client, title, author string) string {
	e.t.Helper()
	r := e.do(c, http.MethodPost, "/api/publisher/books", BookInput{Title: title, Author: author})
	require.Equal(e.t, http.StatusCreated, r.status, r.body)
	return r.obj("book")["id"].(string)
}

func (e *env) setBookStatus(id, status string) {
	e.t.Helper()
	r := e.do(e.admin(), http.MethodPut, "/api/admin/books/"+id, BookStatusRequest{Status: status})
	require.Equal(e.t, http.StatusOK, r.status, r.body)
}

func kindOf(r reply) string {
	return r.str("kind")
}
