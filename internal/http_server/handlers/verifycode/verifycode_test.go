package verifycode_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"account_service/internal/auth"
	"account_service/internal/http_server/handlers/verifycode"
	"account_service/internal/models"
	"account_service/internal/storage"
	"account_service/internal/verification"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	mu             sync.Mutex
	users          map[string]models.User
	refreshedSaved int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (f *fakeUserStore) SaveUser(_ context.Context, name, email string, passHash []byte, role string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[email]; ok {
		return 0, storage.ErrUserExists
	}

	id := int64(len(f.users) + 1)
	f.users[email] = models.User{ID: id, Name: name, Email: email, PassHash: passHash, Role: role}

	return id, nil
}

func (f *fakeUserStore) SaveRefreshToken(context.Context, int64, []byte, time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refreshedSaved++

	return nil
}

func (f *fakeUserStore) UpdateRefreshToken(context.Context, int64, []byte, []byte, time.Time) error {
	return nil
}

func (f *fakeUserStore) DeleteRefreshToken(context.Context, []byte) error {
	return nil
}

func (f *fakeUserStore) User(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeUserStore) UserByID(context.Context, int64) (models.User, error) {
	return models.User{}, storage.ErrUserNotFound
}

func (f *fakeUserStore) GetRefreshToken(context.Context, string) (models.RefreshToken, error) {
	return models.RefreshToken{}, storage.ErrRefreshTokenNotFound
}

type fixture struct {
	handler http.HandlerFunc
	auth    *auth.Auth
	store   *fakeUserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeUserStore()

	verifier := verification.New(log, verification.NewMemoryStore(), 10*time.Minute, time.Minute, 5)
	authService := auth.New(log, store, store, verifier, "secret", time.Hour, 168*time.Hour)

	return &fixture{
		handler: verifycode.New(log, validator.New(), authService, time.Hour, 168*time.Hour),
		auth:    authService,
		store:   store,
	}
}

func (f *fixture) signUp(t *testing.T, email string) string {
	t.Helper()

	code, err := f.auth.SignUp(context.Background(), "Alice", email, "password123")
	require.NoError(t, err)

	return code
}

func (f *fixture) post(t *testing.T, email, code string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"email": email, "code": code})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/verify-code", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	f.handler.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func cookieNames(rec *httptest.ResponseRecorder) []string {
	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	return names
}

func TestVerifyCodeCreatesUserAndSetsCookies(t *testing.T) {
	f := newFixture(t)
	code := f.signUp(t, "alice@example.com")

	rec := f.post(t, "alice@example.com", code)

	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice", user["name"])

	assert.ElementsMatch(t, []string{"access_token", "refresh_token"}, cookieNames(rec))

	for _, c := range rec.Result().Cookies() {
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}

	// promoted into the user store
	_, err := f.store.User(context.Background(), "alice@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 1, f.store.refreshedSaved)
}

func TestVerifyCodeNoPending(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "nobody@example.com", "deadbeef")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_VERIFICATION_PENDING", decode(t, rec)["code"])
}

func TestVerifyCodeInvalidCode(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "alice@example.com")

	rec := f.post(t, "alice@example.com", "00000000")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CODE", decode(t, rec)["code"])
}

func TestVerifyCodeTooManyAttempts(t *testing.T) {
	f := newFixture(t)
	code := f.signUp(t, "alice@example.com")

	for i := 0; i < 5; i++ {
		rec := f.post(t, "alice@example.com", "00000000")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := f.post(t, "alice@example.com", code)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_ATTEMPTS", decode(t, rec)["code"])
}

func TestVerifyCodeRejectsMalformedCode(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "alice@example.com")

	// wrong length
	rec := f.post(t, "alice@example.com", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// right length, not hex
	rec = f.post(t, "alice@example.com", "zzzzzzzz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	f := newFixture(t)
	code := f.signUp(t, "alice@example.com")

	rec := f.post(t, "alice@example.com", code)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.post(t, "alice@example.com", code)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_VERIFICATION_PENDING", decode(t, rec)["code"])
}
