package login_test

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
	"account_service/internal/http_server/handlers/login"
	"account_service/internal/models"
	"account_service/internal/storage"
	"account_service/internal/verification"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	mu          sync.Mutex
	users       map[string]models.User
	lookupCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (f *fakeUserStore) seed(t *testing.T, email, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[email] = models.User{
		ID:       int64(len(f.users) + 1),
		Name:     "Alice",
		Email:    email,
		PassHash: hash,
		Role:     "member",
	}
}

func (f *fakeUserStore) SaveUser(context.Context, string, string, []byte, string) (int64, error) {
	return 0, storage.ErrUserExists
}

func (f *fakeUserStore) SaveRefreshToken(context.Context, int64, []byte, time.Time) error {
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

	f.lookupCalls++

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

func newHandler(t *testing.T, store *fakeUserStore) http.HandlerFunc {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	verifier := verification.New(log, verification.NewMemoryStore(), 10*time.Minute, time.Minute, 5)
	authService := auth.New(log, store, store, verifier, "secret", time.Hour, 168*time.Hour)

	return login.New(log, validator.New(), authService, time.Hour, 168*time.Hour)
}

func post(t *testing.T, handler http.HandlerFunc, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	return rec
}

func TestLoginSuccessSetsCookies(t *testing.T) {
	store := newFakeUserStore()
	store.seed(t, "a@b.com", "password123")
	handler := newHandler(t, store)

	rec := post(t, handler, map[string]string{"email": "a@b.com", "password": "password123"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@b.com", body.User.Email)

	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
	assert.ElementsMatch(t, []string{"access_token", "refresh_token"}, names)
}

func TestLoginShortPasswordRejectedBeforeLookup(t *testing.T) {
	store := newFakeUserStore()
	store.seed(t, "a@b.com", "password123")
	handler := newHandler(t, store)

	rec := post(t, handler, map[string]string{"email": "a@b.com", "password": "short"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, store.lookupCalls)
}

func TestLoginUnknownUser(t *testing.T) {
	handler := newHandler(t, newFakeUserStore())

	rec := post(t, handler, map[string]string{"email": "nobody@b.com", "password": "password123"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	store.seed(t, "a@b.com", "password123")
	handler := newHandler(t, store)

	rec := post(t, handler, map[string]string{"email": "a@b.com", "password": "password124"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
