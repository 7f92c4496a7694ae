package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/raycity/authserver/internal/services"
	"github.com/raycity/authserver/internal/store"
	"github.com/raycity/authserver/internal/token"
	"github.com/raycity/authserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory CredentialStore for handler tests.
type memStore struct {
	users []types.User
}

func (m *memStore) Exists(ctx context.Context, username string) (bool, error) {
	_, err := m.Find(ctx, username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memStore) Insert(ctx context.Context, username, passwordHash string) (types.User, error) {
	user := types.User{
		ID:           "id-" + strconv.Itoa(len(m.users)+1),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users = append(m.users, user)
	return user, nil
}

func (m *memStore) Find(ctx context.Context, username string) (types.User, error) {
	username = strings.TrimSpace(username)
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memStore) ListAll(ctx context.Context) ([]types.UserSummary, error) {
	summaries := []types.UserSummary{}
	for _, u := range m.users {
		summaries = append(summaries, types.UserSummary{Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return summaries, nil
}

func (m *memStore) Init(ctx context.Context) error  { return nil }
func (m *memStore) Close(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	issuer := token.NewIssuer("test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService := services.NewAuthService(&memStore{}, issuer, logger)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, issuer, false)
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func registerAndLogin(t *testing.T, router http.Handler, username, pass string) *http.Cookie {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: username, Password: pass})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", CredentialsRequest{Username: username, Password: pass})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == token.CookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: "alice", Password: "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "User created", resp.Message)
	assert.Nil(t, resp.User)
}

func TestRegisterMissingFields(t *testing.T) {
	router := newTestRouter(t)

	for _, req := range []CredentialsRequest{
		{Username: "", Password: "pw123"},
		{Username: "alice", Password: ""},
		{Username: "   ", Password: "pw123"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/auth/register", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, decodeResponse(t, rec).Success)
	}
}

func TestRegisterInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: "alice", Password: "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: "alice", Password: "otherpw"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already exists", decodeResponse(t, rec).Message)
}

func TestRegisterWrongMethod(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/register", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: "alice", Password: "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", CredentialsRequest{Username: "alice", Password: "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Logged in", resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, token.CookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(token.DefaultTTL/time.Second), cookie.MaxAge)
}

func TestLoginTrimsUsername(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: " alice ", Password: "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", CredentialsRequest{Username: "alice", Password: "pw123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: "alice", Password: "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	unknown := doJSON(t, router, http.MethodPost, "/auth/login", CredentialsRequest{Username: "nobody", Password: "pw123"})
	wrong := doJSON(t, router, http.MethodPost, "/auth/login", CredentialsRequest{Username: "alice", Password: "wrongpw"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestSessionCheck(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.User)

	cookie := registerAndLogin(t, router, "alice", "pw123")
	rec = doJSON(t, router, http.MethodGet, "/auth/session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestSessionCheckGarbageCookie(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/session", nil, &http.Cookie{Name: token.CookieName, Value: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
}

func TestUsersRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsersListingExcludesCredentials(t *testing.T) {
	router := newTestRouter(t)

	cookie := registerAndLogin(t, router, "alice", "pw123")
	rec := doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{Username: "bob", Password: "pw456"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/users", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	require.Len(t, resp.Users, 2)

	body := rec.Body.String()
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "credential")
	assert.NotContains(t, body, "pw123")
}

func TestLogoutClearsCookie(t *testing.T) {
	router := newTestRouter(t)

	cookie := registerAndLogin(t, router, "alice", "pw123")
	rec := doJSON(t, router, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, token.CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
