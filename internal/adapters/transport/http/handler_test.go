package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/streamhive/user-service/internal/adapters/transport/http"
	"github.com/streamhive/user-service/internal/app/token"
	"github.com/streamhive/user-service/internal/app/upload"
	userapp "github.com/streamhive/user-service/internal/app/user"
	"github.com/streamhive/user-service/internal/app/validation"
	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
	"github.com/streamhive/user-service/internal/domain/user/repo"
	"github.com/streamhive/user-service/internal/infra/config"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[uuid.UUID]model.User)}
}

func (s *userRepoStub) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return model.User{}, apperr.New(apperr.Conflict, "username or email already exists")
		}
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *userRepoStub) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, apperr.New(apperr.NotFound, "user not found")
	}
	return u, nil
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperr.New(apperr.NotFound, "user not found")
}

func (s *userRepoStub) GetByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, apperr.New(apperr.NotFound, "user not found")
}

func (s *userRepoStub) Update(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	// Profile write only: the session slot belongs to the token methods.
	u.RefreshToken = cur.RefreshToken
	s.users[u.ID] = u
	return nil
}

func (s *userRepoStub) List(_ context.Context, _ repo.ListQuery) ([]model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (s *userRepoStub) SetRefreshToken(_ context.Context, id uuid.UUID, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	u.RefreshToken = tok
	s.users[id] = u
	return nil
}

func (s *userRepoStub) RotateRefreshToken(_ context.Context, id uuid.UUID, old, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.RefreshToken != old {
		return apperr.New(apperr.TokenExpired, "refresh token is stale")
	}
	u.RefreshToken = next
	s.users[id] = u
	return nil
}

func (s *userRepoStub) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	return s.SetRefreshToken(context.Background(), id, "")
}

func (s *userRepoStub) setRole(id uuid.UUID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Role = role
	s.users[id] = u
}

func (s *userRepoStub) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

type subRepoStub struct{ edges map[[2]uuid.UUID]bool }

func (s *subRepoStub) CountSubscribers(_ context.Context, channelID uuid.UUID) (int64, error) {
	var n int64
	for k := range s.edges {
		if k[1] == channelID {
			n++
		}
	}
	return n, nil
}

func (s *subRepoStub) CountSubscribedTo(_ context.Context, subscriberID uuid.UUID) (int64, error) {
	var n int64
	for k := range s.edges {
		if k[0] == subscriberID {
			n++
		}
	}
	return n, nil
}

func (s *subRepoStub) IsSubscribed(_ context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	return s.edges[[2]uuid.UUID{subscriberID, channelID}], nil
}

/* ─────────────────────────────── fixture ─────────────────────────────── */

type fixture struct {
	router *gin.Engine
	users  *userRepoStub
	subs   *subRepoStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:        "development",
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		Issuer:             "test",
		ArgonMemoryKiB:     16 * 1024,
		ArgonIterations:    1,
	}

	users := newUserRepoStub()
	subs := &subRepoStub{edges: make(map[[2]uuid.UUID]bool)}
	tokens := token.New(users, cfg)
	svc := userapp.New(users, subs, tokens, nil, validation.New(), cfg)
	uploads := upload.New(nil)

	h := httptransport.NewHandler(svc, uploads, tokens, users, zap.NewNop(), cfg)
	router := gin.New()
	h.Mount(router)

	return &fixture{router: router, users: users, subs: subs}
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func registerBody() gin.H {
	return gin.H{
		"username": "jane_doe",
		"email":    "jane@example.com",
		"fullName": "Jane Doe",
		"password": "Str0ng!pass",
		"avatar":   "https://cdn.example.com/a.png",
	}
}

func (f *fixture) login(t *testing.T) (accessToken, refreshToken string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/users/login", gin.H{
		"email": "jane@example.com", "password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.AccessToken, resp.Data.RefreshToken
}

func accessCookie(v string) *http.Cookie  { return &http.Cookie{Name: "accessToken", Value: v} }
func refreshCookie(v string) *http.Cookie { return &http.Cookie{Name: "refreshToken", Value: v} }

/* ──────────────────────────────── tests ──────────────────────────────── */

func TestRegister_CreatedAndSanitized(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotContains(t, w.Body.String(), "Str0ng!pass")
	require.NotContains(t, w.Body.String(), "password")
	require.NotContains(t, w.Body.String(), "refreshToken")

	// Same username again: conflict, nothing created.
	w = f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	require.Equal(t, http.StatusConflict, w.Code)
	require.Len(t, f.users.users, 1)
}

func TestRegister_ValidationEnvelope(t *testing.T) {
	f := newFixture(t)

	body := registerBody()
	body["password"] = "NoDigits!here"
	body["username"] = "UPPER"

	w := f.do(t, http.MethodPost, "/api/v1/users/register", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool                `json:"success"`
		Errors  map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Contains(t, resp.Errors, "password")
	require.Len(t, f.users.users, 0)
}

func TestLogin_SetsHTTPOnlyCookies(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())

	w := f.do(t, http.MethodPost, "/api/v1/users/login", gin.H{
		"username": "jane_doe", "password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	byName := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		byName[c.Name] = c
	}
	for _, name := range []string{"accessToken", "refreshToken"} {
		c, ok := byName[name]
		require.True(t, ok, "missing %s cookie", name)
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.NotEmpty(t, c.Value)
	}
}

func TestGetUser_CookieAndBearer(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	w := f.do(t, http.MethodGet, "/api/v1/users/get-user", nil, accessCookie(access))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "jane_doe")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/get-user", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/get-user", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUser_DeletedAccount(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	u, err := f.users.GetByUsername(context.Background(), "jane_doe")
	require.NoError(t, err)
	f.users.remove(u.ID)

	// The token still verifies, but hydration must reject the ghost.
	w := f.do(t, http.MethodGet, "/api/v1/users/get-user", nil, accessCookie(access))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshToken_RotatesAndRejectsReplay(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	_, refresh := f.login(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, refreshCookie(refresh))
	require.Equal(t, http.StatusOK, w.Code)

	// Replaying the rotated-away token must fail.
	w = f.do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, refreshCookie(refresh))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Works via request body too.
	_, refresh2 := f.login(t)
	w = f.do(t, http.MethodPost, "/api/v1/users/refresh-token", gin.H{"refreshToken": refresh2})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/refresh-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, refresh := f.login(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/logout", nil, accessCookie(access))
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		require.Empty(t, c.Value, "cookie %s must be cleared", c.Name)
	}

	w = f.do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, refreshCookie(refresh))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChannelProfile(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	u, err := f.users.GetByUsername(context.Background(), "jane_doe")
	require.NoError(t, err)
	f.subs.edges[[2]uuid.UUID{u.ID, u.ID}] = true // self-subscribed, 1 edge

	w := f.do(t, http.MethodGet, "/api/v1/users/channel/jane_doe", nil, accessCookie(access))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data model.ChannelProfile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Data.SubscribersCount)
	require.True(t, resp.Data.IsSubscribed)

	w = f.do(t, http.MethodGet, "/api/v1/users/channel/nobody", nil, accessCookie(access))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers_RoleGate(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	w := f.do(t, http.MethodGet, "/api/v1/users/users", nil, accessCookie(access))
	require.Equal(t, http.StatusForbidden, w.Code)

	// Promote and re-login so the new role lands in the claims.
	u, err := f.users.GetByUsername(context.Background(), "jane_doe")
	require.NoError(t, err)
	f.users.setRole(u.ID, "admin")
	adminAccess, _ := f.login(t)

	w = f.do(t, http.MethodGet, "/api/v1/users/users", nil, accessCookie(adminAccess))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestChangePassword_WrongOld(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/change-password", gin.H{
		"oldPassword":     "Wr0ng!pass1",
		"newPassword":     "N3w!password",
		"confirmPassword": "N3w!password",
	}, accessCookie(access))
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Old credentials still valid.
	f.login(t)
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/update-account", gin.H{
		"fullName": "Jane A Doe",
	}, accessCookie(access))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Jane A Doe")
}

func TestUpload_NoFiles(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/users/register", registerBody())
	access, _ := f.login(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no files here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(accessCookie(access))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
