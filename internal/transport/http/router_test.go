package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"

	appsvc "powerbi-portal/internal/app"
	"powerbi-portal/internal/config"
	"powerbi-portal/internal/model"
	"powerbi-portal/internal/pkg/passhash"
	"powerbi-portal/internal/repository"
	"powerbi-portal/internal/session"
)

const testCookieName = "portal_session"

type fakeUserStore struct {
	users  map[string]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}, nextID: 1}
}

func (f *fakeUserStore) Create(user *model.User) error {
	if _, exists := f.users[user.Username]; exists {
		return repository.ErrDuplicateKey
	}
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.Username] = &copied
	return nil
}

func (f *fakeUserStore) GetByUsername(username string) (*model.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByID(id uint) (*model.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeFeedbackStore struct {
	rows []model.Feedback
}

func (f *fakeFeedbackStore) Create(feedback *model.Feedback) error {
	feedback.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *feedback)
	return nil
}

type testPortal struct {
	router   http.Handler
	sessions *session.Manager
	users    *fakeUserStore
	feedback *fakeFeedbackStore
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{GinMode: "test"},
		Session: config.SessionConfig{
			CookieName: testCookieName,
			Secret:     "test-secret",
			TTLMinute:  5,
			Store:      "memory",
		},
		Chat: config.ChatConfig{
			BaseURL:        "http://127.0.0.1:1",
			APIKey:         "test-key",
			Model:          "gpt-3.5-turbo",
			TimeoutSeconds: 2,
		},
		Dashboard: config.DashboardConfig{
			EmbedURL: "https://app.powerbi.com/view?r=test",
		},
	}
}

func newTestPortal(t *testing.T, mutate func(cfg *config.Config)) *testPortal {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	store, err := session.NewMemoryStore(time.Minute)
	require.NoError(t, err)
	sessions := session.NewManager(store, cfg.Session.Secret, time.Duration(cfg.Session.TTLMinute)*time.Minute)

	users := newFakeUserStore()
	feedback := &fakeFeedbackStore{}

	svcs := Services{
		Auth:     appsvc.NewAuthService(users, passhash.New(4), nil, zerolog.Nop()),
		Feedback: appsvc.NewFeedbackService(feedback, nil, zerolog.Nop()),
		Chat:     appsvc.NewChatService(cfg.Chat, zerolog.Nop()),
		Sessions: sessions,
	}

	return &testPortal{
		router:   BuildRouter(cfg, svcs),
		sessions: sessions,
		users:    users,
		feedback: feedback,
	}
}

func (p *testPortal) do(t *testing.T, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookieValue(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c.Value
		}
	}
	t.Fatal("session cookie not set")
	return ""
}

// Full portal walk-through: signup, duplicate signup, login, identity checks,
// feedback, logout, and post-logout denial.
func TestPortalScenario(t *testing.T) {
	p := newTestPortal(t, nil)

	rec := p.do(t, http.MethodPost, "/api/signup", `{"username":"alice","password":"pw1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = p.do(t, http.MethodPost, "/api/signup", `{"username":"alice","password":"pw2"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	// Exactly one alice row, still holding pw1's hash.
	require.Len(t, p.users.users, 1)
	ok, err := passhash.New(4).Verify("pw1", p.users.users["alice"].PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	rec = p.do(t, http.MethodPost, "/api/login", `{"username":"alice","password":"pw1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookieValue(t, rec)

	rec = p.do(t, http.MethodGet, "/api/user", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var who struct {
		LoggedIn bool   `json:"loggedIn"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &who))
	require.True(t, who.LoggedIn)
	require.Equal(t, "alice", who.Username)

	rec = p.do(t, http.MethodPost, "/api/feedback",
		`{"feedbackType":"idea","subject":"filters","details":"add a date filter"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, p.feedback.rows, 1)
	require.Equal(t, p.users.users["alice"].ID, p.feedback.rows[0].UserID)

	rec = p.do(t, http.MethodPost, "/api/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = p.do(t, http.MethodGet, "/api/user", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &who))
	require.False(t, who.LoggedIn)

	// Logging out twice is fine.
	rec = p.do(t, http.MethodPost, "/api/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = p.do(t, http.MethodPost, "/api/feedback", `{"subject":"late"}`, cookie)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, p.feedback.rows, 1)
}

func TestSignupMissingFields(t *testing.T) {
	p := newTestPortal(t, nil)

	apitest.New().
		Handler(p.router).
		Post("/api/signup").
		JSON(`{"username":"","password":""}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "Username and password are required.")).
		End()
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	p := newTestPortal(t, nil)

	rec := p.do(t, http.MethodPost, "/api/signup", `{"username":"alice","password":"pw1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := p.do(t, http.MethodPost, "/api/login", `{"username":"alice","password":"nope"}`, "")
	unknownUser := p.do(t, http.MethodPost, "/api/login", `{"username":"nobody","password":"pw1"}`, "")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestProtectedRoutesRejectBadSessions(t *testing.T) {
	p := newTestPortal(t, nil)
	ctx := context.Background()

	revoked, err := p.sessions.Issue(ctx, 1, "ghost")
	require.NoError(t, err)
	require.NoError(t, p.sessions.Revoke(ctx, revoked))

	cookies := map[string]string{
		"no session":        "",
		"unknown session":   "completely-made-up",
		"destroyed session": revoked,
	}
	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/feedback", `{"subject":"x"}`},
		{http.MethodPost, "/api/chat", `{"message":"hi"}`},
		{http.MethodGet, "/api/dashboard-url", ""},
	}

	for name, cookie := range cookies {
		for _, route := range routes {
			rec := p.do(t, route.method, route.path, route.body, cookie)
			require.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s with %s", route.method, route.path, name)
		}
	}

	// Rejection happens before the handler: no feedback rows were written.
	require.Empty(t, p.feedback.rows)
}

func TestDashboardURL(t *testing.T) {
	p := newTestPortal(t, nil)
	cookie := loginAlice(t, p)

	apitest.New().
		Handler(p.router).
		Get("/api/dashboard-url").
		Cookies(apitest.NewCookie(testCookieName).Value(cookie)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.url", "https://app.powerbi.com/view?r=test")).
		End()
}

func TestDashboardURLUnconfigured(t *testing.T) {
	p := newTestPortal(t, func(cfg *config.Config) {
		cfg.Dashboard.EmbedURL = ""
	})
	cookie := loginAlice(t, p)

	apitest.New().
		Handler(p.router).
		Get("/api/dashboard-url").
		Cookies(apitest.NewCookie(testCookieName).Value(cookie)).
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.message", "Dashboard URL is not configured on the server.")).
		End()
}

func TestChatProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"42."}}]}`))
	}))
	defer upstream.Close()

	p := newTestPortal(t, func(cfg *config.Config) {
		cfg.Chat.BaseURL = upstream.URL
	})
	cookie := loginAlice(t, p)

	apitest.New().
		Handler(p.router).
		Post("/api/chat").
		Cookies(apitest.NewCookie(testCookieName).Value(cookie)).
		JSON(`{"message":"what is the answer?"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.reply", "42.")).
		End()
}

func TestChatProxyUpstreamDown(t *testing.T) {
	p := newTestPortal(t, nil) // base URL points at a closed port
	cookie := loginAlice(t, p)

	apitest.New().
		Handler(p.router).
		Post("/api/chat").
		Cookies(apitest.NewCookie(testCookieName).Value(cookie)).
		JSON(`{"message":"hello?"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.reply", "Sorry, I'm having trouble connecting right now.")).
		End()
}

func TestChatProxyUnconfigured(t *testing.T) {
	p := newTestPortal(t, func(cfg *config.Config) {
		cfg.Chat.APIKey = ""
	})
	cookie := loginAlice(t, p)

	apitest.New().
		Handler(p.router).
		Post("/api/chat").
		Cookies(apitest.NewCookie(testCookieName).Value(cookie)).
		JSON(`{"message":"hello?"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.reply", "API key is not configured on the server.")).
		End()
}

func loginAlice(t *testing.T, p *testPortal) string {
	t.Helper()
	rec := p.do(t, http.MethodPost, "/api/signup", `{"username":"alice","password":"pw1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = p.do(t, http.MethodPost, "/api/login", `{"username":"alice","password":"pw1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return sessionCookieValue(t, rec)
}
