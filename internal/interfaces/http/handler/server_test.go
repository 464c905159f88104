package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	appcomment "github.com/wikimedia/wikimedia-cz-tracker/internal/application/comment"
	appidentity "github.com/wikimedia/wikimedia-cz-tracker/internal/application/identity"
	appnotification "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	apppayment "github.com/wikimedia/wikimedia-cz-tracker/internal/application/payment"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/auth"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/cache"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/storage"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/middleware"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/router"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

// stubWiki answers proxied wiki queries with a fixed body
type stubWiki struct {
	body   []byte
	err    error
	method string
	params url.Values
	token  string
}

func (w *stubWiki) Proxy(_ context.Context, method string, params url.Values, token string) ([]byte, error) {
	w.method, w.params, w.token = method, params, token
	return w.body, w.err
}

// testServer runs the full route table over a fixture database
type testServer struct {
	f      *testutil.Fixture
	engine *gin.Engine
	jwt    *auth.JWTService
	wiki   *stubWiki
	health map[string]HealthCheck
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	f := testutil.NewFixture(t)
	r := f.Repos

	store := cache.NewInMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		RefreshSecret:          "test-refresh-secret-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
	blacklist := auth.NewStoreTokenBlacklist(store)

	settings := apptracker.Settings{
		Currency:       "CZK",
		BaseURL:        "https://tracker.example.org",
		ImportRowLimit: apptracker.DefaultImportRowLimit,
		DocsPrefix:     "docs/",
	}
	notifier := appnotification.NewService(r.Notifications, r.Watchers, r.Users, r.Profiles, nil)
	watch := appnotification.NewWatchService(r.Watchers, r.Tickets, r.Topics, r.Grants, nil)
	rowsCache := cache.NewTicketRowsCache(store, time.Hour, nil)
	rows := apptracker.NewRowsService(r.Tickets, rowsCache, nil)

	tickets := apptracker.NewTicketService(r.Tickets, r.Topics, r.Subtopics, r.Signatures, r.Users, r.Profiles, settings, nil)
	grants := apptracker.NewGrantService(r.Grants, r.Topics, r.Subtopics, r.Tickets, settings, nil)
	expenses := apptracker.NewExpenseService(r.Tickets, settings, nil)
	media := apptracker.NewMediaService(r.Tickets, r.Media, settings, nil)
	documents := apptracker.NewDocumentService(r.Tickets, r.Documents, storage.NewMemoryStorage(), settings, nil)
	for _, h := range []interface {
		SetNotifier(apptracker.Notifier)
		SetRowsCache(apptracker.RowsInvalidator)
	}{tickets, grants, expenses, media, documents} {
		h.SetNotifier(notifier)
		h.SetRowsCache(rowsCache)
	}
	reports := apptracker.NewReportService(r.Reports, r.Tickets, r.Grants, r.Topics, r.Users, nil)

	wiki := &stubWiki{body: []byte(`{"query":{"pages":{}}}`)}
	ts := &testServer{f: f, jwt: jwtService, wiki: wiki, health: map[string]HealthCheck{}}

	hs := &Handlers{
		Auth:      NewAuthHandler(appidentity.NewAuthService(r.Users, jwtService, blacklist, nil)),
		Users:     NewUserHandler(appidentity.NewUserService(r.Users, r.Profiles, reports, nil, nil)),
		Grants:    NewGrantHandler(grants),
		Tickets:   NewTicketHandler(tickets, rows),
		Watch:     NewWatchHandler(watch),
		Comments:  NewCommentHandler(appcomment.NewService(r.Tickets, r.Comments, r.Users, r.Profiles, notifier, watch, rowsCache, settings.BaseURL, nil)),
		Media:     NewMediaHandler(media),
		Documents: NewDocumentHandler(documents),
		Expenses:  NewExpenseHandler(expenses),
		Payments:  NewPaymentHandler(apppayment.NewService(r.Transactions, r.Clusters, r.Tickets, settings.Currency, nil)),
		Reports:   NewReportHandler(reports),
		Export:    NewExportHandler(apptracker.NewExportService(r.Tickets, r.Grants, r.Topics, r.Users, r.Profiles, nil)),
		Import: NewImportHandler(apptracker.NewImportService(tickets, expenses, media, grants,
			r.Grants, r.Topics, r.Users, settings, nil)),
		Mediawiki: NewMediawikiHandler(wiki, r.Profiles),
		Health:    NewHealthHandler("test", ts.health),
	}

	engine := gin.New()
	jwtCfg := middleware.DefaultJWTConfig(jwtService, r.Users)
	jwtCfg.Optional = true
	jwtCfg.TokenBlacklist = blacklist
	rt := router.NewRouter(engine).Use(
		middleware.RequestID(),
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
	)
	hs.Register(engine, rt)
	rt.Setup()

	ts.engine = engine
	return ts
}

// token issues an access token for user
func (s *testServer) token(t *testing.T, user *identity.User) string {
	t.Helper()
	pair, err := s.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

// staff persists the staff flag on a new user
func (s *testServer) staff(t *testing.T, name string) *identity.User {
	t.Helper()
	u := s.f.CreateUser(t, name)
	u.IsStaff = true
	require.NoError(t, s.f.Repos.Users.Update(context.Background(), u))
	return u
}

// do sends a request as user; a nil user stays anonymous
func (s *testServer) do(t *testing.T, user *identity.User, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, user, req)
}

func (s *testServer) send(t *testing.T, user *identity.User, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+s.token(t, user))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data member of a success response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	if len(resp.Data) == 0 {
		return
	}
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error
}
