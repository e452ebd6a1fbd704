package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mingle-social/server/internal/auth"
	"github.com/mingle-social/server/internal/config"
	"github.com/mingle-social/server/internal/domain/comments"
	"github.com/mingle-social/server/internal/domain/events"
	"github.com/mingle-social/server/internal/domain/photos"
	"github.com/mingle-social/server/internal/domain/posts"
	"github.com/mingle-social/server/internal/domain/users"
)

type routerUserRepo struct {
	users.Repository
}

func (routerUserRepo) GetByID(_ context.Context, id int64) (users.User, error) {
	return users.User{ID: id, Username: "ada", Email: "ada@example.com"}, nil
}

func (routerUserRepo) Counts(_ context.Context, _ int64) (users.Counts, error) {
	return users.Counts{}, nil
}

func (routerUserRepo) Search(_ context.Context, _ string, _, _ int) ([]users.Summary, int64, error) {
	return []users.Summary{{ID: 1, Username: "ada"}}, 1, nil
}

type routerPostRepo struct{ posts.Repository }

type routerCommentRepo struct{ comments.Repository }

type routerEventRepo struct{ events.Repository }

func (routerEventRepo) List(_ context.Context) ([]events.Event, error) {
	return []events.Event{}, nil
}

type routerPhotoRepo struct{ photos.Repository }

func testRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	tokens := auth.NewJWTManager("router-secret", 20*time.Minute, "mingle")
	cfg := config.Config{
		RateLimit: config.RateLimitConfig{PublicPerMinute: 1000, LoginPerMinute: 1000},
	}
	router := NewRouter(Deps{
		Users:    users.NewService(routerUserRepo{}),
		Posts:    posts.NewService(routerPostRepo{}),
		Comments: comments.NewService(routerCommentRepo{}),
		Events:   events.NewService(routerEventRepo{}),
		Photos:   photos.NewService(routerPhotoRepo{}),
		Tokens:   tokens,
		Config:   cfg,
		Logger:   zerolog.Nop(),
	})
	return router, tokens
}

func TestRouterHealthz(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	router, _ := testRouter(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodGet, "/api/v1/posts/feed"},
		{http.MethodPost, "/api/v1/comments"},
		{http.MethodPost, "/api/v1/events"},
		{http.MethodGet, "/api/v1/events/me/hosting"},
		{http.MethodPost, "/api/v1/events/3/rsvp"},
		{http.MethodPost, "/api/v1/photos"},
	}
	for _, route := range protected {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		require.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		require.Contains(t, rec.Body.String(), "Missing or invalid Authorization header")
	}
}

func TestRouterAuthenticatedMe(t *testing.T) {
	router, tokens := testRouter(t)
	token, err := tokens.Generate(12)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"ada"`)
	require.Contains(t, rec.Body.String(), `"is_following":false`)
}

// The literal search route must win over the {username} wildcard.
func TestRouterSearchBeatsUsernameWildcard(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/search?q=ada", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"items"`)
}

func TestRouterEventsListPublic(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCorrelationHeader(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterMetricsExposed(t *testing.T) {
	router, _ := testRouter(t)

	// Prime the counters so the gather below has something to report.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "mingle_http_requests_total")
}
