// Package api assembles the HTTP surface: route table, middleware
// chain, and handler wiring.
package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mingle-social/server/internal/api/handlers"
	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/auth"
	"github.com/mingle-social/server/internal/config"
	"github.com/mingle-social/server/internal/domain/comments"
	"github.com/mingle-social/server/internal/domain/events"
	"github.com/mingle-social/server/internal/domain/photos"
	"github.com/mingle-social/server/internal/domain/posts"
	"github.com/mingle-social/server/internal/domain/users"
	"github.com/mingle-social/server/internal/metrics"
)

// Deps carries everything the router needs. Services are constructed by
// the caller so tests can substitute stubs.
type Deps struct {
	Users    *users.Service
	Posts    *posts.Service
	Comments *comments.Service
	Events   *events.Service
	Photos   *photos.Service

	Pool   *pgxpool.Pool
	Tokens *auth.JWTManager
	Config config.Config
	Logger zerolog.Logger
}

func NewRouter(deps Deps) http.Handler {
	userHandler := handlers.NewUserHandler(deps.Users, deps.Photos, deps.Tokens)
	postHandler := handlers.NewPostHandler(deps.Posts)
	commentHandler := handlers.NewCommentHandler(deps.Comments)
	eventHandler := handlers.NewEventHandler(deps.Events)
	photoHandler := handlers.NewPhotoHandler(deps.Photos)
	healthHandler := handlers.NewHealthHandler(deps.Pool)

	requireAuth := middleware.RequireAuth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)
	limiter := middleware.NewRateLimiter(deps.Config.RateLimit)
	loginLimit := limiter.Limit(middleware.TierLogin)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Users
	mux.HandleFunc("POST /api/v1/users", userHandler.Register)
	mux.Handle("POST /api/v1/users/login", loginLimit(http.HandlerFunc(userHandler.Login)))
	mux.Handle("GET /api/v1/users/me", requireAuth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("PUT /api/v1/users/me", requireAuth(http.HandlerFunc(userHandler.UpdateMe)))
	mux.Handle("DELETE /api/v1/users/me", requireAuth(http.HandlerFunc(userHandler.DeleteMe)))
	mux.Handle("POST /api/v1/users/me/avatar", requireAuth(http.HandlerFunc(userHandler.UploadAvatar)))
	mux.Handle("DELETE /api/v1/users/me/avatar", requireAuth(http.HandlerFunc(userHandler.DeleteAvatar)))
	mux.HandleFunc("GET /api/v1/users/search", userHandler.Search)
	mux.Handle("GET /api/v1/users/{username}", optionalAuth(http.HandlerFunc(userHandler.ByUsername)))
	mux.Handle("POST /api/v1/users/{id}/follow", requireAuth(http.HandlerFunc(userHandler.Follow)))
	mux.Handle("DELETE /api/v1/users/{id}/follow", requireAuth(http.HandlerFunc(userHandler.Unfollow)))
	mux.HandleFunc("GET /api/v1/users/{id}/followers", userHandler.Followers)
	mux.HandleFunc("GET /api/v1/users/{id}/following", userHandler.Following)
	mux.HandleFunc("GET /api/v1/users/{id}/avatar", userHandler.Avatar)

	// Posts
	mux.Handle("POST /api/v1/posts", requireAuth(http.HandlerFunc(postHandler.Create)))
	mux.HandleFunc("GET /api/v1/posts/search", postHandler.Search)
	mux.Handle("GET /api/v1/posts/feed", requireAuth(http.HandlerFunc(postHandler.Feed)))
	mux.HandleFunc("GET /api/v1/posts/by-user/{id}", postHandler.ByUser)
	mux.HandleFunc("GET /api/v1/posts/{id}", postHandler.Get)
	mux.Handle("PUT /api/v1/posts/{id}", requireAuth(http.HandlerFunc(postHandler.Update)))
	mux.Handle("DELETE /api/v1/posts/{id}", requireAuth(http.HandlerFunc(postHandler.Delete)))
	mux.Handle("POST /api/v1/posts/{id}/like", requireAuth(http.HandlerFunc(postHandler.Like)))
	mux.Handle("DELETE /api/v1/posts/{id}/like", requireAuth(http.HandlerFunc(postHandler.Unlike)))
	mux.HandleFunc("GET /api/v1/posts/{id}/likes", postHandler.Likers)

	// Comments
	mux.Handle("POST /api/v1/comments", requireAuth(http.HandlerFunc(commentHandler.Create)))
	mux.HandleFunc("GET /api/v1/comments/by-post/{id}", commentHandler.ByPost)
	mux.Handle("PUT /api/v1/comments/{id}", requireAuth(http.HandlerFunc(commentHandler.Update)))
	mux.Handle("DELETE /api/v1/comments/{id}", requireAuth(http.HandlerFunc(commentHandler.Delete)))

	// Events
	mux.Handle("POST /api/v1/events", requireAuth(http.HandlerFunc(eventHandler.Create)))
	mux.HandleFunc("GET /api/v1/events", eventHandler.List)
	mux.HandleFunc("GET /api/v1/events/search", eventHandler.Search)
	mux.Handle("GET /api/v1/events/me/hosting", requireAuth(http.HandlerFunc(eventHandler.Hosting)))
	mux.Handle("GET /api/v1/events/me/rsvps", requireAuth(http.HandlerFunc(eventHandler.RSVPs)))
	mux.HandleFunc("GET /api/v1/events/{id}", eventHandler.Get)
	mux.Handle("PUT /api/v1/events/{id}", requireAuth(http.HandlerFunc(eventHandler.Update)))
	mux.Handle("DELETE /api/v1/events/{id}", requireAuth(http.HandlerFunc(eventHandler.Delete)))
	mux.Handle("POST /api/v1/events/{id}/hosts/{userID}", requireAuth(http.HandlerFunc(eventHandler.AddHost)))
	mux.Handle("DELETE /api/v1/events/{id}/hosts/{userID}", requireAuth(http.HandlerFunc(eventHandler.RemoveHost)))
	mux.Handle("POST /api/v1/events/{id}/rsvp", requireAuth(http.HandlerFunc(eventHandler.RSVP)))
	mux.Handle("DELETE /api/v1/events/{id}/rsvp", requireAuth(http.HandlerFunc(eventHandler.UnRSVP)))
	mux.HandleFunc("GET /api/v1/events/{id}/attendees", eventHandler.Attendees)
	mux.Handle("POST /api/v1/events/{id}/cover", requireAuth(http.HandlerFunc(eventHandler.UploadCover)))

	// Photos
	mux.Handle("POST /api/v1/photos", requireAuth(http.HandlerFunc(photoHandler.Upload)))
	mux.HandleFunc("GET /api/v1/photos/{id}", photoHandler.Get)
	mux.Handle("DELETE /api/v1/photos/{id}", requireAuth(http.HandlerFunc(photoHandler.Delete)))

	wrapped := []func(http.Handler) http.Handler{
		middleware.CORS(deps.Config.Server.CORSOrigins),
		middleware.CorrelationID(deps.Logger),
		middleware.RequestLogging,
		metrics.HTTPMiddleware,
		limiter.Limit(middleware.TierPublic),
	}
	if deps.Config.Tracing.Enabled {
		wrapped = append(wrapped, middleware.Tracing)
	}
	return chain(mux, wrapped...)
}

// chain wraps handler so the first middleware listed is the outermost.
func chain(handler http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
