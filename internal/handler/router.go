package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/limiter"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/resp"
)

const (
	AuthRate     = 1
	AuthBurst    = 10
	ConnectRate  = 0.5
	ConnectBurst = 5
)

// Router builds the HTTP routing table. ctx bounds the background work of the
// rate limiters.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(AuthRate), AuthBurst)
	connectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(ConnectRate), ConnectBurst)

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := deps.Config.AllowedOrigins
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-PoW-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()

	r.Use(c.Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":      "ok",
			"service":     "dmchat",
			"connections": deps.Gateway.Registry().Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Tokens))

		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)

			auth.With(deps.Pow.Middleware).Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
			auth.Get("/challenge", HandleGetChallenge(deps))
			auth.Post("/challenge", HandleVerifyChallenge(deps))
			auth.With(jwt.RequireIdentity).Post("/logout", HandleLogout(deps))
		})

		api.Group(func(private chi.Router) {
			private.Use(jwt.RequireIdentity)

			private.Route("/messages", func(m chi.Router) {
				m.Post("/send", HandleSendMessage(deps))
				m.Get("/chat/{otherUserId}", HandleGetConversation(deps))
				m.Get("/unread/count", HandleUnreadCount(deps))
				m.Put("/{messageId}/read", HandleMarkRead(deps))
				m.Put("/read/{senderId}", HandleMarkAllRead(deps))
			})

			private.Route("/users", func(u chi.Router) {
				u.Get("/", HandleListUsers(deps))
				u.Get("/search", HandleSearchUsers(deps))
				u.Get("/{userId}", HandleGetUser(deps))
				u.Put("/{userId}/online", HandleSetOnline(deps))
			})

			private.Post("/files/upload", HandleUpload(deps))
		})

		api.Get("/files/{folder}/{filename}", HandleDownload(deps))
		api.Get("/files/{filename}", HandleLegacyDownload(deps))
	})

	r.With(connectLimiter.Middleware).Get("/ws/chat", HandleWebSocket(deps, wsUpgrader))

	return r
}
