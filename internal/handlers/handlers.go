package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"evermedia/gateway/internal/config"
	"evermedia/gateway/internal/middleware"
	"evermedia/gateway/internal/roles"
	"evermedia/gateway/internal/session"
	"evermedia/gateway/internal/tokenstore"
	"evermedia/gateway/internal/upstream"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	sessions *session.Manager
	authAPI  *upstream.AuthAPI
	factory  *upstream.Factory
	authed   *http.Client
	public   *http.Client
	cache    *redis.Client // nil when sessions live in memory
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, store tokenstore.Store, cache *redis.Client, factory *upstream.Factory) HandlerSet {
	sessions := session.NewManager(store, cfg.Session.TTL, log)

	// The transport gets its logout hook here, at the composition root, so
	// the low-level client never reaches up into session state on its own.
	authed := factory.Authed(store, sessions.HandleUnauthorized)

	// Session lifecycle observer: event logging, and on logout the transport
	// releases the session's 401 dedup state.
	sessions.Subscribe(func(event session.Event) {
		log.Debug().Str("sid", event.SID).Str("event", string(event.Kind)).Msg("session event")
		if event.Kind == session.EventLogout {
			upstream.ForgetSession(authed, event.SID)
		}
	})

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
		authAPI:  upstream.NewAuthAPI(factory, log),
		factory:  factory,
		authed:   authed,
		public:   factory.Public(),
		cache:    cache,
	}
}

func (h HandlerSet) Sessions() *session.Manager {
	return h.sessions
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.Health)

	auth := engine.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/oauth/google", h.OAuthGoogle)
	auth.POST("/logout", h.Logout)
	auth.POST("/refresh", h.Refresh)
	auth.GET("/session", h.Session)

	engine.Any("/api/*path", h.Proxy)

	engine.GET(roles.LoginPath, h.LoginPage)
	engine.GET(roles.UnauthorizedPath, h.UnauthorizedPage)

	engine.GET("/admin",
		middleware.Guard(h.sessions, h.log, roles.RoleAdmin), h.AppShell)
	engine.GET("/worker-dashboard",
		middleware.Guard(h.sessions, h.log, roles.RoleWorker), h.AppShell)
	engine.GET("/user",
		middleware.Guard(h.sessions, h.log, roles.RoleUser), h.AppShell)
	engine.GET("/partner-vendor-dashboard",
		middleware.Guard(h.sessions, h.log, roles.RoleVendor, roles.RolePartner), h.AppShell)

	// Any authenticated role.
	engine.GET("/account",
		middleware.Guard(h.sessions, h.log), h.AppShell)
}
