package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/host"
	"team-deathmatch/internal/match"
	"team-deathmatch/internal/teamswitch"
)

// HostInterface is the slice of the simulated host the API drives.
// Keep this minimal so tests can mock it.
type HostInterface interface {
	GetState() host.State
	Players() []host.Player
	GetPlayer(p engine.PlayerID) (host.Player, bool)
	Notifications(p engine.PlayerID) []engine.Message
	StartMatch(ctx context.Context) error
	Join(name string, team engine.TeamID) (host.Player, error)
	Leave(p engine.PlayerID) error
	Deploy(p engine.PlayerID) error
	Undeploy(p engine.PlayerID) error
	Kill(killer, victim engine.PlayerID, death engine.DeathType) error
	Assist(p, other engine.PlayerID) error
	Interact(p engine.PlayerID, point engine.ObjectID) error
	EnterArea(p engine.PlayerID, area engine.AreaID) error
	Move(p engine.PlayerID, pos, facing, velocity engine.Vec3) error
}

// MatchInterface is the read side of the match controller
type MatchInterface interface {
	Snapshot() match.Snapshot
	Scoreboard() []match.ScoreboardRow
	Stats(p engine.PlayerID) (match.PlayerStats, bool)
}

// SwitchInterface reports a player's team-switch point
type SwitchInterface interface {
	State(p engine.PlayerID) (teamswitch.State, engine.ObjectID, bool)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Host:  mockHost,
//	    Match: mockMatch,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	Host   HostInterface   // required
	Match  MatchInterface  // required
	Switch SwitchInterface // optional

	// BaseContext bounds work that outlives a request, such as the match
	// freeze started by POST /api/match/start. Defaults to Background.
	BaseContext context.Context

	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost on any port
	CORSOrigins []string

	// AdminToken guards the POST routes when set
	AdminToken string

	Logger         *zap.Logger
	DisableLogging bool
}

type routerHandlers struct {
	host    HostInterface
	match   MatchInterface
	switchr SwitchInterface
	baseCtx context.Context
	log     *zap.SugaredLogger
}

// NewRouter constructs the HTTP router with all middleware and routes.
// It starts no goroutines besides the rate limiter cleanup, so it is safe
// to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	h := &routerHandlers{
		host:    cfg.Host,
		match:   cfg.Match,
		switchr: cfg.Switch,
		baseCtx: baseCtx,
		log:     logger.Sugar().Named("api"),
	}
	auth := NewAdminAuth(cfg.AdminToken)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/scoreboard", h.handleGetScoreboard)
		r.Get("/players", h.handleGetPlayers)
		r.Get("/player/{id}", h.handleGetPlayer)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/match/start", h.handleMatchStart)

			r.Post("/player/join", h.handlePlayerJoin)
			r.Post("/player/leave", h.handlePlayerLeave)
			r.Post("/player/deploy", h.handlePlayerDeploy)
			r.Post("/player/undeploy", h.handlePlayerUndeploy)
			r.Post("/player/kill", h.handlePlayerKill)
			r.Post("/player/assist", h.handlePlayerAssist)
			r.Post("/player/interact", h.handlePlayerInteract)
			r.Post("/player/zone", h.handlePlayerZone)
			r.Post("/player/move", h.handlePlayerMove)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}
