package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"team-deathmatch/internal/config"
)

// Server is the control API with the WebSocket state feed
type Server struct {
	cfg         config.ServerConfig
	host        HostInterface
	match       MatchInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	log         *zap.SugaredLogger
}

// NewServer builds the server. Nothing listens until Run is called.
func NewServer(ctx context.Context, cfg config.ServerConfig, h HostInterface, m MatchInterface, sw SwitchInterface, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:   cfg,
		host:  h,
		match: m,
		wsHub: NewWebSocketHub(NewOriginChecker(cfg.CORSOrigins), logger),
		log:   logger.Sugar().Named("api"),
	}
	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitPerSecond,
		Burst:             cfg.RateLimitBurst,
	})
	s.router = NewRouter(RouterConfig{
		Host:        h,
		Match:       m,
		Switch:      sw,
		BaseContext: ctx,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
		Logger:      logger,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// State is the payload of GET /api/state and the match:state broadcast
func (s *Server) State() interface{} {
	return map[string]interface{}{
		"match": s.match.Snapshot(),
		"host":  s.host.GetState(),
	}
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- s.wsHub.RunBroadcastLoop(ctx, s.cfg.BroadcastInterval, s.State)
	}()
	go func() {
		s.log.Infow("API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("api server: %w", err)
		}
	case <-ctx.Done():
	}
	return s.Shutdown()
}

// Shutdown stops accepting requests and releases background workers
func (s *Server) Shutdown() error {
	defer s.rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.log.Infow("API server stopped")
	return nil
}
