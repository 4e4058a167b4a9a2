package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"team-deathmatch/internal/api"
	"team-deathmatch/internal/config"
	"team-deathmatch/internal/eventlog"
	"team-deathmatch/internal/host"
	"team-deathmatch/internal/match"
	"team-deathmatch/internal/relay"
	"team-deathmatch/internal/teamswitch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "team-deathmatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if envErr != nil {
		log.Debugw("No .env file, using environment only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matchID := uuid.NewString()
	log.Infow("Team deathmatch host starting",
		"match", matchID,
		"env", cfg.Env,
		"targetScore", cfg.Match.TargetScore,
		"timeLimit", cfg.Match.TimeLimit,
		"tickRate", cfg.Host.TickRate,
	)

	// Event log with optional Redis relay sink
	var sinks []eventlog.Sink
	if cfg.Relay.RedisURL != "" {
		pub, err := relay.NewRedisPublisher(ctx, cfg.Relay.RedisURL)
		if err != nil {
			log.Warnw("Event relay disabled", "error", err)
		} else {
			defer pub.Close()
			sinks = append(sinks, relay.New(pub, cfg.Relay.ChannelPrefix, logger))
			log.Infow("Event relay enabled", "channel", cfg.Relay.ChannelPrefix+":"+matchID)
		}
	}

	eventLog := eventlog.New(eventlog.Options{
		Path:               cfg.EventLog.Path,
		MaxEventsPerSec:    cfg.EventLog.MaxEventsPerSec,
		MaxEventsPerPlayer: cfg.EventLog.MaxEventsPerPlayer,
		Sinks:              sinks,
	}, logger)

	var events eventlog.Emitter
	if err := eventLog.Start(); err != nil {
		log.Warnw("Event log disabled", "error", err)
	} else {
		events = eventLog
		defer eventLog.Stop()
	}

	// Host, team switch and match controller. The controller is the game
	// mode the host delivers callbacks to.
	h := host.New(cfg.Host, cfg.Match.SpawnPointBase, logger)

	switcher := teamswitch.New(cfg.TeamSwitch, cfg.Match.OtherTeam, h, logger, teamswitch.Options{
		Events:  events,
		MatchID: matchID,
	})
	defer switcher.Close()

	controller := match.New(cfg.Match, h, logger, match.Options{
		Events:     events,
		TeamSwitch: switcher,
		MatchID:    matchID,
	})
	defer controller.Close()

	h.SetCallbacks(controller)

	server := api.NewServer(ctx, cfg.Server, h, controller, switcher, logger)
	debugServer := api.NewDebugServer(api.ObservabilityConfig{
		Enabled:       cfg.Server.DebugEnabled,
		ListenAddr:    cfg.Server.DebugAddr,
		AllowExternal: os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true",
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	if debugServer != nil {
		g.Go(func() error {
			return serveDebug(gctx, debugServer)
		})
	}
	g.Go(func() error {
		select {
		case <-controller.Done():
			snap := controller.Snapshot()
			log.Infow("Match finished", "result", snap.Result)
		case <-gctx.Done():
		}
		return nil
	})

	err = g.Wait()
	log.Infow("Shutting down", "events", eventLog.GetStats())
	return err
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveDebug(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("debug server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
