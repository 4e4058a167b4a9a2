// Package config provides centralized configuration management.
// Every tunable of the match, the team-switch subsystem, the simulated host
// and the control server lives here; other packages receive typed values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"team-deathmatch/internal/engine"
)

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// VOPair is a winning/losing voice-over pair played to opposite teams.
type VOPair struct {
	Winning engine.VoiceOver
	Losing  engine.VoiceOver
}

// ProgressStage announces a score threshold once per match.
type ProgressStage struct {
	Score int
	VO    VOPair
}

// MatchConfig holds the immutable rules of one match.
type MatchConfig struct {
	TargetScore int           // Kills to win
	TimeLimit   time.Duration // Includes the freeze time
	FreezeTime  time.Duration // Locked-in period before the round starts
	SettleDelay time.Duration // Pause after the end sequence

	Stages     []ProgressStage // Early, mid, late
	LeadChange VOPair          // Played when the lead flips between stages

	Team1 engine.TeamID
	Team2 engine.TeamID

	// Round-start HQs sit where players spawn at match start; in-progress
	// HQs sit outside the map, surrounded by the respawn area trigger.
	HQRoundStartTeam1 engine.HQID
	HQRoundStartTeam2 engine.HQID
	HQInProgressTeam1 engine.HQID
	HQInProgressTeam2 engine.HQID

	RespawnArea     engine.AreaID
	MaxStartingAmmo bool
	SpawnPointBase  engine.ObjectID // First id of the contiguous spawn markers
}

// DefaultMatch returns the stock team deathmatch rules.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		TargetScore: 75,
		TimeLimit:   10*time.Minute + 15*time.Second,
		FreezeTime:  15 * time.Second,
		SettleDelay: 5 * time.Second,
		Stages: []ProgressStage{
			{Score: 20, VO: VOPair{engine.VOProgressEarlyWinning, engine.VOProgressEarlyLosing}},
			{Score: 40, VO: VOPair{engine.VOProgressLateWinning, engine.VOProgressLateLosing}},
			{Score: 65, VO: VOPair{engine.VOPlayerCountEnemyLow, engine.VOPlayerCountFriendlyLow}},
		},
		LeadChange:        VOPair{engine.VOProgressMidWinning, engine.VOProgressMidLosing},
		Team1:             1,
		Team2:             2,
		HQRoundStartTeam1: 1,
		HQRoundStartTeam2: 2,
		HQInProgressTeam1: 11,
		HQInProgressTeam2: 12,
		RespawnArea:       1000,
		MaxStartingAmmo:   true,
		SpawnPointBase:    9001,
	}
}

// MatchFromEnv returns match configuration with environment overrides.
func MatchFromEnv() (MatchConfig, error) {
	cfg := DefaultMatch()

	if v := getEnvInt("MATCH_TARGET_SCORE", 0); v > 0 {
		cfg.TargetScore = v
	}
	if v := getEnvDuration("MATCH_TIME_LIMIT", 0); v > 0 {
		cfg.TimeLimit = v
	}
	if v := getEnvDuration("MATCH_FREEZE_TIME", -1); v >= 0 {
		cfg.FreezeTime = v
	}
	if v := getEnvDuration("MATCH_SETTLE_DELAY", -1); v >= 0 {
		cfg.SettleDelay = v
	}
	if os.Getenv("MATCH_MAX_STARTING_AMMO") == "false" {
		cfg.MaxStartingAmmo = false
	}
	if v := getEnvInt("MATCH_SPAWN_POINT_BASE", 0); v > 0 {
		cfg.SpawnPointBase = engine.ObjectID(v)
	}
	if v := getEnvInt("MATCH_RESPAWN_AREA", 0); v > 0 {
		cfg.RespawnArea = engine.AreaID(v)
	}

	// A lowered target leaves the higher stages unreachable.
	cfg.Stages = cfg.ReachableStages()

	return cfg, cfg.Validate()
}

// ReachableStages returns the progress stages below the target score, in
// order. A stage at or above the target can never fire before the match ends.
func (c MatchConfig) ReachableStages() []ProgressStage {
	out := make([]ProgressStage, 0, len(c.Stages))
	for _, s := range c.Stages {
		if s.Score < c.TargetScore {
			out = append(out, s)
		}
	}
	return out
}

// Validate rejects rule sets the controller cannot run.
func (c MatchConfig) Validate() error {
	if c.TargetScore <= 0 {
		return fmt.Errorf("target score must be positive, got %d", c.TargetScore)
	}
	if c.TimeLimit <= c.FreezeTime {
		return fmt.Errorf("time limit %s must exceed freeze time %s", c.TimeLimit, c.FreezeTime)
	}
	if c.Team1 == engine.NoTeam || c.Team2 == engine.NoTeam || c.Team1 == c.Team2 {
		return errors.New("match needs two distinct non-zero teams")
	}
	seen := make(map[int]bool, len(c.Stages))
	for _, s := range c.Stages {
		if s.Score <= 0 {
			return fmt.Errorf("progress stage must be positive, got %d", s.Score)
		}
		if seen[s.Score] {
			return fmt.Errorf("duplicate progress stage %d", s.Score)
		}
		seen[s.Score] = true
	}
	return nil
}

// OtherTeam returns the opposing team of t. Anything that is not Team2 maps
// to Team2.
func (c MatchConfig) OtherTeam(t engine.TeamID) engine.TeamID {
	if t == c.Team2 {
		return c.Team1
	}
	return c.Team2
}

// =============================================================================
// TEAM SWITCH CONFIGURATION
// =============================================================================

// TeamSwitchConfig tunes the post-deploy team switch interact point.
type TeamSwitchConfig struct {
	Enabled           bool
	MinLifetime       time.Duration // Reserved; not enforced
	MaxLifetime       time.Duration // Interact point expires after this
	VelocityThreshold float64       // |vx|+|vy|+|vz| above this cancels
	PollInterval      time.Duration // Ground check cadence while landing
	VerticalOffset    float64       // Height above the facing point
}

// DefaultTeamSwitch returns the default team switch tuning.
func DefaultTeamSwitch() TeamSwitchConfig {
	return TeamSwitchConfig{
		Enabled:           true,
		MinLifetime:       1 * time.Second,
		MaxLifetime:       3 * time.Second,
		VelocityThreshold: 3,
		PollInterval:      200 * time.Millisecond,
		VerticalOffset:    1.5,
	}
}

// TeamSwitchFromEnv returns team switch configuration with environment overrides.
func TeamSwitchFromEnv() TeamSwitchConfig {
	cfg := DefaultTeamSwitch()

	if os.Getenv("TEAM_SWITCH_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if v := getEnvDuration("TEAM_SWITCH_MAX_LIFETIME", 0); v > 0 {
		cfg.MaxLifetime = v
	}
	if v := getEnvFloat("TEAM_SWITCH_VELOCITY_THRESHOLD", 0); v > 0 {
		cfg.VelocityThreshold = v
	}

	return cfg
}

// =============================================================================
// HOST CONFIGURATION
// =============================================================================

// HostConfig configures the simulated engine that hosts the game mode.
type HostConfig struct {
	TickRate     int           // Global ticks per second
	MaxPlayers   int           // Hard cap on joined players
	SpawnMarkers []engine.Vec3 // Placed at SpawnPointBase, SpawnPointBase+1, ...
}

// DefaultHost returns the default host configuration.
func DefaultHost() HostConfig {
	return HostConfig{
		TickRate:   30,
		MaxPlayers: 64,
		SpawnMarkers: []engine.Vec3{
			engine.V(-60, 2, -40),
			engine.V(-20, 2, 55),
			engine.V(15, 3, -10),
			engine.V(48, 2, 42),
			engine.V(70, 4, -35),
			engine.V(0, 6, 80),
		},
	}
}

// HostFromEnv returns host configuration with environment overrides.
func HostFromEnv() (HostConfig, error) {
	cfg := DefaultHost()

	if v := getEnvInt("HOST_TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("HOST_MAX_PLAYERS", 0); v > 0 {
		cfg.MaxPlayers = v
	}
	if raw := os.Getenv("HOST_SPAWN_MARKERS"); raw != "" {
		markers, err := ParseVectors(raw)
		if err != nil {
			return cfg, fmt.Errorf("HOST_SPAWN_MARKERS: %w", err)
		}
		cfg.SpawnMarkers = markers
	}

	return cfg, nil
}

// ParseVectors parses "x,y,z;x,y,z" into vectors.
func ParseVectors(raw string) ([]engine.Vec3, error) {
	var out []engine.Vec3
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("vector %q needs three components", part)
		}
		var xyz [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("vector %q: %w", part, err)
			}
			xyz[i] = v
		}
		out = append(out, engine.V(xyz[0], xyz[1], xyz[2]))
	}
	return out, nil
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP control server settings.
type ServerConfig struct {
	Port               int
	CORSOrigins        []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	BroadcastInterval  time.Duration // WebSocket state push cadence
	DebugEnabled       bool
	DebugAddr          string // pprof + metrics, localhost only
	AdminToken         string // Bearer token for match control; empty disables auth
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:               3000,
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
		BroadcastInterval:  100 * time.Millisecond,
		DebugEnabled:       true,
		DebugAddr:          "127.0.0.1:6060",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}
	if v := getEnvFloat("RATE_LIMIT_PER_SECOND", 0); v > 0 {
		cfg.RateLimitPerSecond = v
	}
	if v := getEnvInt("RATE_LIMIT_BURST", 0); v > 0 {
		cfg.RateLimitBurst = v
	}
	if v := getEnvDuration("BROADCAST_INTERVAL", 0); v > 0 {
		cfg.BroadcastInterval = v
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DebugEnabled = false
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")

	return cfg
}

// =============================================================================
// EVENT LOG & RELAY CONFIGURATION
// =============================================================================

// EventLogConfig configures the append-only match event log.
type EventLogConfig struct {
	Path               string // Empty disables the file sink
	MaxEventsPerSec    int
	MaxEventsPerPlayer int
}

// RelayConfig configures the Redis event relay.
type RelayConfig struct {
	RedisURL      string // Empty disables the relay
	ChannelPrefix string
}

// EventLogFromEnv returns event log configuration with environment overrides.
func EventLogFromEnv() EventLogConfig {
	return EventLogConfig{
		Path:               getEnv("EVENT_LOG_PATH", "match-events.jsonl"),
		MaxEventsPerSec:    getEnvInt("EVENT_LOG_MAX_PER_SEC", 10000),
		MaxEventsPerPlayer: getEnvInt("EVENT_LOG_MAX_PER_PLAYER", 100),
	}
}

// RelayFromEnv returns relay configuration with environment overrides.
func RelayFromEnv() RelayConfig {
	return RelayConfig{
		RedisURL:      os.Getenv("REDIS_URL"),
		ChannelPrefix: getEnv("RELAY_CHANNEL_PREFIX", "tdm:events"),
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Env        string
	Match      MatchConfig
	TeamSwitch TeamSwitchConfig
	Host       HostConfig
	Server     ServerConfig
	EventLog   EventLogConfig
	Relay      RelayConfig
}

// Load returns the complete configuration with environment overrides.
func Load() (AppConfig, error) {
	match, err := MatchFromEnv()
	if err != nil {
		return AppConfig{}, fmt.Errorf("match config: %w", err)
	}
	host, err := HostFromEnv()
	if err != nil {
		return AppConfig{}, fmt.Errorf("host config: %w", err)
	}

	return AppConfig{
		Env:        getEnv("ENV", "production"),
		Match:      match,
		TeamSwitch: TeamSwitchFromEnv(),
		Host:       host,
		Server:     ServerFromEnv(),
		EventLog:   EventLogFromEnv(),
		Relay:      RelayFromEnv(),
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
