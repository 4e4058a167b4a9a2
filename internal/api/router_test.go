package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/host"
	"team-deathmatch/internal/match"
	"team-deathmatch/internal/teamswitch"
)

// mockHost records control calls and answers from fixed players
type mockHost struct {
	players  map[engine.PlayerID]host.Player
	calls    []string
	startCtx context.Context
	startErr error
	joinErr  error
	kills    []engine.DeathType
}

func newMockHost() *mockHost {
	return &mockHost{players: map[engine.PlayerID]host.Player{
		1: {ID: 1, Name: "alice", Team: 1},
		2: {ID: 2, Name: "bob", Team: 2},
	}}
}

func (m *mockHost) check(name string, ids ...engine.PlayerID) error {
	m.calls = append(m.calls, name)
	for _, id := range ids {
		if _, ok := m.players[id]; !ok {
			return host.ErrUnknownPlayer
		}
	}
	return nil
}

func (m *mockHost) GetState() host.State { return host.State{Tick: 7, Players: len(m.players)} }
func (m *mockHost) Players() []host.Player {
	return []host.Player{m.players[1], m.players[2]}
}
func (m *mockHost) GetPlayer(p engine.PlayerID) (host.Player, bool) {
	pl, ok := m.players[p]
	return pl, ok
}
func (m *mockHost) Notifications(engine.PlayerID) []engine.Message { return nil }
func (m *mockHost) StartMatch(ctx context.Context) error {
	m.startCtx = ctx
	m.calls = append(m.calls, "start")
	return m.startErr
}
func (m *mockHost) Join(name string, team engine.TeamID) (host.Player, error) {
	m.calls = append(m.calls, "join")
	if m.joinErr != nil {
		return host.Player{}, m.joinErr
	}
	p := host.Player{ID: 3, Name: name, Team: team}
	m.players[3] = p
	return p, nil
}
func (m *mockHost) Leave(p engine.PlayerID) error    { return m.check("leave", p) }
func (m *mockHost) Deploy(p engine.PlayerID) error   { return m.check("deploy", p) }
func (m *mockHost) Undeploy(p engine.PlayerID) error { return m.check("undeploy", p) }
func (m *mockHost) Kill(k, v engine.PlayerID, d engine.DeathType) error {
	m.kills = append(m.kills, d)
	return m.check("kill", k, v)
}
func (m *mockHost) Assist(p, o engine.PlayerID) error { return m.check("assist", p, o) }
func (m *mockHost) Interact(p engine.PlayerID, point engine.ObjectID) error {
	if err := m.check("interact", p); err != nil {
		return err
	}
	if point != 100001 {
		return host.ErrUnknownObject
	}
	return nil
}
func (m *mockHost) EnterArea(p engine.PlayerID, a engine.AreaID) error { return m.check("zone", p) }
func (m *mockHost) Move(p engine.PlayerID, pos, facing, vel engine.Vec3) error {
	return m.check("move", p)
}

type mockMatch struct{}

func (mockMatch) Snapshot() match.Snapshot {
	return match.Snapshot{MatchID: "m-1", Phase: "active", Team1Score: 3, TargetScore: 75}
}
func (mockMatch) Scoreboard() []match.ScoreboardRow {
	return []match.ScoreboardRow{{Player: 1, Team: 1, Values: []int{2000, 2, 1, 0, 50}}}
}
func (mockMatch) Stats(p engine.PlayerID) (match.PlayerStats, bool) {
	if p == 1 {
		return match.PlayerStats{Kills: 2, Deaths: 1}, true
	}
	return match.PlayerStats{}, false
}

type mockSwitch struct{}

func (mockSwitch) State(p engine.PlayerID) (teamswitch.State, engine.ObjectID, bool) {
	if p == 1 {
		return teamswitch.StateArmed, 100001, true
	}
	return teamswitch.StateNoInteract, 0, false
}

func newTestRouter(t *testing.T, mh *mockHost, token string) http.Handler {
	t.Helper()
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000})
	t.Cleanup(rl.Stop)

	return NewRouter(RouterConfig{
		Host:           mh,
		Match:          mockMatch{},
		Switch:         mockSwitch{},
		RateLimiter:    rl,
		AdminToken:     token,
		DisableLogging: true,
	})
}

func serve(h http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetState(t *testing.T) {
	router := newTestRouter(t, newMockHost(), "")

	rec := serve(router, http.MethodGet, "/api/state", "", "")
	var body struct {
		Match match.Snapshot `json:"match"`
		Host  host.State     `json:"host"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Match.MatchID != "m-1" || body.Match.Team1Score != 3 {
		t.Errorf("match = %+v", body.Match)
	}
	if body.Host.Tick != 7 || body.Host.Players != 2 {
		t.Errorf("host = %+v", body.Host)
	}
}

func TestGetScoreboard(t *testing.T) {
	router := newTestRouter(t, newMockHost(), "")

	rec := serve(router, http.MethodGet, "/api/scoreboard", "", "")
	var rows []match.ScoreboardRow
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Values[0] != 2000 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestGetPlayer(t *testing.T) {
	router := newTestRouter(t, newMockHost(), "")

	rec := serve(router, http.MethodGet, "/api/player/1", "", "")
	var body map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"player", "stats", "teamSwitch"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %q in response", key)
		}
	}
	if !strings.Contains(string(body["teamSwitch"]), `"armed"`) {
		t.Errorf("teamSwitch = %s", body["teamSwitch"])
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/player/99", http.StatusNotFound},
		{"/api/player/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := serve(router, http.MethodGet, tt.path, "", ""); rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestPlayerActions(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"deploy", "/api/player/deploy", `{"player":1}`, http.StatusOK},
		{"deploy unknown", "/api/player/deploy", `{"player":42}`, http.StatusNotFound},
		{"undeploy", "/api/player/undeploy", `{"player":2}`, http.StatusOK},
		{"leave", "/api/player/leave", `{"player":2}`, http.StatusOK},
		{"kill", "/api/player/kill", `{"player":1,"victim":2,"death":"headshot"}`, http.StatusOK},
		{"kill bad death", "/api/player/kill", `{"player":1,"victim":2,"death":"laser"}`, http.StatusBadRequest},
		{"kill unknown victim", "/api/player/kill", `{"player":1,"victim":9}`, http.StatusNotFound},
		{"assist", "/api/player/assist", `{"player":1,"other":2}`, http.StatusOK},
		{"interact", "/api/player/interact", `{"player":1,"point":100001}`, http.StatusOK},
		{"interact unknown point", "/api/player/interact", `{"player":1,"point":5}`, http.StatusNotFound},
		{"zone", "/api/player/zone", `{"player":1,"area":1000}`, http.StatusOK},
		{"move", "/api/player/move", `{"player":1,"position":{"x":1,"y":0,"z":2}}`, http.StatusOK},
		{"malformed", "/api/player/deploy", `{"player":`, http.StatusBadRequest},
		{"unknown field", "/api/player/deploy", `{"player":1,"extra":true}`, http.StatusBadRequest},
		{"join", "/api/player/join", `{"name":"carol","team":2}`, http.StatusOK},
		{"join bad team", "/api/player/join", `{"name":"dave","team":-1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, newMockHost(), "")
			if rec := serve(router, http.MethodPost, tt.path, tt.body, ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestKillParsesDeathType(t *testing.T) {
	mh := newMockHost()
	router := newTestRouter(t, mh, "")

	serve(router, http.MethodPost, "/api/player/kill", `{"player":1,"victim":2}`, "")
	serve(router, http.MethodPost, "/api/player/kill", `{"player":1,"victim":2,"death":"headshot"}`, "")

	want := []engine.DeathType{engine.DeathNormal, engine.DeathHeadshot}
	if len(mh.kills) != len(want) {
		t.Fatalf("kills = %v", mh.kills)
	}
	for i := range want {
		if mh.kills[i] != want[i] {
			t.Errorf("kill %d death = %s, want %s", i, mh.kills[i], want[i])
		}
	}
}

func TestJoinFull(t *testing.T) {
	mh := newMockHost()
	mh.joinErr = host.ErrGameFull
	router := newTestRouter(t, mh, "")

	if rec := serve(router, http.MethodPost, "/api/player/join", `{"name":"x"}`, ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMatchStartUsesBaseContext(t *testing.T) {
	mh := newMockHost()
	router := newTestRouter(t, mh, "")

	if rec := serve(router, http.MethodPost, "/api/match/start", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if mh.startCtx == nil || mh.startCtx.Err() != nil {
		t.Error("start context should outlive the request")
	}

	mh.startErr = match.ErrAlreadyStarted
	if rec := serve(router, http.MethodPost, "/api/match/start", "", ""); rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}
}

func TestAdminTokenGuardsControlRoutes(t *testing.T) {
	router := newTestRouter(t, newMockHost(), "s3cret")

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"s3cret", http.StatusUnauthorized},
		{"Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		rec := serve(router, http.MethodPost, "/api/player/deploy", `{"player":1}`, tt.header)
		if rec.Code != tt.want {
			t.Errorf("Authorization %q status = %d, want %d", tt.header, rec.Code, tt.want)
		}
	}

	// Reads stay open
	if rec := serve(router, http.MethodGet, "/api/state", "", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /api/state status = %d", rec.Code)
	}
}

func TestRateLimitRejects(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	defer rl.Stop()

	router := NewRouter(RouterConfig{
		Host:           newMockHost(),
		Match:          mockMatch{},
		RateLimiter:    rl,
		DisableLogging: true,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
	if stats := rl.GetStats(); stats["rejected"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}
