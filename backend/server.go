// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
)

func generateETag(data []byte) string {
	return fmt.Sprintf("\"%x\"", sha256.Sum256(data))
}

// Options configures the server.
type Options struct {
	Addr     string
	Cert     *tls.Certificate
	DataDir  string
	Debug    bool
	Listener net.Listener

	// Injected stores, created from DataDir when nil.
	Storage    *storage.Storage
	GameStore  *GameStore
	TeamStore  *TeamStore
	Registry   *Registry
	Scoreboard *ScoreboardManager
	Metrics    *Metrics

	// Rules is the rule configuration applied to every game. Nil means
	// DefaultRuleConfiguration.
	Rules *RuleConfiguration

	// Auth Options
	UseMockAuth    bool
	AuthCookieName string
	AuthJWKSURL    string
}

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	gameStore  *GameStore
	registry   *Registry
	scoreboard *ScoreboardManager
}

// Shutdown gracefully shuts down the server, flushing dirty games.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []string

	if s.scoreboard != nil {
		s.scoreboard.Shutdown()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Sprintf("http: %v", err))
	}
	if s.gameStore != nil {
		if err := s.gameStore.FlushAll(); err != nil {
			errs = append(errs, fmt.Sprintf("flush: %v", err))
		}
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("registry: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %s", strings.Join(errs, ", "))
	}
	return nil
}

// StartServer starts the web server and registers the API handlers.
func StartServer(opts Options) (*Server, error) {
	api, handler, err := NewServerHandler(opts)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Cert},
		}
	}

	go func() {
		var err error
		if opts.Listener != nil {
			if httpServer.TLSConfig != nil {
				log.Printf("Starting HTTPS server on provided listener %s...", opts.Listener.Addr())
				err = httpServer.ServeTLS(opts.Listener, "", "")
			} else {
				log.Printf("Starting HTTP server on provided listener %s...", opts.Listener.Addr())
				err = httpServer.Serve(opts.Listener)
			}
		} else {
			log.Printf("Server starting on %s...", opts.Addr)
			if opts.Cert != nil {
				err = httpServer.ListenAndServeTLS("", "")
			} else {
				err = httpServer.ListenAndServe()
			}
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return &Server{
		httpServer: httpServer,
		gameStore:  api.store,
		registry:   api.registry,
		scoreboard: api.scoreboard,
	}, nil
}

// apiServer holds the wired collaborators behind the HTTP handlers.
type apiServer struct {
	store      *GameStore
	tStore     *TeamStore
	registry   *Registry
	scoreboard *ScoreboardManager
	metrics    *Metrics
	recorder   *Recorder
	lineups    *LineupManager
	rules      RuleConfiguration
	debug      bool

	// gameMu serializes mutating calls per game id. Stores *sync.Mutex.
	gameMu sync.Map
}

func (a *apiServer) lockGame(gameId string) func() {
	m, _ := a.gameMu.LoadOrStore(gameId, &sync.Mutex{})
	mutex := m.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

// NewServerHandler creates and configures the HTTP handler for the server.
func NewServerHandler(opts Options) (*apiServer, http.Handler, error) {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(opts.DataDir, nil)
	}

	store := opts.GameStore
	if store == nil {
		store = NewGameStore(opts.DataDir, opts.Storage)
		store.Debug = opts.Debug
	}
	tStore := opts.TeamStore
	if tStore == nil {
		tStore = NewTeamStore(opts.DataDir, opts.Storage)
	}

	registry := opts.Registry
	if registry == nil {
		var err error
		registry, err = OpenRegistry(filepath.Join(opts.DataDir, "registry.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("open registry: %w", err)
		}
		if err := registry.Rebuild(store); err != nil {
			log.Printf("Warning: registry rebuild failed: %v", err)
		}
	}
	store.SetIndex(registry)

	scoreboard := opts.Scoreboard
	if scoreboard == nil {
		scoreboard = NewScoreboardManager()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	rules := DefaultRuleConfiguration()
	if opts.Rules != nil {
		rules = *opts.Rules
	}

	a := &apiServer{
		store:      store,
		tStore:     tStore,
		registry:   registry,
		scoreboard: scoreboard,
		metrics:    metrics,
		recorder:   NewRecorder(store, rules),
		lineups:    NewLineupManager(store, tStore),
		rules:      rules,
		debug:      opts.Debug,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/me", a.handleMe)
	mux.HandleFunc("POST /api/games", a.handleCreateGame)
	mux.HandleFunc("GET /api/games", a.handleListGames)
	mux.HandleFunc("GET /api/games/{id}", a.handleLoadGame)
	mux.HandleFunc("DELETE /api/games/{id}", a.handleDeleteGame)
	mux.HandleFunc("POST /api/games/{id}/lineup", a.handleLineup)
	mux.HandleFunc("POST /api/games/{id}/atbat", a.handleAtBat)
	mux.HandleFunc("GET /api/games/{id}/outcomes", a.handleOutcomes)
	mux.HandleFunc("POST /api/games/{id}/start", a.handleLifecycle)
	mux.HandleFunc("POST /api/games/{id}/complete", a.handleLifecycle)
	mux.HandleFunc("POST /api/games/{id}/suspend", a.handleLifecycle)
	mux.HandleFunc("POST /api/games/{id}/resume", a.handleLifecycle)
	mux.HandleFunc("GET /ws/scoreboard/{id}", a.handleScoreboard)
	mux.HandleFunc("GET /api/metrics", a.handleMetrics)

	mux.HandleFunc("POST /api/teams", a.handleSaveTeam)
	mux.HandleFunc("GET /api/teams/{id}", a.handleLoadTeam)

	handler := http.Handler(mux)
	if opts.UseMockAuth {
		handler = mockAuthMiddleware(opts, handler)
	} else {
		handler = jwtAuthMiddleware(opts, handler)
	}
	handler = a.loggingMiddleware(handler)
	handler = securityMiddleware(handler)

	return a, handler, nil
}

func (a *apiServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.metrics.RecordRequest()
		if a.debug {
			log.Printf("Received request: %s %s", r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// writeEngineError maps typed engine errors onto HTTP statuses. Anything
// untyped is a 500.
func (a *apiServer) writeEngineError(w http.ResponseWriter, err error) {
	if ee, ok := AsEngineError(err); ok {
		status := http.StatusInternalServerError
		switch ee.Code {
		case CodeNotFound:
			status = http.StatusNotFound
		case CodeValidation:
			status = http.StatusBadRequest
		case CodeRuleViolation, CodeConfigurableRule:
			status = http.StatusUnprocessableEntity
			a.metrics.RecordRuleViolation()
		case CodeStateMachine:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]errorBody{"error": {
			Code:    string(ee.Code),
			Rule:    string(ee.Rule),
			Message: ee.Message,
		}})
		return
	}
	if os.IsNotExist(err) {
		writeJSON(w, http.StatusNotFound, map[string]errorBody{"error": {
			Code: string(CodeNotFound), Message: "not found",
		}})
		return
	}
	log.Printf("Internal Server Error: %v", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// requireGame loads the game and checks the caller's access level.
func (a *apiServer) requireGame(w http.ResponseWriter, r *http.Request, level AccessLevel) (*Game, bool) {
	gameId := r.PathValue("id")
	if gameId == "" || !isValidUUID(gameId) {
		http.Error(w, "Bad Request: gameId is missing or invalid", http.StatusBadRequest)
		return nil, false
	}
	g, err := a.store.LoadGame(gameId)
	if err != nil {
		a.writeEngineError(w, err)
		return nil, false
	}
	if g.Status == StatusDeleted {
		a.writeEngineError(w, notFoundErr("game %s not found", gameId))
		return nil, false
	}
	if GetGameAccess(getUserID(r), *g, a.tStore) < level {
		http.Error(w, "Forbidden: You do not have access to this game", http.StatusForbidden)
		return nil, false
	}
	return g, true
}

func (a *apiServer) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"userId": getUserID(r)})
}

func (a *apiServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	userId := getUserID(r)
	if userId == "" || !isValidEmail(userId) {
		http.Error(w, "Forbidden: Invalid User ID", http.StatusForbidden)
		return
	}

	var payload GameMetadataPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1048576)).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ValidateGameMetadata(payload); err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	g := NewGame(userId)
	g.Date = payload.Date
	g.Location = payload.Location
	g.Event = payload.Event
	g.Away = payload.Away
	g.Home = payload.Home
	g.AwayTeamID = payload.AwayTeamID
	g.HomeTeamID = payload.HomeTeamID
	if payload.ScheduledInnings > 0 {
		g.ScheduledInnings = payload.ScheduledInnings
	}

	if err := a.store.SaveGame(g); err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *apiServer) handleListGames(w http.ResponseWriter, r *http.Request) {
	userId := getUserID(r)
	if userId == "" || !isValidEmail(userId) {
		http.Error(w, "Forbidden: Invalid User ID", http.StatusForbidden)
		return
	}

	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	games, err := a.registry.ListGames(userId, query)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	total := len(games)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"games":  games[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (a *apiServer) handleLoadGame(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessRead)
	if !ok {
		return
	}
	data, err := json.Marshal(g)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	etag := generateETag(data)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (a *apiServer) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessAdmin)
	if !ok {
		return
	}
	unlock := a.lockGame(g.ID)
	defer unlock()

	if err := a.store.DeleteGame(g.ID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleLineup(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessWrite)
	if !ok {
		return
	}

	var cmd SetupLineupCommand
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1048576)).Decode(&cmd); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	cmd.GameID = g.ID
	if err := ValidateSetupLineupCommand(cmd); err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	unlock := a.lockGame(g.ID)
	defer unlock()

	if err := a.lineups.SetupLineup(cmd); err != nil {
		a.writeEngineError(w, err)
		return
	}
	updated, err := a.store.LoadGame(g.ID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *apiServer) handleAtBat(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessWrite)
	if !ok {
		return
	}

	var cmd RecordAtBatCommand
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1048576)).Decode(&cmd); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	cmd.GameID = g.ID
	if err := ValidateRecordAtBatCommand(cmd); err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	unlock := a.lockGame(g.ID)
	defer unlock()

	start := time.Now()
	ab, err := a.recorder.RecordAtBat(cmd)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	a.metrics.RecordAtBat(time.Since(start))

	updated, err := a.store.LoadGame(g.ID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	a.scoreboard.Publish(updated)

	writeJSON(w, http.StatusCreated, map[string]any{
		"atBat": ab,
		"game":  updated,
	})
}

func (a *apiServer) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessRead)
	if !ok {
		return
	}

	result := BattingResult(r.URL.Query().Get("result"))
	if !result.Known() {
		http.Error(w, "Bad Request: unknown result", http.StatusBadRequest)
		return
	}
	agg := Aggressiveness(r.URL.Query().Get("aggressiveness"))
	if agg != "" && !agg.Known() {
		http.Error(w, "Bad Request: unknown aggressiveness", http.StatusBadRequest)
		return
	}
	params := AdvancementParams{
		Aggressiveness:       agg,
		ErrorOccurred:        r.URL.Query().Get("error") == "true",
		RunningErrorOccurred: r.URL.Query().Get("runningError") == "true",
	}
	batterId := r.URL.Query().Get("batterId")
	if batterId == "" {
		batterId = "batter"
	}

	outcomes := EnumerateOutcomes(a.rules, g.Bases, batterId, result, params)
	writeJSON(w, http.StatusOK, map[string]any{
		"gameId":   g.ID,
		"result":   result,
		"outcomes": outcomes,
	})
}

func (a *apiServer) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessWrite)
	if !ok {
		return
	}
	unlock := a.lockGame(g.ID)
	defer unlock()

	// Reload under the lock; requireGame read a possibly stale snapshot.
	g, err := a.store.LoadGame(g.ID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}

	op := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	var vErr *EngineError
	switch op {
	case "start":
		vErr = g.Start()
	case "complete":
		vErr = g.Complete()
	case "suspend":
		vErr = g.Suspend()
	case "resume":
		vErr = g.Resume()
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if vErr != nil {
		a.writeEngineError(w, vErr)
		return
	}
	g.UpdatedAt = time.Now().UnixNano()

	if err := a.store.SaveGame(g); err != nil {
		a.writeEngineError(w, err)
		return
	}
	a.scoreboard.Publish(g)
	writeJSON(w, http.StatusOK, g)
}

func (a *apiServer) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	g, ok := a.requireGame(w, r, AccessRead)
	if !ok {
		return
	}
	a.scoreboard.ServeWS(w, r, g.ID)
}

func (a *apiServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.metrics.ToJSON())
}

func (a *apiServer) handleSaveTeam(w http.ResponseWriter, r *http.Request) {
	userId := getUserID(r)
	if userId == "" || !isValidEmail(userId) {
		http.Error(w, "Forbidden: Invalid User ID", http.StatusForbidden)
		return
	}

	var t Team
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1048576)).Decode(&t); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if t.ID == "" {
		http.Error(w, "Bad Request: team id is required", http.StatusBadRequest)
		return
	}
	if existing, err := a.tStore.LoadTeam(t.ID); err == nil {
		if GetTeamAccess(userId, *existing) < AccessAdmin {
			http.Error(w, "Forbidden: You do not have access to this team", http.StatusForbidden)
			return
		}
		t.OwnerID = existing.OwnerID
	} else if os.IsNotExist(err) {
		t.OwnerID = userId
	} else {
		a.writeEngineError(w, err)
		return
	}
	t.SchemaVersion = CurrentSchemaVersion
	t.UpdatedAt = time.Now().UnixNano()
	t.normalize()

	if err := a.tStore.SaveTeam(&t); err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *apiServer) handleLoadTeam(w http.ResponseWriter, r *http.Request) {
	teamId := r.PathValue("id")
	t, err := a.tStore.LoadTeam(teamId)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	if GetTeamAccess(getUserID(r), *t) < AccessRead {
		http.Error(w, "Forbidden: You do not have access to this team", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
