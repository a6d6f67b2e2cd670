package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tilegames/rummikub-server/game/engine"
	"github.com/tilegames/rummikub-server/game/service"
	"github.com/tilegames/rummikub-server/game/session"
	"github.com/tilegames/rummikub-server/transport/websocket"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Server represents the REST API server.
type Server struct {
	service  service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
	router   *mux.Router
	logger   *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(gameService service.GameService, sessions *session.Manager, hub *websocket.Hub, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		service:  gameService,
		sessions: sessions,
		hub:      hub,
		router:   mux.NewRouter(),
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Game lifecycle
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")
	api.HandleFunc("/games/{id}/join", s.handleJoinGame).Methods("POST")

	// Gameplay (requires a session token)
	api.Handle("/games/{id}/actions", s.requireSession(s.handlePerformAction)).Methods("POST")
	api.Handle("/games/{id}/state", s.requireSession(s.handleGetState)).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForKind maps a rule error classification to an HTTP status.
func statusForKind(kind engine.ErrorKind) int {
	switch kind {
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindNotYourTurn, engine.KindWrongPhase:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	if engine.IsRuleError(err) {
		respondError(w, statusForKind(engine.KindOf(err)), err.Error())
		return
	}
	s.logger.WithError(err).Error("Request failed")
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// requireSession resolves the bearer token and checks it belongs to the
// requested game before invoking the handler.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, *session.Session)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		sess, err := s.sessions.Get(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		if sess.GameID != mux.Vars(r)["id"] {
			respondError(w, http.StatusForbidden, "session does not belong to this game")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess)), sess)
	})
}

// Game Lifecycle Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	req := struct {
		MaxPlayers int `json:"max_players"`
	}{MaxPlayers: engine.MaxPlayersLimit}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	info, err := s.service.CreateGame(r.Context(), req.MaxPlayers)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GameInfo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	// Confirm the game exists so deletes of unknown IDs 404.
	if _, err := s.service.GameInfo(r.Context(), gameID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	if err := s.service.DeleteGame(r.Context(), gameID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Game deleted"})
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerName string `json:"player_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.service.JoinGame(r.Context(), gameID, req.PlayerName)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	sess, err := s.sessions.Create(r.Context(), gameID, result.PlayerID, result.PlayerName)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	if s.hub != nil && !result.Rejoined {
		s.hub.BroadcastGameUpdate(gameID, result.Game)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":       sess.Token,
		"player_id":   result.PlayerID,
		"player_name": result.PlayerName,
		"rejoined":    result.Rejoined,
		"game":        result.Game,
	})
}

// Gameplay Handlers

func (s *Server) handlePerformAction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		ActionType   string     `json:"action_type"`
		Tiles        []string   `json:"tiles,omitempty"`
		Combinations [][]string `json:"combinations,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action := engine.Action{
		Type:         engine.ActionType(req.ActionType),
		Tiles:        req.Tiles,
		Combinations: req.Combinations,
	}

	result, err := s.service.PerformAction(r.Context(), sess.GameID, sess.PlayerID, action)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	if result.Success {
		if s.hub != nil {
			s.hub.BroadcastGameUpdate(sess.GameID, result.Game)
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	respondJSON(w, statusForKind(result.Kind), result)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	state, err := s.service.GameState(r.Context(), sess.GameID, sess.PlayerID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		http.Error(w, "game parameter required", http.StatusBadRequest)
		return
	}

	// Verify the game exists before upgrading.
	if _, err := s.service.GameInfo(r.Context(), gameID); err != nil {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, gameID)
}

// Health check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
