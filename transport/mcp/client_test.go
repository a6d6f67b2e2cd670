package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tilegames/rummikub-server/game/engine"
	"github.com/tilegames/rummikub-server/game/service"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result with content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Expected bearer token header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"game_id": "g1"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall("GET", "/api/games/g1", "tok", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["game_id"] != "g1" {
		t.Errorf("Unexpected response: %v", response)
	}
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("GET", "/api/games/missing", "", nil, nil)
	if err == nil || err.Error() != "game not found" {
		t.Errorf("Expected server error message, got: %v", err)
	}
}

func TestClient_apiCall_RejectedAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(service.ActionResult{
			Success: false,
			Message: "not your turn",
			Kind:    engine.KindNotYourTurn,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("POST", "/api/games/g1/actions", "tok", map[string]string{"action_type": "draw_tile"}, nil)
	if err == nil || !strings.Contains(err.Error(), "not your turn") {
		t.Errorf("Expected rejection message, got: %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall("GET", "/api", "", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestClient_handleCreateGame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/games" {
			t.Errorf("Expected POST /api/games, got %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(engine.GameInfo{
			GameID:     "game-123",
			Status:     engine.GameWaiting,
			MaxPlayers: 3,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateGame(context.Background(), toolRequest("create_game", map[string]interface{}{
		"max_players": float64(3),
	}))
	if err != nil {
		t.Fatalf("handleCreateGame failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "game-123") {
		t.Errorf("Expected game ID in result, got: %s", text)
	}
}

func TestClient_handleJoinGame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games/game-123/join" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":       "deadbeefdeadbeefdeadbeefdeadbeef",
			"player_id":   "p1",
			"player_name": "alice",
			"rejoined":    false,
			"game": engine.GameInfo{
				GameID:      "game-123",
				Status:      engine.GameWaiting,
				PlayerCount: 1,
				MaxPlayers:  2,
				Players:     []engine.PlayerInfo{{Name: "alice", TileCount: 14}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleJoinGame(context.Background(), toolRequest("join_game", map[string]interface{}{
		"game_id":     "game-123",
		"player_name": "alice",
	}))
	if err != nil {
		t.Fatalf("handleJoinGame failed: %v", err)
	}

	text := textContent(t, result)
	for _, want := range []string{"Joined game game-123", "deadbeefdeadbeefdeadbeefdeadbeef", "alice: 14 tiles"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleGameState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Expected token forwarded, got %q", got)
		}
		json.NewEncoder(w).Encode(engine.PlayerState{
			GameID:        "game-123",
			Status:        engine.GameInProgress,
			CurrentPlayer: "alice",
			CanPlay:       true,
			YourTiles: []engine.Tile{
				engine.NewTile(7, engine.Red),
				engine.NewJoker(),
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleGameState(context.Background(), toolRequest("game_state", map[string]interface{}{
		"game_id": "game-123",
		"token":   "tok",
	}))
	if err != nil {
		t.Fatalf("handleGameState failed: %v", err)
	}

	text := textContent(t, result)
	for _, want := range []string{"Current turn: alice (you)", "Your tiles (2):", "7R", "J"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handlePlayAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ActionType   string     `json:"action_type"`
			Tiles        []string   `json:"tiles"`
			Combinations [][]string `json:"combinations"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.ActionType != "place_tiles" || len(req.Tiles) != 3 {
			t.Errorf("Unexpected action payload: %+v", req)
		}
		json.NewEncoder(w).Encode(service.ActionResult{
			Success:    true,
			Message:    "Tiles placed successfully: placed 1 new combination",
			GameStatus: engine.GameInProgress,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handlePlayAction(context.Background(), toolRequest("play_action", map[string]interface{}{
		"game_id":     "game-123",
		"token":       "tok",
		"action_type": "place_tiles",
		"tiles":       []interface{}{"a", "b", "c"},
	}))
	if err != nil {
		t.Fatalf("handlePlayAction failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "Tiles placed successfully") {
		t.Errorf("Expected success message, got: %s", text)
	}
}

func TestFormatGameInfo(t *testing.T) {
	info := &engine.GameInfo{
		GameID:      "g1",
		Status:      engine.GameInProgress,
		PlayerCount: 2,
		MaxPlayers:  4,
		Players: []engine.PlayerInfo{
			{Name: "alice", Status: engine.PlayerPlaying, TileCount: 11, HasInitialMeld: true},
			{Name: "bob", Status: engine.PlayerPlaying, TileCount: 14},
		},
	}

	result := formatGameInfo(info)

	for _, want := range []string{"Game g1", "Players: 2/4", "alice: 11 tiles", "opened", "bob: 14 tiles"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in formatted output, got: %s", want, result)
		}
	}
}

func TestFormatActionResult_Win(t *testing.T) {
	result := formatActionResult(&service.ActionResult{
		Success: true,
		Message: "alice has played all tiles and wins",
		Won:     true,
	})

	if !strings.Contains(result, "You won the game!") {
		t.Errorf("Expected win banner, got: %s", result)
	}
}
