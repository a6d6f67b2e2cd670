package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tilegames/rummikub-server/game/engine"
	"github.com/tilegames/rummikub-server/game/service"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rummikub Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rummikub - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Be the first player to place every tile from your hand onto the table in
valid groups (same number, different colors) and runs (consecutive numbers,
same color). Your first placement must total at least 30 points.

AVAILABLE TOOLS:
- create_game: Create a new game (2-4 players)
- join_game: Join a game by name; returns your session token
- game_info: Public view of a game (no hands)
- game_state: Your private view, requires your token
- play_action: Place tiles, rearrange the table, or draw; requires your token

Keep your session token: game_state and play_action need it.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new Rummikub game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"max_players": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of players, 2 to 4 (default 4)",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join a game by player name. Returns a session token for gameplay tools.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID to join",
				},
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Your player name",
				},
			},
			Required: []string{"game_id", "player_name"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_info",
		Description: "Get the public view of a game: status, players and tile counts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get your private view of a game: your tiles, the table, whose turn it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Session token from join_game",
				},
			},
			Required: []string{"game_id", "token"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play_action",
		Description: "Play your turn: place_tiles (tile IDs from your hand forming one combination), rearrange (full target layout as combinations of tile IDs), or draw_tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Session token from join_game",
				},
				"action_type": map[string]interface{}{
					"type":        "string",
					"description": "One of: place_tiles, rearrange, draw_tile",
				},
				"tiles": map[string]interface{}{
					"type":        "array",
					"description": "Tile IDs from your hand (place_tiles)",
					"items":       map[string]interface{}{"type": "string"},
				},
				"combinations": map[string]interface{}{
					"type":        "array",
					"description": "Target table layout as arrays of tile IDs (rearrange or multi-combination placement)",
					"items": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
			},
			Required: []string{"game_id", "token", "action_type"},
		},
	}, c.handlePlayAction)
}

// GetMCPServer returns the underlying MCP server for mounting.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path, token string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Rule rejections come back as an ActionResult body; surface the
		// message either way.
		data, _ := io.ReadAll(resp.Body)
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		json.Unmarshal(data, &errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		if errResp.Message != "" {
			return fmt.Errorf("%s", errResp.Message)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	body := map[string]interface{}{}
	if maxPlayers, ok := args["max_players"].(float64); ok {
		body["max_players"] = int(maxPlayers)
	}

	var info engine.GameInfo
	if err := c.apiCall("POST", "/api/games", "", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nMax players: %d\nShare the game ID so others can join.",
		info.GameID, info.MaxPlayers)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	playerName, _ := args["player_name"].(string)

	var response struct {
		Token    string           `json:"token"`
		PlayerID string           `json:"player_id"`
		Rejoined bool             `json:"rejoined"`
		Game     *engine.GameInfo `json:"game"`
	}
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/join", gameID), "", map[string]string{
		"player_name": playerName,
	}, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	verb := "Joined"
	if response.Rejoined {
		verb = "Re-joined"
	}
	result := fmt.Sprintf("%s game %s as %s\nSession token: %s\n\n%s",
		verb, gameID, playerName, response.Token, formatGameInfo(response.Game))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var info engine.GameInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/games/%s", gameID), "", nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&info)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	token, _ := args["token"].(string)

	var state engine.PlayerState
	err := c.apiCall("GET", fmt.Sprintf("/api/games/%s/state", gameID), token, nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlayerState(&state)), nil
}

func (c *Client) handlePlayAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	token, _ := args["token"].(string)
	actionType, _ := args["action_type"].(string)

	body := map[string]interface{}{
		"action_type": actionType,
	}
	if tilesRaw, ok := args["tiles"].([]interface{}); ok {
		tiles := make([]string, 0, len(tilesRaw))
		for _, t := range tilesRaw {
			if id, ok := t.(string); ok {
				tiles = append(tiles, id)
			}
		}
		body["tiles"] = tiles
	}
	if combosRaw, ok := args["combinations"].([]interface{}); ok {
		combos := make([][]string, 0, len(combosRaw))
		for _, c := range combosRaw {
			ids, ok := c.([]interface{})
			if !ok {
				continue
			}
			combo := make([]string, 0, len(ids))
			for _, id := range ids {
				if s, ok := id.(string); ok {
					combo = append(combo, s)
				}
			}
			combos = append(combos, combo)
		}
		body["combinations"] = combos
	}

	var result service.ActionResult
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/actions", gameID), token, body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

// Formatting helpers

func formatGameInfo(info *engine.GameInfo) string {
	if info == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game %s\n", info.GameID)
	fmt.Fprintf(&b, "Status: %s\n", info.Status)
	fmt.Fprintf(&b, "Players: %d/%d\n", info.PlayerCount, info.MaxPlayers)
	for _, p := range info.Players {
		meld := ""
		if p.HasInitialMeld {
			meld = ", opened"
		}
		fmt.Fprintf(&b, "- %s: %d tiles (%s%s)\n", p.Name, p.TileCount, p.Status, meld)
	}
	return b.String()
}

func formatPlayerState(state *engine.PlayerState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %s (%s)\n", state.GameID, state.Status)
	fmt.Fprintf(&b, "Current turn: %s", state.CurrentPlayer)
	if state.CanPlay {
		b.WriteString(" (you)")
	}
	b.WriteString("\n\nTable:\n")
	if len(state.Board) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, combo := range state.Board {
		fmt.Fprintf(&b, "  [%s] %s\n", combo.ID, formatTiles(combo.Tiles))
	}
	fmt.Fprintf(&b, "\nYour tiles (%d):\n", len(state.YourTiles))
	for _, tile := range state.YourTiles {
		fmt.Fprintf(&b, "  %s  id=%s\n", tile.String(), tile.ID)
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	b.WriteString(result.Message)
	if result.Won {
		b.WriteString("\n\nYou won the game!")
	}
	if result.Game != nil {
		b.WriteString("\n\n")
		b.WriteString(formatGameInfo(result.Game))
	}
	return b.String()
}

func formatTiles(tiles []engine.Tile) string {
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
