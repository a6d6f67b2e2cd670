// Package mcp exposes the Rummikub server to MCP-capable agents.
//
// The package implements a thin proxy: every tool call is translated into a
// REST API request against the same server, so the MCP surface and the HTTP
// surface can never disagree about game rules or state.
//
// Tools:
//
//   - create_game: create a game for 2-4 players
//   - join_game:   join by name, returns the session token used below
//   - game_info:   public projection (players, tile counts, status)
//   - game_state:  private projection, requires the caller's token
//   - play_action: place_tiles, rearrange or draw_tile, requires the token
//
// Mounting:
//
//	client := mcp.NewClient("http://localhost:8080")
//	httpServer := server.NewStreamableHTTPServer(client.GetMCPServer())
//	mux.Handle("/mcp", httpServer)
package mcp
