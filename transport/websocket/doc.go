// Package websocket provides real-time game update push over WebSocket.
//
// The websocket package implements:
//   - Game-aware WebSocket connections
//   - Automatic broadcasting of public game projections on state changes
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// connections. Each client connection runs two goroutines, one reading and
// one writing, and the hub's event loop serializes registration and
// broadcast across games.
//
// Message Protocol:
//
// Messages are JSON-encoded and one-directional, server to client:
//   - {game_id: "...", event: "game_update", game: {...public projection...}}
//   - {game_id: "...", event: "...", data: ...} for custom events
//
// Clients never receive another player's hand over this channel; private
// state is only available through the authenticated REST endpoint.
//
// Game Integration:
//
// Clients specify the game they want to watch via query parameter
// (?game=<game_id>) when establishing the connection. Updates are broadcast
// only to clients watching that game.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//
//	// after a successful action
//	hub.BroadcastGameUpdate(gameID, info)
package websocket
