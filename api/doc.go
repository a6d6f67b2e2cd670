// Package api provides the REST interface for the Rummikub server.
//
// Endpoints:
//
//	POST   /api/games              Create a game ({"max_players": 2..4})
//	GET    /api/games/{id}         Public game projection
//	DELETE /api/games/{id}         Remove a game
//	POST   /api/games/{id}/join    Join (or re-join) by player name;
//	                               returns a bearer token for gameplay
//	POST   /api/games/{id}/actions Apply an action (authenticated)
//	GET    /api/games/{id}/state   Player-scoped state (authenticated)
//	GET    /ws?game={id}           WebSocket for public game updates
//	GET    /health                 Liveness check
//
// Authentication:
//
// Joining a game issues a session token. Gameplay endpoints require it as
// an Authorization: Bearer header; the token pins both the player identity
// and the game, so one player can never act or peek in another's name.
//
// Error Mapping:
//
// Rule violations carry a machine-readable kind which maps onto HTTP
// status codes: unknown resources become 404, out-of-turn and wrong-phase
// actions become 409, everything else a player got wrong becomes 400.
// Infrastructure failures are 500 with a generic body.
package api
