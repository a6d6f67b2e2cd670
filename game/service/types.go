package service

import (
	"github.com/tilegames/rummikub-server/game/engine"
)

// JoinResult contains the outcome of joining a game.
type JoinResult struct {
	Game       *engine.GameInfo `json:"game"`
	PlayerID   string           `json:"player_id"`
	PlayerName string           `json:"player_name"`
	Rejoined   bool             `json:"rejoined"`
}

// ActionResult contains the outcome of a player action. Rule violations are
// reported here with Success=false; transport and storage failures surface
// as ordinary errors instead.
type ActionResult struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Kind       engine.ErrorKind  `json:"error_kind,omitempty"`
	Won        bool              `json:"won,omitempty"`
	GameStatus engine.GameStatus `json:"game_status,omitempty"`
	Game       *engine.GameInfo  `json:"game,omitempty"`
}
