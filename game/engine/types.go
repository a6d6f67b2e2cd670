package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Color represents a tile color
type Color string

const (
	Black  Color = "black"
	Red    Color = "red"
	Blue   Color = "blue"
	Orange Color = "orange"

	// Game constants
	MinNumber          = 1
	MaxNumber          = 13
	NumberCopies       = 2
	JokerCount         = 2
	PoolSize           = 106
	InitialHandSize    = 14
	MinCombinationSize = 3
	MaxGroupSize       = 4
	InitialMeldMinimum = 30
	MinPlayers         = 2
	MaxPlayersLimit    = 4
)

// TileColors lists all tile colors in generation order.
var TileColors = []Color{Black, Red, Blue, Orange}

// Tile is a single physical tile. Identity is by ID, never by (number, color):
// two physical tiles can share the same face.
type Tile struct {
	ID      string `json:"id"`
	Number  int    `json:"number,omitempty"`
	Color   Color  `json:"color,omitempty"`
	IsJoker bool   `json:"is_joker,omitempty"`
}

// NewTile creates a numbered tile with a fresh unique ID.
func NewTile(number int, color Color) Tile {
	return Tile{
		ID:     uuid.NewString(),
		Number: number,
		Color:  color,
	}
}

// NewJoker creates a joker tile with a fresh unique ID.
func NewJoker() Tile {
	return Tile{
		ID:      uuid.NewString(),
		IsJoker: true,
	}
}

// Value returns the point value of the tile. Jokers are worth 0.
func (t Tile) Value() int {
	if t.IsJoker {
		return 0
	}
	return t.Number
}

// String renders a compact face like "7R" or "J" for logs. Black is "K" so
// it cannot be confused with blue.
func (t Tile) String() string {
	if t.IsJoker {
		return "J"
	}
	var c string
	switch t.Color {
	case Black:
		c = "K"
	case Red:
		c = "R"
	case Blue:
		c = "B"
	case Orange:
		c = "O"
	default:
		c = "?"
	}
	return fmt.Sprintf("%d%s", t.Number, c)
}

// Combination is an ordered set of tiles placed together on the board.
type Combination struct {
	ID    string `json:"id"`
	Tiles []Tile `json:"tiles"`
}

// NewCombination creates a combination from the given tiles with a fresh ID.
func NewCombination(tiles []Tile) Combination {
	return Combination{
		ID:    uuid.NewString(),
		Tiles: tiles,
	}
}

// PlayerStatus tracks a player's lifecycle within a game
type PlayerStatus string

const (
	PlayerWaiting  PlayerStatus = "waiting"
	PlayerPlaying  PlayerStatus = "playing"
	PlayerFinished PlayerStatus = "finished"
)

// Player holds a participant's hand and meld progress.
type Player struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Tiles          []Tile       `json:"tiles"`
	Status         PlayerStatus `json:"status"`
	HasInitialMeld bool         `json:"has_initial_meld"`
}

// GameStatus tracks the game lifecycle
type GameStatus string

const (
	GameWaiting    GameStatus = "waiting"
	GameInProgress GameStatus = "in_progress"
	GameFinished   GameStatus = "finished"
)

// Game is the authoritative aggregate: players, board, pool and turn pointer.
// It is plain data plus state-machine methods; callers are responsible for
// serializing concurrent access (see game/service).
type Game struct {
	ID                 string        `json:"id"`
	Status             GameStatus    `json:"status"`
	Players            []*Player     `json:"players"`
	Board              []Combination `json:"board"`
	Pool               []Tile        `json:"tile_pool"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	MaxPlayers         int           `json:"max_players"`
	CreatedAt          time.Time     `json:"created_at"`
}

// ActionType identifies the kind of move a player submits.
type ActionType string

const (
	ActionPlaceTiles ActionType = "place_tiles"
	ActionDrawTile   ActionType = "draw_tile"
	ActionRearrange  ActionType = "rearrange"
)

// Action is a client-submitted move. Tiles carries tile IDs for a single new
// combination; Combinations carries a full-board replacement as lists of
// tile IDs.
type Action struct {
	Type         ActionType `json:"action_type"`
	Tiles        []string   `json:"tiles,omitempty"`
	Combinations [][]string `json:"combinations,omitempty"`
}

// ActionOutcome describes a successfully applied action.
type ActionOutcome struct {
	Message    string `json:"message"`
	Placed     int    `json:"placed,omitempty"`
	Rearranged bool   `json:"rearranged,omitempty"`
	Drew       bool   `json:"drew,omitempty"`
	Won        bool   `json:"won,omitempty"`
}

// PlayerInfo is the public view of a player: never includes hand tiles.
type PlayerInfo struct {
	Name           string       `json:"name"`
	Status         PlayerStatus `json:"status"`
	TileCount      int          `json:"tile_count"`
	HasInitialMeld bool         `json:"has_initial_meld"`
}

// PlayerState is the per-player projection of a game: the requesting player's
// own hand in full, everyone else by counts only.
type PlayerState struct {
	GameID        string        `json:"game_id"`
	Status        GameStatus    `json:"status"`
	Players       []PlayerInfo  `json:"players"`
	YourTiles     []Tile        `json:"your_tiles"`
	Board         []Combination `json:"board"`
	CurrentPlayer string        `json:"current_player,omitempty"`
	CanPlay       bool          `json:"can_play"`
}

// GameInfo is the identity-free public projection of a game.
type GameInfo struct {
	GameID      string       `json:"game_id"`
	Status      GameStatus   `json:"status"`
	PlayerCount int          `json:"player_count"`
	MaxPlayers  int          `json:"max_players"`
	Players     []PlayerInfo `json:"players"`
}
