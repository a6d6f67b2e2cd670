package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewGame allocates a game with a freshly shuffled pool, no players and no
// board, waiting for players to join.
func NewGame(maxPlayers int) (*Game, error) {
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayersLimit {
		return nil, newGameError(KindInvalidAction, "max_players must be between %d and %d, got %d", MinPlayers, MaxPlayersLimit, maxPlayers)
	}

	return &Game{
		ID:         uuid.NewString(),
		Status:     GameWaiting,
		Players:    []*Player{},
		Board:      []Combination{},
		Pool:       NewPool(),
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CurrentPlayer returns the player whose turn it is, or nil before any
// players have joined.
func (g *Game) CurrentPlayer() *Player {
	if len(g.Players) == 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// PlayerByID returns the player with the given ID, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName returns the player with the given name, or nil.
func (g *Game) PlayerByName(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Join adds a player by name, dealing 14 tiles from the pool. Joining an
// in-progress game under an existing name re-attaches to that player without
// dealing (multi-screen access to one identity). The game transitions
// waiting -> in_progress the moment the second player joins.
func (g *Game) Join(playerName string) (*Player, error) {
	existing := g.PlayerByName(playerName)

	if g.Status == GameInProgress && existing != nil {
		return existing, nil
	}

	if g.Status == GameFinished {
		return nil, newGameError(KindWrongPhase, "game has finished")
	}

	if g.Status != GameWaiting {
		return nil, newGameError(KindWrongPhase, "game is not accepting new players")
	}

	if len(g.Players) >= g.MaxPlayers {
		return nil, newGameError(KindWrongPhase, "game is full")
	}

	if existing != nil {
		return nil, newGameError(KindInvalidAction, "player name already taken")
	}

	hand, rest, err := Deal(g.Pool, InitialHandSize)
	if err != nil {
		return nil, err
	}

	player := &Player{
		ID:     uuid.NewString(),
		Name:   playerName,
		Tiles:  hand,
		Status: PlayerWaiting,
	}

	g.Pool = rest
	g.Players = append(g.Players, player)

	if len(g.Players) >= MinPlayers {
		g.Status = GameInProgress
		for _, p := range g.Players {
			p.Status = PlayerPlaying
		}
	}

	return player, nil
}

// Apply validates and applies an action for a player. A rejected action
// returns a GameError and leaves the game entirely unchanged; the turn never
// advances on failure.
func (g *Game) Apply(playerID string, action Action) (*ActionOutcome, error) {
	player := g.PlayerByID(playerID)
	if player == nil {
		return nil, newGameError(KindNotFound, "player not found")
	}

	if g.Status != GameInProgress {
		return nil, newGameError(KindWrongPhase, "game is not in progress")
	}

	current := g.CurrentPlayer()
	if current == nil || current.ID != player.ID {
		return nil, newGameError(KindNotYourTurn, "not your turn")
	}

	switch action.Type {
	case ActionPlaceTiles:
		return g.applyBoardChange(player, action)
	case ActionRearrange:
		if len(action.Combinations) == 0 {
			return nil, newGameError(KindInvalidAction, "rearrange requires combinations")
		}
		return g.applyBoardChange(player, action)
	case ActionDrawTile:
		return g.applyDraw(player)
	default:
		return nil, newGameError(KindInvalidAction, "invalid action type %q", action.Type)
	}
}

// applyBoardChange builds the proposed board from the action and delegates
// to the validator. Placing a single new combination and replacing the whole
// board run through the same diff.
func (g *Game) applyBoardChange(player *Player, action Action) (*ActionOutcome, error) {
	var proposed []Combination
	switch {
	case len(action.Combinations) > 0:
		combos, err := g.resolveCombinations(player, action.Combinations)
		if err != nil {
			return nil, err
		}
		proposed = combos
	case len(action.Tiles) > 0:
		tiles, err := g.resolveTiles(player, action.Tiles)
		if err != nil {
			return nil, err
		}
		proposed = append(append([]Combination{}, g.Board...), NewCombination(tiles))
	default:
		return nil, newGameError(KindInvalidAction, "no tiles specified")
	}

	change, err := ValidateBoardChange(player.Tiles, g.Board, proposed, player.HasInitialMeld)
	if err != nil {
		return nil, err
	}

	g.Board = change.Board
	player.Tiles = change.Hand
	if change.MeldSatisfied {
		player.HasInitialMeld = true
	}

	outcome := &ActionOutcome{
		Message:    "Tiles placed successfully: " + change.Summary,
		Placed:     len(change.PlacedFromHand),
		Rearranged: change.Rearranged,
	}

	if len(player.Tiles) == 0 {
		player.Status = PlayerFinished
		g.Status = GameFinished
		outcome.Won = true
		outcome.Message = player.Name + " has played all tiles and wins"
		return outcome, nil
	}

	g.nextTurn()
	return outcome, nil
}

// applyDraw pops one tile from the pool into the player's hand and advances
// the turn.
func (g *Game) applyDraw(player *Player) (*ActionOutcome, error) {
	tile, rest, err := Draw(g.Pool)
	if err != nil {
		return nil, err
	}

	g.Pool = rest
	player.Tiles = append(player.Tiles, tile)
	g.nextTurn()

	return &ActionOutcome{
		Message: "Tile drawn successfully",
		Drew:    true,
	}, nil
}

func (g *Game) nextTurn() {
	if len(g.Players) == 0 {
		return
	}
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
}

// resolveTiles maps tile IDs to tiles from the player's hand.
func (g *Game) resolveTiles(player *Player, ids []string) ([]Tile, error) {
	index := make(map[string]Tile, len(player.Tiles))
	for _, t := range player.Tiles {
		index[t.ID] = t
	}

	tiles := make([]Tile, 0, len(ids))
	for _, id := range ids {
		t, ok := index[id]
		if !ok {
			return nil, newGameError(KindTileConservation, "tile %s not found in hand", id)
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// resolveCombinations maps lists of tile IDs to combinations, drawing tiles
// from the player's hand and the current board.
func (g *Game) resolveCombinations(player *Player, lists [][]string) ([]Combination, error) {
	index := make(map[string]Tile)
	for _, t := range player.Tiles {
		index[t.ID] = t
	}
	for _, combo := range g.Board {
		for _, t := range combo.Tiles {
			index[t.ID] = t
		}
	}

	combos := make([]Combination, 0, len(lists))
	for _, ids := range lists {
		tiles := make([]Tile, 0, len(ids))
		for _, id := range ids {
			t, ok := index[id]
			if !ok {
				return nil, newGameError(KindTileConservation, "tiles not available to player: %s", id)
			}
			tiles = append(tiles, t)
		}
		combos = append(combos, NewCombination(tiles))
	}
	return combos, nil
}

// StateFor builds the player-scoped projection: the player's own hand in
// full, other players by counts only, the full board, and whose turn it is.
func (g *Game) StateFor(playerID string) (*PlayerState, error) {
	player := g.PlayerByID(playerID)
	if player == nil {
		return nil, newGameError(KindNotFound, "player not found")
	}

	state := &PlayerState{
		GameID:    g.ID,
		Status:    g.Status,
		Players:   g.playerInfos(),
		YourTiles: player.Tiles,
		Board:     g.Board,
	}

	if current := g.CurrentPlayer(); current != nil {
		state.CurrentPlayer = current.Name
		state.CanPlay = current.ID == player.ID
	}

	return state, nil
}

// Info builds the public projection: no identities required, no hands
// exposed.
func (g *Game) Info() *GameInfo {
	return &GameInfo{
		GameID:      g.ID,
		Status:      g.Status,
		PlayerCount: len(g.Players),
		MaxPlayers:  g.MaxPlayers,
		Players:     g.playerInfos(),
	}
}

func (g *Game) playerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(g.Players))
	for _, p := range g.Players {
		infos = append(infos, PlayerInfo{
			Name:           p.Name,
			Status:         p.Status,
			TileCount:      len(p.Tiles),
			HasInitialMeld: p.HasInitialMeld,
		})
	}
	return infos
}

// AuditConservation verifies the tile-conservation invariant: exactly
// PoolSize tiles across pool, hands and board, every ID unique. It returns
// a list of problems, empty when the game is sound. Used by cmd/audit and
// by tests.
func AuditConservation(g *Game) []string {
	var problems []string
	seen := make(map[string]string)
	total := 0

	record := func(t Tile, where string) {
		total++
		if prev, dup := seen[t.ID]; dup {
			problems = append(problems, "tile "+t.ID+" appears in both "+prev+" and "+where)
			return
		}
		seen[t.ID] = where
	}

	for _, t := range g.Pool {
		record(t, "pool")
	}
	for _, p := range g.Players {
		for _, t := range p.Tiles {
			record(t, "hand of "+p.Name)
		}
	}
	for _, combo := range g.Board {
		for _, t := range combo.Tiles {
			record(t, "board combination "+combo.ID)
		}
	}

	if total != PoolSize {
		problems = append(problems, fmt.Sprintf("expected %d tiles, found %d", PoolSize, total))
	}
	return problems
}
