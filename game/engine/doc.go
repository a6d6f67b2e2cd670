// Package engine implements the Rummikub rules engine: tile-pool generation,
// group/run legality, whole-board change validation with tile conservation
// and initial-meld scoring, and the turn state machine over the Game
// aggregate.
//
// The package is pure state plus rules. It performs no I/O and no locking;
// serializing concurrent access to a Game is the responsibility of
// game/service.
package engine
