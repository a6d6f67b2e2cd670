package engine

import (
	"fmt"
	"sort"
	"strings"
)

// BoardChange is the computed result of a legal board transition. Nothing in
// it aliases the inputs; committing it is a pure swap of board and hand.
type BoardChange struct {
	Board []Combination
	Hand  []Tile

	// PlacedFromHand lists the tiles newly committed from the hand.
	PlacedFromHand []Tile

	// MeldValue is the summed value of the proposed combinations that
	// contain at least one newly committed tile. Only meaningful when the
	// player had not yet completed the initial meld.
	MeldValue int

	// MeldSatisfied is true when this change completed the initial meld.
	MeldSatisfied bool

	// Rearranged is true when a pre-existing combination's tile set was
	// altered by the change.
	Rearranged bool

	// Summary is a human-readable description of the change.
	Summary string
}

// ValidateBoardChange decides whether replacing the current board with the
// proposed combinations is legal for a player holding the given hand, and if
// so computes the resulting hand and a change description. Placing a new
// combination and freely rearranging the whole board are the same operation:
// a board diff.
//
// The checks run in order: tile conservation (every proposed tile must come
// from the hand or the current board), per-combination legality, then the
// initial-meld minimum over touched combinations. A failure at any step
// leaves the caller's state untouched.
func ValidateBoardChange(hand []Tile, board []Combination, proposed []Combination, hasInitialMeld bool) (*BoardChange, error) {
	if len(proposed) == 0 {
		return nil, newGameError(KindInvalidAction, "no combinations specified")
	}

	boardIDs := make(map[string]struct{})
	for _, combo := range board {
		for _, t := range combo.Tiles {
			boardIDs[t.ID] = struct{}{}
		}
	}

	handIDs := make(map[string]struct{}, len(hand))
	for _, t := range hand {
		handIDs[t.ID] = struct{}{}
	}

	// Conservation: every proposed tile must originate from the hand or the
	// current board, and no ID may appear twice across the proposal.
	seen := make(map[string]struct{})
	var unknown []string
	for _, combo := range proposed {
		for _, t := range combo.Tiles {
			if _, dup := seen[t.ID]; dup {
				return nil, newGameError(KindTileConservation, "tile %s (%s) appears more than once in the proposed board", t.ID, t)
			}
			seen[t.ID] = struct{}{}

			_, fromHand := handIDs[t.ID]
			_, fromBoard := boardIDs[t.ID]
			if !fromHand && !fromBoard {
				unknown = append(unknown, t.ID)
			}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, newGameError(KindTileConservation, "tiles not available to player: %s", strings.Join(unknown, ", "))
	}

	// The other direction: a tile already on the board must stay on the
	// board. A proposal that drops one would remove it from play.
	var missing []string
	for id := range boardIDs {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, newGameError(KindTileConservation, "board tiles missing from proposal: %s", strings.Join(missing, ", "))
	}

	// Every proposed combination must independently be a valid group or run.
	for _, combo := range proposed {
		if !combo.IsValid() {
			return nil, newGameError(KindInvalidCombination, "invalid combination: %s", describeTiles(combo.Tiles))
		}
	}

	// Hand delta: tiles on the proposed board that were not on the old board
	// were committed from the hand.
	placedIDs := make(map[string]struct{})
	var placed []Tile
	for _, combo := range proposed {
		for _, t := range combo.Tiles {
			if _, onBoard := boardIDs[t.ID]; !onBoard {
				placedIDs[t.ID] = struct{}{}
				placed = append(placed, t)
			}
		}
	}

	newHand := make([]Tile, 0, len(hand))
	for _, t := range hand {
		if _, gone := placedIDs[t.ID]; !gone {
			newHand = append(newHand, t)
		}
	}

	change := &BoardChange{
		Board:          proposed,
		Hand:           newHand,
		PlacedFromHand: placed,
	}

	// Initial meld: only combinations touched by newly committed tiles count
	// toward the 30-point minimum. Untouched pre-existing combinations do
	// not help.
	if !hasInitialMeld {
		for _, combo := range proposed {
			if comboContainsAny(combo, placedIDs) {
				change.MeldValue += combo.Value()
			}
		}
		if change.MeldValue < InitialMeldMinimum {
			return nil, newGameError(KindInsufficientMeld, "initial meld must be worth at least %d points, got %d", InitialMeldMinimum, change.MeldValue)
		}
		change.MeldSatisfied = true
	}

	change.Rearranged = rearrangedExisting(board, proposed)
	change.Summary = summarize(len(placed), len(board), len(proposed), change.Rearranged)

	return change, nil
}

// comboContainsAny reports whether the combination holds any of the given
// tile IDs.
func comboContainsAny(combo Combination, ids map[string]struct{}) bool {
	for _, t := range combo.Tiles {
		if _, ok := ids[t.ID]; ok {
			return true
		}
	}
	return false
}

// rearrangedExisting reports whether any pre-existing combination's tile-id
// set was altered, determined by set comparison: a combination survives
// untouched only if some proposed combination has exactly the same tile IDs.
func rearrangedExisting(board, proposed []Combination) bool {
	for _, old := range board {
		if !hasMatchingSet(old, proposed) {
			return true
		}
	}
	return false
}

func hasMatchingSet(combo Combination, candidates []Combination) bool {
	want := combo.tileIDs()
	for _, cand := range candidates {
		if len(cand.Tiles) != len(want) {
			continue
		}
		got := cand.tileIDs()
		match := true
		for id := range want {
			if _, ok := got[id]; !ok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func summarize(placed, oldCombos, newCombos int, rearranged bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "placed %d tile(s) from hand", placed)
	if delta := newCombos - oldCombos; delta != 0 {
		fmt.Fprintf(&b, ", combinations %d -> %d", oldCombos, newCombos)
	}
	if rearranged {
		b.WriteString(", rearranged existing combinations")
	}
	return b.String()
}

func describeTiles(tiles []Tile) string {
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
