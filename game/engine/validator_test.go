package engine

import (
	"strings"
	"testing"
)

func TestValidateBoardChange_PlaceNewCombination(t *testing.T) {
	hand := []Tile{NewTile(10, Red), NewTile(10, Blue), NewTile(10, Black), NewTile(2, Orange)}
	proposed := []Combination{NewCombination(hand[:3])}

	change, err := ValidateBoardChange(hand, nil, proposed, false)
	if err != nil {
		t.Fatalf("ValidateBoardChange failed: %v", err)
	}

	if len(change.PlacedFromHand) != 3 {
		t.Errorf("Expected 3 placed tiles, got %d", len(change.PlacedFromHand))
	}
	if len(change.Hand) != 1 {
		t.Errorf("Expected 1 tile left in hand, got %d", len(change.Hand))
	}
	if change.Hand[0].ID != hand[3].ID {
		t.Error("Wrong tile left in hand")
	}
	if change.MeldValue != 30 {
		t.Errorf("Expected meld value 30, got %d", change.MeldValue)
	}
	if !change.MeldSatisfied {
		t.Error("Expected initial meld to be satisfied")
	}
	if change.Rearranged {
		t.Error("No pre-existing combinations, nothing to rearrange")
	}
}

func TestValidateBoardChange_InsufficientMeld(t *testing.T) {
	hand := []Tile{NewTile(8, Red), NewTile(8, Blue), NewTile(8, Black)}
	proposed := []Combination{NewCombination(hand)}

	_, err := ValidateBoardChange(hand, nil, proposed, false)
	if err == nil {
		t.Fatal("Expected insufficient meld error for 24 points")
	}
	if KindOf(err) != KindInsufficientMeld {
		t.Errorf("Expected insufficient_meld kind, got %q", KindOf(err))
	}
	if !strings.Contains(err.Error(), "24") {
		t.Errorf("Error should name the computed total, got %q", err.Error())
	}
}

func TestValidateBoardChange_MeldAlreadyDone(t *testing.T) {
	hand := []Tile{NewTile(1, Red), NewTile(1, Blue), NewTile(1, Black)}
	proposed := []Combination{NewCombination(hand)}

	change, err := ValidateBoardChange(hand, nil, proposed, true)
	if err != nil {
		t.Fatalf("Low-value placement should pass once meld is done: %v", err)
	}
	if change.MeldSatisfied {
		t.Error("MeldSatisfied should be false when the meld was already complete")
	}
}

func TestValidateBoardChange_MeldCountsOnlyTouchedCombinations(t *testing.T) {
	// A rich untouched combination on the board must not count toward the
	// meld minimum.
	board := []Combination{NewCombination([]Tile{NewTile(13, Red), NewTile(13, Blue), NewTile(13, Black)})}
	hand := []Tile{NewTile(3, Red), NewTile(3, Blue), NewTile(3, Black)}

	proposed := append(append([]Combination{}, board...), NewCombination(hand))

	_, err := ValidateBoardChange(hand, board, proposed, false)
	if err == nil {
		t.Fatal("Expected rejection: touched combinations total only 9 points")
	}
	if KindOf(err) != KindInsufficientMeld {
		t.Errorf("Expected insufficient_meld kind, got %q", KindOf(err))
	}
}

func TestValidateBoardChange_Conservation(t *testing.T) {
	hand := []Tile{NewTile(5, Red), NewTile(5, Blue)}
	foreign := NewTile(5, Black)

	proposed := []Combination{NewCombination([]Tile{hand[0], hand[1], foreign})}

	_, err := ValidateBoardChange(hand, nil, proposed, true)
	if err == nil {
		t.Fatal("Expected conservation error for foreign tile")
	}
	if KindOf(err) != KindTileConservation {
		t.Errorf("Expected tile_conservation kind, got %q", KindOf(err))
	}
	if !strings.Contains(err.Error(), foreign.ID) {
		t.Errorf("Error should name the unknown id, got %q", err.Error())
	}
}

func TestValidateBoardChange_DuplicateTile(t *testing.T) {
	run := []Tile{NewTile(7, Red), NewTile(8, Red), NewTile(9, Red)}
	board := []Combination{NewCombination(run)}
	hand := []Tile{NewTile(7, Blue), NewTile(8, Blue)}

	// Same tile placed into two proposed combinations.
	proposed := []Combination{
		NewCombination(run),
		NewCombination([]Tile{run[0], NewTile(7, Blue), NewTile(7, Black)}),
	}

	_, err := ValidateBoardChange(hand, board, proposed, true)
	if err == nil {
		t.Fatal("Expected conservation error for duplicated tile id")
	}
	if KindOf(err) != KindTileConservation {
		t.Errorf("Expected tile_conservation kind, got %q", KindOf(err))
	}
}

func TestValidateBoardChange_BoardTileDropped(t *testing.T) {
	run := []Tile{NewTile(7, Red), NewTile(8, Red), NewTile(9, Red)}
	board := []Combination{NewCombination(run)}
	group := []Tile{NewTile(4, Red), NewTile(4, Blue), NewTile(4, Black)}
	hand := append([]Tile{}, group...)

	// Proposal replaces the board wholesale, leaving the old run out.
	proposed := []Combination{NewCombination(group)}

	_, err := ValidateBoardChange(hand, board, proposed, true)
	if err == nil {
		t.Fatal("Expected conservation error for dropped board tiles")
	}
	if KindOf(err) != KindTileConservation {
		t.Errorf("Expected tile_conservation kind, got %q", KindOf(err))
	}
	if !strings.Contains(err.Error(), run[0].ID) {
		t.Errorf("Error should name the dropped id, got %q", err.Error())
	}
}

func TestValidateBoardChange_InvalidCombination(t *testing.T) {
	hand := []Tile{NewTile(5, Red), NewTile(6, Blue), NewTile(9, Black)}
	proposed := []Combination{NewCombination(hand)}

	_, err := ValidateBoardChange(hand, nil, proposed, true)
	if err == nil {
		t.Fatal("Expected invalid combination error")
	}
	if KindOf(err) != KindInvalidCombination {
		t.Errorf("Expected invalid_combination kind, got %q", KindOf(err))
	}
}

func TestValidateBoardChange_Rearrange(t *testing.T) {
	// Board holds 7,8,9 red. Player extends it with 10 red from hand by
	// restructuring the whole board.
	run := []Tile{NewTile(7, Red), NewTile(8, Red), NewTile(9, Red)}
	board := []Combination{NewCombination(run)}
	ten := NewTile(10, Red)
	hand := []Tile{ten, NewTile(2, Blue)}

	proposed := []Combination{NewCombination([]Tile{run[0], run[1], run[2], ten})}

	change, err := ValidateBoardChange(hand, board, proposed, true)
	if err != nil {
		t.Fatalf("Rearrange failed: %v", err)
	}

	if !change.Rearranged {
		t.Error("Expected Rearranged to be true: pre-existing combination was altered")
	}
	if len(change.PlacedFromHand) != 1 || change.PlacedFromHand[0].ID != ten.ID {
		t.Errorf("Expected only the 10R to be newly committed, got %v", change.PlacedFromHand)
	}
	if len(change.Hand) != 1 {
		t.Errorf("Expected 1 tile left in hand, got %d", len(change.Hand))
	}
}

func TestValidateBoardChange_UntouchedBoardNotRearranged(t *testing.T) {
	run := []Tile{NewTile(7, Red), NewTile(8, Red), NewTile(9, Red)}
	board := []Combination{NewCombination(run)}
	group := []Tile{NewTile(10, Red), NewTile(10, Blue), NewTile(10, Black)}
	hand := append([]Tile{}, group...)

	proposed := append(append([]Combination{}, board...), NewCombination(group))

	change, err := ValidateBoardChange(hand, board, proposed, true)
	if err != nil {
		t.Fatalf("ValidateBoardChange failed: %v", err)
	}
	if change.Rearranged {
		t.Error("Appending a new combination should not count as rearranging")
	}
}

func TestValidateBoardChange_EmptyProposal(t *testing.T) {
	_, err := ValidateBoardChange(nil, nil, nil, true)
	if err == nil {
		t.Fatal("Expected error for empty proposal")
	}
	if KindOf(err) != KindInvalidAction {
		t.Errorf("Expected invalid_action kind, got %q", KindOf(err))
	}
}
