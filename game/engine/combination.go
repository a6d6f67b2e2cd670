package engine

// IsValid reports whether the combination is a legal group or run. Anything
// under 3 tiles is rejected outright.
func (c Combination) IsValid() bool {
	if len(c.Tiles) < MinCombinationSize {
		return false
	}
	return c.isGroup() || c.isRun()
}

// isGroup checks for at most 4 tiles sharing one number with pairwise
// distinct colors among non-jokers. The color-count-equals-tile-count
// comparison rejects both duplicate colors and mismatched numbers: a tile
// with a different number still occupies a color slot, so the counts
// diverge.
func (c Combination) isGroup() bool {
	if len(c.Tiles) > MaxGroupSize {
		return false
	}

	numbers := make(map[int]struct{})
	colors := make(map[Color]struct{})
	real := 0

	for _, t := range c.Tiles {
		if t.IsJoker {
			continue
		}
		numbers[t.Number] = struct{}{}
		colors[t.Color] = struct{}{}
		real++
	}

	return len(numbers) <= 1 && len(colors) == real
}

// isRun checks for a single-color sequence where jokers fill gaps: the span
// max-min+1 must be at least 3 and must equal the total tile count. The
// check is span-based, not multiset-based: a duplicated number can stand in
// for a missing one, so 7,7,9 of one color passes.
func (c Combination) isRun() bool {
	colors := make(map[Color]struct{})
	var numbers []int

	for _, t := range c.Tiles {
		if t.IsJoker {
			continue
		}
		colors[t.Color] = struct{}{}
		numbers = append(numbers, t.Number)
	}

	if len(colors) > 1 {
		return false
	}

	// All jokers: nothing constrains the sequence.
	if len(numbers) == 0 {
		return true
	}

	min, max := numbers[0], numbers[0]
	for _, n := range numbers[1:] {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}

	span := max - min + 1
	return span >= MinCombinationSize && span == len(c.Tiles)
}

// Value returns the total point value of the combination, used for
// initial-meld scoring. Jokers count as 0.
func (c Combination) Value() int {
	total := 0
	for _, t := range c.Tiles {
		total += t.Value()
	}
	return total
}

// tileIDs returns the set of tile IDs in the combination.
func (c Combination) tileIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Tiles))
	for _, t := range c.Tiles {
		ids[t.ID] = struct{}{}
	}
	return ids
}
