package engine

import "math/rand"

// NewPool generates the full tile set: 2 copies of 1..13 in each of the 4
// colors (104 tiles) plus 2 jokers, uniformly shuffled. Every tile gets a
// unique ID; conservation checks depend on IDs never colliding.
func NewPool() []Tile {
	pool := make([]Tile, 0, PoolSize)

	for set := 0; set < NumberCopies; set++ {
		for _, color := range TileColors {
			for number := MinNumber; number <= MaxNumber; number++ {
				pool = append(pool, NewTile(number, color))
			}
		}
	}

	for i := 0; i < JokerCount; i++ {
		pool = append(pool, NewJoker())
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	return pool
}

// Deal removes and returns the first n tiles from the front of the pool,
// along with the remaining pool. Dealing models drawing blind from the top
// of a shuffled stack.
func Deal(pool []Tile, n int) ([]Tile, []Tile, error) {
	if len(pool) < n {
		return nil, pool, newGameError(KindPoolExhausted, "not enough tiles in pool: need %d, have %d", n, len(pool))
	}
	dealt := make([]Tile, n)
	copy(dealt, pool[:n])
	rest := make([]Tile, len(pool)-n)
	copy(rest, pool[n:])
	return dealt, rest, nil
}

// Draw removes and returns the single tile at the front of the pool.
func Draw(pool []Tile) (Tile, []Tile, error) {
	if len(pool) == 0 {
		return Tile{}, pool, newGameError(KindPoolExhausted, "no tiles left in pool")
	}
	tile := pool[0]
	rest := make([]Tile, len(pool)-1)
	copy(rest, pool[1:])
	return tile, rest, nil
}
