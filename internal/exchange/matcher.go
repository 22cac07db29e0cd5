package exchange

import (
	"fmt"

	"giftexchange/internal/models"
)

// Rand is the randomness seam used by Generate. *math/rand.Rand satisfies
// it; tests supply scripted values to pin down the shuffle.
type Rand interface {
	Intn(n int) int
}

// Generate builds the complete assignment set for a roster: a uniformly
// shuffled copy of the roster turned into a single cyclic chain, so every
// participant gives exactly once, receives exactly once, and never draws
// themselves. The chain construction needs no rejection sampling and has
// no unsolvable residual case.
//
// Output is in shuffle order, not roster order.
func Generate(roster []models.Participant, rng Rand) ([]models.Assignment, error) {
	n := len(roster)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 participants to exchange gifts, have %d", ErrValidation, n)
	}

	shuffled := make([]models.Participant, n)
	copy(shuffled, roster)

	// Fisher-Yates
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	// Cyclic chain over the shuffled order: A -> B -> C -> A. With n == 2
	// this degenerates to the mutual pair, which is valid output.
	assignments := make([]models.Assignment, n)
	for k, giver := range shuffled {
		assignments[k] = models.Assignment{
			Giver:    giver,
			Receiver: shuffled[(k+1)%n],
		}
	}
	return assignments, nil
}
