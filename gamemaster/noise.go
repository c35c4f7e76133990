package gamemaster

import (
	"mazectf/game"

	"golang.org/x/exp/rand"
)

const (
	// DefaultNoiseRadius bounds how far a noised position may lie from the
	// true one, in maze steps.
	DefaultNoiseRadius = 5
	// DefaultSightDistance is the maze distance up to which an opponent is
	// reported exactly.
	DefaultSightDistance = 5
)

// Noiser makes opponent positions noisy beyond a sight threshold. It is
// stateless with respect to the match: every call works on the snapshot it
// is given and never touches the authoritative universe.
type Noiser struct {
	adjacency     game.AdjacencyList
	noiseRadius   int
	sightDistance int
	rng           *rand.Rand
}

type NoiserOption func(*Noiser)

func WithNoiseRadius(radius int) NoiserOption {
	return func(n *Noiser) {
		if radius > 0 {
			n.noiseRadius = radius
		}
	}
}

func WithSightDistance(distance int) NoiserOption {
	return func(n *Noiser) {
		if distance > 0 {
			n.sightDistance = distance
		}
	}
}

// NewNoiser builds a noiser over the universe's maze. The rng is the match's
// seeded source, shared with the scheduler's fallback moves.
func NewNoiser(u *game.Universe, rng *rand.Rand, options ...NoiserOption) *Noiser {
	n := &Noiser{
		adjacency:     game.NewAdjacencyList(u),
		noiseRadius:   DefaultNoiseRadius,
		sightDistance: DefaultSightDistance,
		rng:           rng,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// UniformNoise perturbs the positions of the enemies of bot botIndex inside
// the given universe snapshot. An enemy farther than the sight distance, or
// unreachable through the maze, is moved to a uniformly random position
// within the noise radius of its true position and marked noisy. The
// argument must be a copy: it is modified in place and returned.
func (n *Noiser) UniformNoise(u *game.Universe, botIndex int) *game.Universe {
	bot := &u.Bots[botIndex]
	for _, enemy := range u.EnemyBots(bot.TeamIndex) {
		visible := false
		if distance, err := n.adjacency.Distance(bot.CurrentPos, enemy.CurrentPos); err == nil {
			visible = distance <= n.sightDistance
		}
		if visible {
			continue
		}
		possible := n.adjacency.PosWithin(enemy.CurrentPos, n.noiseRadius)
		enemy.CurrentPos = possible[n.rng.Intn(len(possible))]
		enemy.Noisy = true
	}
	return u
}
