package agent

import (
	"mazectf/game"

	"golang.org/x/exp/rand"
)

// RandomPlayer picks a uniformly random legal move each turn.
type RandomPlayer struct {
	rng *rand.Rand
}

func NewRandomPlayer(seed uint64) *RandomPlayer {
	return &RandomPlayer{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPlayer) SetInitial(bots []int, u *game.Universe) {}

func (p *RandomPlayer) GetMove(botIndex int, u *game.Universe) game.Move {
	legal := u.LegalMoves(u.Bots[botIndex].CurrentPos)
	return legal[p.rng.Intn(len(legal))]
}

// StoppingPlayer stands still every turn. Useful as a harmless baseline in
// tests and scripted matches.
type StoppingPlayer struct{}

func (StoppingPlayer) SetInitial(bots []int, u *game.Universe) {}

func (StoppingPlayer) GetMove(botIndex int, u *game.Universe) game.Move {
	return game.Stop
}
