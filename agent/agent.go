// Package agent provides in-process agent proxies and baseline players.
package agent

import (
	"context"
	"fmt"

	"mazectf/game"
	"mazectf/gamemaster"
)

// Player is the decision logic behind an in-process proxy.
type Player interface {
	// SetInitial tells the player which bots it controls and shows it the
	// starting universe.
	SetInitial(bots []int, u *game.Universe)
	// GetMove picks a move for one of the player's bots given a (possibly
	// noised) universe snapshot.
	GetMove(botIndex int, u *game.Universe) game.Move
}

// LocalProxy adapts a Player to the scheduler's proxy contract. The player
// runs on its own goroutine per call so a stuck player surfaces as a
// timeout instead of blocking the match.
type LocalProxy struct {
	player Player
	bots   []int
}

func NewLocalProxy(player Player) *LocalProxy {
	return &LocalProxy{player: player}
}

func (p *LocalProxy) Bind(bots []int) {
	p.bots = bots
}

func (p *LocalProxy) SendInitial(u *game.Universe) error {
	p.player.SetInitial(p.bots, u)
	return nil
}

func (p *LocalProxy) RequestMove(ctx context.Context, botIndex int, u *game.Universe) (game.Move, error) {
	moves := make(chan game.Move, 1)
	go func() {
		moves <- p.player.GetMove(botIndex, u)
	}()
	select {
	case move := <-moves:
		return move, nil
	case <-ctx.Done():
		return game.Stop, fmt.Errorf("%w: %v", gamemaster.ErrTimeout, ctx.Err())
	}
}

func (p *LocalProxy) Close() error {
	return nil
}
