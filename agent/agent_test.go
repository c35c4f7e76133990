package agent

import (
	"context"
	"testing"
	"time"

	"mazectf/game"
	"mazectf/gamemaster"

	"github.com/stretchr/testify/require"
)

const testLayout = `
########
#0 .. 1#
########
`

// sleepyPlayer never answers in time.
type sleepyPlayer struct{}

func (sleepyPlayer) SetInitial(bots []int, u *game.Universe) {}

func (sleepyPlayer) GetMove(botIndex int, u *game.Universe) game.Move {
	time.Sleep(time.Second)
	return game.Stop
}

func TestLocalProxyDelegates(t *testing.T) {
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	proxy := NewLocalProxy(StoppingPlayer{})
	proxy.Bind([]int{0})
	require.NoError(t, proxy.SendInitial(u.Copy()))

	move, err := proxy.RequestMove(context.Background(), 0, u.Copy())
	require.NoError(t, err)
	require.Equal(t, game.Stop, move)
	require.NoError(t, proxy.Close())
}

func TestLocalProxyTimesOut(t *testing.T) {
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	proxy := NewLocalProxy(sleepyPlayer{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = proxy.RequestMove(ctx, 0, u.Copy())
	require.ErrorIs(t, err, gamemaster.ErrTimeout)
}

func TestRandomPlayerPicksLegalMoves(t *testing.T) {
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	player := NewRandomPlayer(42)
	for i := 0; i < 50; i++ {
		move := player.GetMove(0, u)
		require.Contains(t, u.LegalMoves(u.Bots[0].CurrentPos), move)
	}
}
