package communication

import (
	"context"
	"testing"
	"time"

	"mazectf/agent"
	"mazectf/game"
	"mazectf/gamemaster"

	"github.com/stretchr/testify/require"
)

const testLayout = `
########
#0 .. 1#
########
`

// slowPlayer answers after a delay.
type slowPlayer struct {
	delay time.Duration
}

func (p slowPlayer) SetInitial(bots []int, u *game.Universe) {}

func (p slowPlayer) GetMove(botIndex int, u *game.Universe) game.Move {
	time.Sleep(p.delay)
	return game.East
}

func dialTestAgent(t *testing.T, player agent.Player) (*RemoteProxy, context.CancelFunc) {
	t.Helper()

	listener, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	clientCtx, stopClient := context.WithCancel(context.Background())
	go func() {
		_ = Connect(clientCtx, "ws://"+listener.Addr(), player)
	}()

	acceptCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	proxy, err := listener.Accept(acceptCtx)
	require.NoError(t, err)
	return proxy, stopClient
}

func TestRemoteProxyRoundTrip(t *testing.T) {
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	proxy, stopClient := dialTestAgent(t, slowPlayer{})
	defer stopClient()

	proxy.Bind([]int{0})
	require.NoError(t, proxy.SendInitial(u.Copy()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	move, err := proxy.RequestMove(ctx, 0, u.Copy())
	require.NoError(t, err)
	require.Equal(t, game.East, move)

	require.NoError(t, proxy.Close())
}

func TestRemoteProxyTimeoutThenRecovers(t *testing.T) {
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	proxy, stopClient := dialTestAgent(t, slowPlayer{delay: 200 * time.Millisecond})
	defer stopClient()
	defer proxy.Close()

	// First request times out before the slow reply arrives.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = proxy.RequestMove(ctx, 0, u.Copy())
	require.ErrorIs(t, err, gamemaster.ErrTimeout)

	// The stale reply is discarded and the next request succeeds.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	move, err := proxy.RequestMove(ctx2, 0, u.Copy())
	require.NoError(t, err)
	require.Equal(t, game.East, move)
}

func TestRemoteProxyDisconnect(t *testing.T) {
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	proxy, stopClient := dialTestAgent(t, slowPlayer{})
	defer proxy.Close()

	// Kill the agent side, then give the close a moment to propagate.
	stopClient()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = proxy.RequestMove(ctx, 0, u.Copy())
	require.ErrorIs(t, err, gamemaster.ErrDisconnected)
}
