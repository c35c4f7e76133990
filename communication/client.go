package communication

import (
	"context"
	"fmt"

	"mazectf/agent"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Connect dials the game master at url (e.g. "ws://127.0.0.1:4001") and
// answers its requests with the given player until the master closes the
// connection or the context is cancelled. This is the loop an external
// agent process runs.
func Connect(ctx context.Context, url string, player agent.Player) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return serve(conn, player)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			_ = conn.Close()
			return gctx.Err()
		case <-done:
			_ = conn.Close()
			return nil
		}
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func serve(conn *websocket.Conn, player agent.Player) error {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case msgSetInitial:
			player.SetInitial(msg.Bots, msg.Universe)
		case msgGetMove:
			move := player.GetMove(msg.BotIndex, msg.Universe)
			reply := Message{Type: msgMove, Seq: msg.Seq, Move: &move}
			if err := conn.WriteJSON(reply); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}
