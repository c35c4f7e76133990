// Package communication connects the game master to agents running in other
// processes or on other hosts. The wire protocol is JSON messages over a
// websocket; the scheduler side listens, agents dial in.
package communication

import "mazectf/game"

const (
	msgSetInitial = "set_initial"
	msgGetMove    = "get_move"
	msgMove       = "move"
)

// Message is one frame of the agent protocol. Seq correlates a move reply
// with its request so a reply arriving after its deadline is discarded
// instead of answering the next request.
type Message struct {
	Type     string         `json:"type"`
	Seq      int            `json:"seq,omitempty"`
	Bots     []int          `json:"bots,omitempty"`
	BotIndex int            `json:"bot_index,omitempty"`
	Universe *game.Universe `json:"universe,omitempty"`
	Move     *game.Move     `json:"move,omitempty"`
}
