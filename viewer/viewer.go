// Package viewer provides observers for running matches: a structured log
// viewer and a compressed replay dump writer.
package viewer

import (
	"mazectf/game"
	"mazectf/gamemaster"

	"github.com/rs/zerolog"
)

// LogViewer writes one structured log line per bot-turn.
type LogViewer struct {
	log zerolog.Logger
}

func NewLogViewer(logger zerolog.Logger) *LogViewer {
	return &LogViewer{log: logger}
}

func (v *LogViewer) SetInitial(u *game.Universe) {
	v.log.Info().
		Int("width", u.Maze.Width).
		Int("height", u.Maze.Height).
		Int("bots", len(u.Bots)).
		Str("team0", u.Teams[0].Name).
		Str("team1", u.Teams[1].Name).
		Msg("match starting")
}

func (v *LogViewer) Observe(u *game.Universe, state *gamemaster.GameState) {
	event := v.log.Info()
	if state.RoundIndex != nil {
		event = event.Int("round", *state.RoundIndex)
	}
	if state.BotID != nil {
		event = event.Int("bot", *state.BotID)
	}
	event = event.
		Int("score0", u.Teams[0].Score).
		Int("score1", u.Teams[1].Score).
		Int("eaten", len(state.FoodEaten)).
		Int("destroyed", len(state.BotDestroyed))
	if state.Finished {
		switch {
		case state.TeamWins != nil:
			event.Int("winner", *state.TeamWins).Msg("match finished")
		case state.GameDraw != nil:
			event.Bool("draw", true).Msg("match finished")
		default:
			event.Msg("match finished")
		}
		return
	}
	event.Msg("turn played")
}
