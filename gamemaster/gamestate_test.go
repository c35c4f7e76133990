package gamemaster

import (
	"bytes"
	"encoding/json"
	"testing"

	"mazectf/game"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

// gameStateSchema is the canonical snapshot contract any downstream
// consumer (dump files, remote monitors) must be able to parse.
const gameStateSchema = `{
	"type": "object",
	"required": [
		"round_index", "bot_id", "bot_moved", "food_eaten", "bot_destroyed",
		"timeout_teams", "team_time", "running_time", "finished",
		"team_wins", "game_draw"
	],
	"properties": {
		"round_index":   {"type": ["integer", "null"]},
		"bot_id":        {"type": ["integer", "null"]},
		"bot_moved":     {"type": "array"},
		"food_eaten":    {"type": "array"},
		"bot_destroyed": {"type": "array"},
		"timeout_teams": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2},
		"team_time":     {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
		"running_time":  {"type": "number"},
		"finished":      {"type": "boolean"},
		"team_wins":     {"type": ["integer", "null"]},
		"game_draw":     {"type": ["boolean", "null"]}
	}
}`

func validateSnapshot(t *testing.T, state *GameState) {
	t.Helper()
	schema := jsonschema.MustCompileString("gamestate.json", gameStateSchema)

	raw, err := json.Marshal(state)
	require.NoError(t, err)
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&doc))
	require.NoError(t, schema.Validate(doc))
}

func TestGameStateSnapshotSchema(t *testing.T) {
	t.Run("fresh state", func(t *testing.T) {
		state := newGameState()
		validateSnapshot(t, state)

		raw, err := json.Marshal(state)
		require.NoError(t, err)
		// Nullable fields serialize as null, event lists as [].
		require.Contains(t, string(raw), `"round_index":null`)
		require.Contains(t, string(raw), `"bot_moved":[]`)
	})

	t.Run("finished state", func(t *testing.T) {
		state := newGameState()
		round, winner := 12, 1
		state.RoundIndex = &round
		state.TeamWins = &winner
		state.Finished = true
		state.merge(game.TurnEvents{
			BotMoved: []game.BotMoved{{BotID: 3, OldPos: game.Pos{X: 1, Y: 1}, NewPos: game.Pos{X: 2, Y: 1}}},
		})
		validateSnapshot(t, state)
	})
}

func TestGameStateTurnLifecycle(t *testing.T) {
	state := newGameState()
	state.merge(game.TurnEvents{
		FoodEaten: []game.FoodEaten{{BotID: 0, FoodPos: game.Pos{X: 4, Y: 1}}},
	})
	require.Len(t, state.FoodEaten, 1)

	state.resetTurn(2)
	require.Equal(t, 2, *state.BotID)
	require.Empty(t, state.FoodEaten, "event lists hold only the current turn")
}

func TestGameStateCopyIsDeep(t *testing.T) {
	state := newGameState()
	round := 3
	state.RoundIndex = &round
	state.merge(game.TurnEvents{
		BotMoved: []game.BotMoved{{BotID: 1, OldPos: game.Pos{X: 5, Y: 1}, NewPos: game.Pos{X: 5, Y: 2}}},
	})

	snapshot := state.Copy()
	*state.RoundIndex = 4
	state.resetTurn(0)
	state.TimeoutTeams[0] = 9

	require.Equal(t, 3, *snapshot.RoundIndex)
	require.Len(t, snapshot.BotMoved, 1)
	require.Equal(t, 0, snapshot.TimeoutTeams[0])
}
