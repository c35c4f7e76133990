package viewer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mazectf/game"
	"mazectf/gamemaster"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const testLayout = `
########
#0 .. 1#
########
`

func TestDumpViewerWritesReplayableHistory(t *testing.T) {
	dir := t.TempDir()
	u, err := game.NewUniverse(testLayout, 2)
	require.NoError(t, err)

	dump, err := NewDumpViewer(dir)
	require.NoError(t, err)

	dump.SetInitial(u.Copy())

	state := &gamemaster.GameState{
		BotMoved:     []game.BotMoved{{BotID: 0, OldPos: game.Pos{X: 1, Y: 1}, NewPos: game.Pos{X: 2, Y: 1}}},
		FoodEaten:    []game.FoodEaten{},
		BotDestroyed: []game.BotDestroyed{},
	}
	round, bot := 0, 0
	state.RoundIndex = &round
	state.BotID = &bot
	dump.Observe(u.Copy(), state)
	require.NoError(t, dump.Close())

	// The file is named after the match id and holds one JSON line per
	// snapshot.
	path := filepath.Join(dir, dump.MatchID()+".jsonl.gz")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	dec := json.NewDecoder(gz)
	var records []Record
	for dec.More() {
		var rec Record
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	require.Equal(t, dump.MatchID(), records[0].MatchID)
	require.Nil(t, records[0].GameState, "the initial record has no game state")
	require.Equal(t, 8, records[0].Universe.Maze.Width)

	require.NotNil(t, records[1].GameState)
	require.Equal(t, 0, *records[1].GameState.RoundIndex)
	require.Len(t, records[1].GameState.BotMoved, 1)
	require.Equal(t, game.Pos{X: 2, Y: 1}, records[1].GameState.BotMoved[0].NewPos)
}
