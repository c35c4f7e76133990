package viewer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mazectf/game"
	"mazectf/gamemaster"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Record is one line of a replay dump: a full deep snapshot per bot-turn.
// The initial record has a nil GameState.
type Record struct {
	MatchID   string                `json:"match_id"`
	Universe  *game.Universe        `json:"universe"`
	GameState *gamemaster.GameState `json:"game_state,omitempty"`
}

// DumpViewer writes the match as gzip-compressed JSON lines, one snapshot
// per bot-turn, so the match can be replayed or parsed offline.
type DumpViewer struct {
	matchID string
	file    *os.File
	gz      *gzip.Writer
	enc     *json.Encoder
}

// NewDumpViewer creates a dump file named after a fresh match id inside dir,
// creating dir if needed.
func NewDumpViewer(dir string) (*DumpViewer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}
	matchID := uuid.NewString()
	path := filepath.Join(dir, matchID+".jsonl.gz")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dump file: %w", err)
	}
	gz := gzip.NewWriter(file)
	return &DumpViewer{
		matchID: matchID,
		file:    file,
		gz:      gz,
		enc:     json.NewEncoder(gz),
	}, nil
}

// MatchID returns the id naming this dump.
func (v *DumpViewer) MatchID() string {
	return v.matchID
}

func (v *DumpViewer) SetInitial(u *game.Universe) {
	_ = v.enc.Encode(Record{MatchID: v.matchID, Universe: u})
}

func (v *DumpViewer) Observe(u *game.Universe, state *gamemaster.GameState) {
	_ = v.enc.Encode(Record{MatchID: v.matchID, Universe: u, GameState: state})
}

// Close flushes and closes the dump file.
func (v *DumpViewer) Close() error {
	if err := v.gz.Close(); err != nil {
		_ = v.file.Close()
		return fmt.Errorf("failed to close dump: %w", err)
	}
	return v.file.Close()
}
