package gamemaster

import "mazectf/game"

// GameState is the match-level bookkeeping record owned by the GameMaster.
// Its JSON form is the canonical snapshot schema downstream consumers parse:
// the event lists hold only the current turn's effects and are reset every
// turn, the remaining fields accumulate over the match. Nullable fields are
// pointers: a nil RoundIndex means the first round has not begun.
type GameState struct {
	RoundIndex   *int                `json:"round_index"`
	BotID        *int                `json:"bot_id"`
	BotMoved     []game.BotMoved     `json:"bot_moved"`
	FoodEaten    []game.FoodEaten    `json:"food_eaten"`
	BotDestroyed []game.BotDestroyed `json:"bot_destroyed"`
	TimeoutTeams [2]int              `json:"timeout_teams"`
	TeamTime     [2]float64          `json:"team_time"`
	RunningTime  float64             `json:"running_time"`
	Finished     bool                `json:"finished"`
	TeamWins     *int                `json:"team_wins"`
	GameDraw     *bool               `json:"game_draw"`
}

func newGameState() *GameState {
	// Event lists start empty, not nil, so snapshots serialize as [].
	return &GameState{
		BotMoved:     []game.BotMoved{},
		FoodEaten:    []game.FoodEaten{},
		BotDestroyed: []game.BotDestroyed{},
	}
}

// Copy returns a deep copy safe to hand to observers.
func (gs *GameState) Copy() *GameState {
	out := *gs
	out.BotMoved = append([]game.BotMoved{}, gs.BotMoved...)
	out.FoodEaten = append([]game.FoodEaten{}, gs.FoodEaten...)
	out.BotDestroyed = append([]game.BotDestroyed{}, gs.BotDestroyed...)
	if gs.RoundIndex != nil {
		v := *gs.RoundIndex
		out.RoundIndex = &v
	}
	if gs.BotID != nil {
		v := *gs.BotID
		out.BotID = &v
	}
	if gs.TeamWins != nil {
		v := *gs.TeamWins
		out.TeamWins = &v
	}
	if gs.GameDraw != nil {
		v := *gs.GameDraw
		out.GameDraw = &v
	}
	return &out
}

// resetTurn clears the per-turn event lists and records the moving bot.
func (gs *GameState) resetTurn(botID int) {
	gs.BotID = &botID
	gs.BotMoved = []game.BotMoved{}
	gs.FoodEaten = []game.FoodEaten{}
	gs.BotDestroyed = []game.BotDestroyed{}
}

// merge appends a move's event diff to the current turn.
func (gs *GameState) merge(events game.TurnEvents) {
	gs.BotMoved = append(gs.BotMoved, events.BotMoved...)
	gs.FoodEaten = append(gs.FoodEaten, events.FoodEaten...)
	gs.BotDestroyed = append(gs.BotDestroyed, events.BotDestroyed...)
}
