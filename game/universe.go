package game

import (
	"errors"
	"fmt"
)

const (
	// FoodPoints is scored by eating one pellet of enemy food.
	FoodPoints = 1
	// KillPoints is scored by destroying an enemy harvester.
	KillPoints = 5
)

// ErrIllegalMove is returned when a move cannot be applied to the universe.
var ErrIllegalMove = errors.New("illegal move")

// Bot is one movable agent. Noisy is a transient per-snapshot annotation set
// by the noise engine; it never affects the authoritative universe.
type Bot struct {
	Index      int  `json:"index"`
	TeamIndex  int  `json:"team_index"`
	InitialPos Pos  `json:"initial_pos"`
	CurrentPos Pos  `json:"current_pos"`
	Noisy      bool `json:"noisy"`
}

// Team is one of the two sides of a match.
type Team struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Bots  []int  `json:"bots"` // bot indices belonging to this team
}

// Universe is the authoritative game world: maze, bots, teams and food.
// It is mutated only through MoveBot; observers and agents get deep copies.
type Universe struct {
	Maze  *Maze  `json:"maze"`
	Teams []Team `json:"teams"`
	Bots  []Bot  `json:"bots"`
	Food  []Pos  `json:"food"`
}

// TurnEvents is the state diff produced by applying a single move.
type TurnEvents struct {
	BotMoved     []BotMoved     `json:"bot_moved"`
	FoodEaten    []FoodEaten    `json:"food_eaten"`
	BotDestroyed []BotDestroyed `json:"bot_destroyed"`
}

type BotMoved struct {
	BotID  int `json:"bot_id"`
	OldPos Pos `json:"old_pos"`
	NewPos Pos `json:"new_pos"`
}

type FoodEaten struct {
	BotID   int `json:"bot_id"`
	FoodPos Pos `json:"food_pos"`
}

type BotDestroyed struct {
	BotID       int `json:"bot_id"`
	DestroyedBy int `json:"destroyed_by"`
}

// NewUniverse parses a layout string into a two-team universe. Bots alternate
// teams by index: even indices belong to team 0, odd indices to team 1.
func NewUniverse(layout string, numberBots int) (*Universe, error) {
	if numberBots < 2 || numberBots%2 != 0 {
		return nil, fmt.Errorf("bot count must be even and at least 2, got %d", numberBots)
	}

	maze, food, botPositions, err := parseLayout(layout, numberBots)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	teams := []Team{
		{Index: 0, Name: "team 0"},
		{Index: 1, Name: "team 1"},
	}
	bots := make([]Bot, numberBots)
	for i := 0; i < numberBots; i++ {
		team := i % 2
		bots[i] = Bot{
			Index:      i,
			TeamIndex:  team,
			InitialPos: botPositions[i],
			CurrentPos: botPositions[i],
		}
		teams[team].Bots = append(teams[team].Bots, i)
	}

	return &Universe{Maze: maze, Teams: teams, Bots: bots, Food: food}, nil
}

// Copy returns a deep copy of the universe. The maze is shared: it is
// immutable after parsing.
func (u *Universe) Copy() *Universe {
	teams := make([]Team, len(u.Teams))
	for i, t := range u.Teams {
		teams[i] = t
		teams[i].Bots = append([]int(nil), t.Bots...)
	}
	return &Universe{
		Maze:  u.Maze,
		Teams: teams,
		Bots:  append([]Bot(nil), u.Bots...),
		Food:  append([]Pos(nil), u.Food...),
	}
}

// InHomezone reports whether pos lies in the given team's half of the maze.
// Team 0 defends the left half, team 1 the right half.
func (u *Universe) InHomezone(teamIndex int, pos Pos) bool {
	if teamIndex == 0 {
		return pos.X < u.Maze.Width/2
	}
	return pos.X >= u.Maze.Width/2
}

// EnemyFood counts the food the given team may still eat, i.e. the pellets
// in the opposing team's homezone.
func (u *Universe) EnemyFood(teamIndex int) int {
	count := 0
	for _, f := range u.Food {
		if u.InHomezone(1-teamIndex, f) {
			count++
		}
	}
	return count
}

// EnemyBots returns pointers to every bot not on the given team.
func (u *Universe) EnemyBots(teamIndex int) []*Bot {
	var enemies []*Bot
	for i := range u.Bots {
		if u.Bots[i].TeamIndex != teamIndex {
			enemies = append(enemies, &u.Bots[i])
		}
	}
	return enemies
}

// LegalMoves returns the moves possible from pos in a fixed order.
// Standing still is always legal.
func (u *Universe) LegalMoves(pos Pos) []Move {
	var legal []Move
	for _, m := range directions {
		if !u.Maze.IsWall(m.Apply(pos)) {
			legal = append(legal, m)
		}
	}
	return legal
}

// MoveBot applies a single move to the authoritative universe and returns
// the resulting event diff. A move into a wall or by more than one step
// fails with ErrIllegalMove and leaves the universe untouched.
func (u *Universe) MoveBot(botIndex int, move Move) (TurnEvents, error) {
	if botIndex < 0 || botIndex >= len(u.Bots) {
		return TurnEvents{}, fmt.Errorf("%w: no bot with index %d", ErrIllegalMove, botIndex)
	}
	bot := &u.Bots[botIndex]

	if !isDirection(move) {
		return TurnEvents{}, fmt.Errorf("%w: %v is not a single step", ErrIllegalMove, move)
	}
	newPos := move.Apply(bot.CurrentPos)
	if u.Maze.IsWall(newPos) {
		return TurnEvents{}, fmt.Errorf("%w: bot %d cannot move %s into a wall", ErrIllegalMove, botIndex, move)
	}

	events := TurnEvents{}
	oldPos := bot.CurrentPos
	bot.CurrentPos = newPos
	events.BotMoved = append(events.BotMoved, BotMoved{BotID: botIndex, OldPos: oldPos, NewPos: newPos})

	if u.InHomezone(bot.TeamIndex, newPos) {
		// In its own zone the bot is a destroyer: any enemy harvester
		// sharing the square is sent home.
		for _, enemy := range u.EnemyBots(bot.TeamIndex) {
			if enemy.CurrentPos == newPos {
				u.destroy(enemy, bot, &events)
			}
		}
	} else {
		// In the enemy zone the bot is a harvester: stepping onto a
		// defender destroys the mover, otherwise it may eat food.
		for _, enemy := range u.EnemyBots(bot.TeamIndex) {
			if enemy.CurrentPos == newPos {
				u.destroy(bot, enemy, &events)
				return events, nil
			}
		}
		if i := indexOfPos(u.Food, newPos); i >= 0 {
			u.Food = append(u.Food[:i], u.Food[i+1:]...)
			u.Teams[bot.TeamIndex].Score += FoodPoints
			events.FoodEaten = append(events.FoodEaten, FoodEaten{BotID: botIndex, FoodPos: newPos})
		}
	}

	return events, nil
}

// destroy resets victim to its initial position and credits the destroyer's
// team.
func (u *Universe) destroy(victim, destroyer *Bot, events *TurnEvents) {
	victim.CurrentPos = victim.InitialPos
	u.Teams[destroyer.TeamIndex].Score += KillPoints
	events.BotDestroyed = append(events.BotDestroyed, BotDestroyed{
		BotID:       victim.Index,
		DestroyedBy: destroyer.Index,
	})
}

func isDirection(m Move) bool {
	for _, d := range directions {
		if m == d {
			return true
		}
	}
	return false
}

func indexOfPos(positions []Pos, p Pos) int {
	for i, q := range positions {
		if q == p {
			return i
		}
	}
	return -1
}
