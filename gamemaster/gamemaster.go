package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mazectf/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	// DefaultMaxTimeouts is the number of timeouts or rejected moves after
	// which a team is disqualified.
	DefaultMaxTimeouts = 5
	// DefaultMoveTimeout bounds a single agent call.
	DefaultMoveTimeout = 3 * time.Second
)

// Proxy is the interface the scheduler uses to obtain moves from a team's
// controlling logic, local or remote. RequestMove honours the context
// deadline and reports failures by wrapping ErrTimeout, ErrMoveRejected or
// ErrDisconnected.
type Proxy interface {
	Bind(bots []int)
	SendInitial(u *game.Universe) error
	RequestMove(ctx context.Context, botIndex int, u *game.Universe) (game.Move, error)
	Close() error
}

// Viewer observes the match. Observe is called once after every single
// bot-turn plus once at match end, always with deep copies, so an observer
// can reconstruct an exact replayable history.
type Viewer interface {
	SetInitial(u *game.Universe)
	Observe(u *game.Universe, state *GameState)
}

// Step is the status returned by PlayStep.
type Step int

const (
	// StepAdvanced means one bot moved and the round continues.
	StepAdvanced Step = iota
	// StepRoundDone means the bot that moved completed the round.
	StepRoundDone
	// StepFinished means the match is over; further steps are no-ops.
	StepFinished
)

// GameMaster owns the authoritative universe and the match-level game state
// record, and drives round/turn progression over the registered agents.
// All mutation happens on the goroutine that pumps PlayStep; at most one
// agent call is outstanding at any time.
type GameMaster struct {
	universe    *game.Universe
	gameTime    int
	maxTimeouts int
	moveTimeout time.Duration
	rng         *rand.Rand

	noiser        *Noiser
	noiseDisabled bool
	noiserOptions []NoiserOption

	teams   []Proxy
	viewers []Viewer

	state       *GameState
	started     bool
	inRound     bool
	botCursor   int
	summaryDone bool
}

type Option func(*GameMaster)

// WithSeed fixes the random source for noise and fallback moves, making the
// match reproducible.
func WithSeed(seed uint64) Option {
	return func(gm *GameMaster) {
		gm.rng = rand.New(rand.NewSource(seed))
	}
}

// WithMoveTimeout bounds every agent call.
func WithMoveTimeout(timeout time.Duration) Option {
	return func(gm *GameMaster) {
		if timeout > 0 {
			gm.moveTimeout = timeout
		}
	}
}

// WithMaxTimeouts sets the disqualification threshold.
func WithMaxTimeouts(n int) Option {
	return func(gm *GameMaster) {
		if n > 0 {
			gm.maxTimeouts = n
		}
	}
}

// WithNoise configures the fog-of-war noise engine.
func WithNoise(options ...NoiserOption) Option {
	return func(gm *GameMaster) {
		gm.noiserOptions = append(gm.noiserOptions, options...)
	}
}

// WithoutNoise disables the noise engine: agents see exact positions.
func WithoutNoise() Option {
	return func(gm *GameMaster) {
		gm.noiseDisabled = true
	}
}

// New creates a game master for the given universe. gameTime is the maximum
// number of rounds.
func New(universe *game.Universe, gameTime int, options ...Option) *GameMaster {
	gm := &GameMaster{
		universe:    universe,
		gameTime:    gameTime,
		maxTimeouts: DefaultMaxTimeouts,
		moveTimeout: DefaultMoveTimeout,
		rng:         rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		state:       newGameState(),
	}
	for _, option := range options {
		option(gm)
	}
	if !gm.noiseDisabled {
		gm.noiser = NewNoiser(universe, gm.rng, gm.noiserOptions...)
	}
	return gm
}

// RegisterTeam appends an agent proxy. Registration order is the binding to
// universe team indices, so it must happen before Start.
func (gm *GameMaster) RegisterTeam(proxy Proxy, name string) error {
	if gm.started {
		return &ConfigError{Reason: "cannot register a team after the match started"}
	}
	teamIndex := len(gm.teams)
	gm.teams = append(gm.teams, proxy)
	if name != "" && teamIndex < len(gm.universe.Teams) {
		gm.universe.Teams[teamIndex].Name = name
	}
	return nil
}

// RegisterViewer appends an observer of the match.
func (gm *GameMaster) RegisterViewer(viewer Viewer) {
	gm.viewers = append(gm.viewers, viewer)
}

// Start binds every registered agent to its team's bots and sends agents and
// viewers the initial universe. It fails with ConfigError if the registered
// team count does not match the universe.
func (gm *GameMaster) Start() error {
	if gm.started {
		return nil
	}
	if len(gm.teams) != len(gm.universe.Teams) {
		return &ConfigError{Reason: fmt.Sprintf(
			"universe has %d teams but %d are registered",
			len(gm.universe.Teams), len(gm.teams))}
	}
	gm.started = true

	for teamIndex, proxy := range gm.teams {
		proxy.Bind(append([]int(nil), gm.universe.Teams[teamIndex].Bots...))
		if err := proxy.SendInitial(gm.universe.Copy()); err != nil {
			log.Warn().Err(err).Msgf("team %d failed during initial exchange", teamIndex)
			gm.disqualify(teamIndex, "failed initial exchange")
			break
		}
	}
	for _, viewer := range gm.viewers {
		viewer.SetInitial(gm.universe.Copy())
	}
	if gm.state.Finished {
		gm.printSummary()
		gm.updateViewers()
	}
	return nil
}

// PlayStep advances the match by exactly one bot move, beginning the next
// round first if the previous one is exhausted. It is a no-op once the match
// is finished. Suspension between PlayStep calls is the only pause point:
// a host driver may pump the match at its own pace without ever seeing a
// partially applied move.
func (gm *GameMaster) PlayStep() Step {
	if gm.state.Finished {
		return StepFinished
	}

	if !gm.inRound {
		gm.prepareNextRound()
		gm.checkFinished()
		gm.checkWinner()
		if gm.state.Finished {
			gm.printSummary()
			gm.updateViewers()
			return StepFinished
		}
		gm.inRound = true
		gm.botCursor = 0
	}

	bot := &gm.universe.Bots[gm.botCursor]
	begin := time.Now()
	gm.playBot(bot)
	gm.state.RunningTime += time.Since(begin).Seconds()
	gm.botCursor++

	if gm.state.Finished {
		// Disqualification mid-round ends the match on the spot.
		gm.inRound = false
		gm.printSummary()
		gm.updateViewers()
		return StepFinished
	}
	gm.updateViewers()

	if gm.botCursor >= len(gm.universe.Bots) {
		gm.inRound = false
		gm.checkFinished()
		gm.checkWinner()
		if gm.state.Finished {
			gm.printSummary()
			gm.updateViewers()
			return StepFinished
		}
		return StepRoundDone
	}
	return StepAdvanced
}

// PlayRound advances the match until the current round completes or the
// match finishes.
func (gm *GameMaster) PlayRound() Step {
	for {
		step := gm.PlayStep()
		if step != StepAdvanced {
			return step
		}
	}
}

// Play starts the match if necessary and drives it to completion. The step
// that finishes the match issues the final observer notification, so every
// observer sees one snapshot per bot-turn plus exactly one at match end.
// Cancelling the context abandons the match with ErrMatchAborted after
// releasing every agent's resources.
func (gm *GameMaster) Play(ctx context.Context) error {
	if err := gm.Start(); err != nil {
		return err
	}
	defer gm.releaseTeams()

	for !gm.state.Finished {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrMatchAborted, ctx.Err())
		default:
		}
		gm.PlayStep()
	}
	return nil
}

// GameState returns a copy of the current match record.
func (gm *GameMaster) GameState() *GameState {
	return gm.state.Copy()
}

// Universe returns a copy of the authoritative universe.
func (gm *GameMaster) Universe() *game.Universe {
	return gm.universe.Copy()
}

// playBot runs one bot's turn: snapshot, noise, bounded agent call, apply or
// recover.
func (gm *GameMaster) playBot(bot *game.Bot) {
	gm.state.resetTurn(bot.Index)

	view := gm.universe.Copy()
	if gm.noiser != nil {
		view = gm.noiser.UniformNoise(view, bot.Index)
	}

	ctx, cancel := context.WithTimeout(context.Background(), gm.moveTimeout)
	defer cancel()

	proxy := gm.teams[bot.TeamIndex]
	begin := time.Now()
	move, err := proxy.RequestMove(ctx, bot.Index, view)
	gm.state.TeamTime[bot.TeamIndex] += time.Since(begin).Seconds()

	if err == nil {
		events, applyErr := gm.universe.MoveBot(bot.Index, move)
		if applyErr == nil {
			gm.state.merge(events)
			return
		}
		err = fmt.Errorf("%w: %v", ErrMoveRejected, applyErr)
	}

	if errors.Is(err, ErrDisconnected) {
		log.Warn().Int("team", bot.TeamIndex).Int("bot", bot.Index).
			Msg("team disconnected, team disqualified")
		gm.disqualify(bot.TeamIndex, "disconnected")
		return
	}

	// Timeouts and rejected moves share one recovery path: a bounded count
	// plus a random legal fallback move while under the bound.
	gm.state.TimeoutTeams[bot.TeamIndex]++
	count := gm.state.TimeoutTeams[bot.TeamIndex]
	if count >= gm.maxTimeouts {
		log.Warn().Err(err).Int("team", bot.TeamIndex).Int("bot", bot.Index).
			Msgf("timeout #%d, team disqualified", count)
		gm.disqualify(bot.TeamIndex, "too many timeouts")
		return
	}
	log.Warn().Err(err).Int("team", bot.TeamIndex).Int("bot", bot.Index).
		Msgf("timeout #%d, playing a random move", count)

	events, applyErr := gm.universe.MoveBot(bot.Index, gm.fallbackMove(bot))
	if applyErr != nil {
		log.Error().Err(applyErr).Int("bot", bot.Index).Msg("fallback move failed")
		return
	}
	gm.state.merge(events)
}

// fallbackMove picks a legal move uniformly at random, standing still only
// when nothing else is legal.
func (gm *GameMaster) fallbackMove(bot *game.Bot) game.Move {
	legal := gm.universe.LegalMoves(bot.CurrentPos)
	moving := legal[:0:0]
	for _, m := range legal {
		if m != game.Stop {
			moving = append(moving, m)
		}
	}
	if len(moving) == 0 {
		return game.Stop
	}
	return moving[gm.rng.Intn(len(moving))]
}

// disqualify awards the match to the opposing team and finishes it
// immediately.
func (gm *GameMaster) disqualify(teamIndex int, reason string) {
	winner := 1 - teamIndex
	gm.state.TeamWins = &winner
	gm.state.Finished = true
	log.Info().Int("team", teamIndex).Str("reason", reason).Msg("team disqualified")
}

// prepareNextRound increases the round index if possible and clears the
// current bot.
func (gm *GameMaster) prepareNextRound() {
	if gm.state.Finished {
		return
	}
	gm.state.BotID = nil
	switch {
	case gm.state.RoundIndex == nil:
		zero := 0
		gm.state.RoundIndex = &zero
	case *gm.state.RoundIndex < gm.gameTime:
		*gm.state.RoundIndex++
	default:
		gm.state.Finished = true
	}
}

// checkFinished evaluates the termination conditions: a decided match, the
// round limit, or a team with no opposing food left.
func (gm *GameMaster) checkFinished() {
	if gm.state.TeamWins != nil || gm.state.GameDraw != nil {
		gm.state.Finished = true
		return
	}
	if gm.state.RoundIndex != nil && *gm.state.RoundIndex >= gm.gameTime {
		gm.state.Finished = true
		gm.state.BotID = nil
		return
	}
	for _, team := range gm.universe.Teams {
		if gm.universe.EnemyFood(team.Index) == 0 {
			gm.state.Finished = true
			return
		}
	}
}

// checkWinner compares scores the first time the match finishes, unless a
// disqualification already decided it.
func (gm *GameMaster) checkWinner() {
	if !gm.state.Finished {
		return
	}
	if gm.state.TeamWins != nil || gm.state.GameDraw != nil {
		return
	}
	switch {
	case gm.universe.Teams[0].Score > gm.universe.Teams[1].Score:
		winner := 0
		gm.state.TeamWins = &winner
	case gm.universe.Teams[0].Score < gm.universe.Teams[1].Score:
		winner := 1
		gm.state.TeamWins = &winner
	default:
		draw := true
		gm.state.GameDraw = &draw
	}
}

// printSummary emits the single human-readable result line, exactly once.
func (gm *GameMaster) printSummary() {
	if gm.summaryDone || !gm.state.Finished {
		return
	}
	switch {
	case gm.state.TeamWins != nil:
		winner := gm.universe.Teams[*gm.state.TeamWins]
		loser := gm.universe.Teams[1-*gm.state.TeamWins]
		fmt.Printf("Finished. %q won over %q. (%d:%d)\n",
			winner.Name, loser.Name, winner.Score, loser.Score)
	case gm.state.GameDraw != nil:
		t0, t1 := gm.universe.Teams[0], gm.universe.Teams[1]
		fmt.Printf("Finished. %q and %q had a draw. (%d:%d)\n",
			t0.Name, t1.Name, t0.Score, t1.Score)
	default:
		return
	}
	gm.summaryDone = true
}

// updateViewers hands every observer a deep snapshot of universe and state.
func (gm *GameMaster) updateViewers() {
	for _, viewer := range gm.viewers {
		viewer.Observe(gm.universe.Copy(), gm.state.Copy())
	}
}

// releaseTeams closes every proxy: transports first, processes after, as the
// proxies implement it.
func (gm *GameMaster) releaseTeams() {
	for teamIndex, proxy := range gm.teams {
		if err := proxy.Close(); err != nil {
			log.Warn().Err(err).Msgf("closing team %d", teamIndex)
		}
	}
}
