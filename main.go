package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mazectf/agent"
	"mazectf/communication"
	"mazectf/config"
	"mazectf/game"
	"mazectf/gamemaster"
	"mazectf/viewer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML match configuration")
	rounds := flag.Int("rounds", 0, "override the number of rounds")
	seed := flag.Uint64("seed", 0, "override the random seed")
	dumpDir := flag.String("dump", "", "write a replay dump into this directory")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	if *rounds > 0 {
		cfg.GameTime = *rounds
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *dumpDir != "" {
		cfg.DumpDir = *dumpDir
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("match failed")
	}
}

func run(cfg config.Config) error {
	layout, err := cfg.LayoutString(game.DefaultLayout)
	if err != nil {
		return err
	}
	universe, err := game.NewUniverse(layout, cfg.NumberBots)
	if err != nil {
		return err
	}

	options := []gamemaster.Option{
		gamemaster.WithSeed(cfg.Seed),
		gamemaster.WithMoveTimeout(time.Duration(cfg.MoveTimeout)),
		gamemaster.WithMaxTimeouts(cfg.MaxTimeouts),
		gamemaster.WithNoise(
			gamemaster.WithNoiseRadius(cfg.NoiseRadius),
			gamemaster.WithSightDistance(cfg.SightDistance),
		),
	}
	if !cfg.Noise {
		options = append(options, gamemaster.WithoutNoise())
	}
	gm := gamemaster.New(universe, cfg.GameTime, options...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	teams := cfg.Teams
	if len(teams) == 0 {
		teams = []config.TeamSpec{
			{Name: "blue", Kind: "random"},
			{Name: "red", Kind: "random"},
		}
	}
	for i, spec := range teams {
		proxy, err := buildProxy(ctx, spec, cfg, uint64(i))
		if err != nil {
			return fmt.Errorf("team %d: %w", i, err)
		}
		if err := gm.RegisterTeam(proxy, spec.Name); err != nil {
			return err
		}
	}

	gm.RegisterViewer(viewer.NewLogViewer(log.Logger))
	if cfg.DumpDir != "" {
		dump, err := viewer.NewDumpViewer(cfg.DumpDir)
		if err != nil {
			return err
		}
		defer dump.Close()
		gm.RegisterViewer(dump)
		log.Info().Str("match_id", dump.MatchID()).Str("dir", cfg.DumpDir).Msg("dumping replay")
	}

	return gm.Play(ctx)
}

// buildProxy turns a team spec into an agent proxy. Remote teams listen for
// a websocket connection, optionally spawning the agent command first with
// the master's address as its last argument.
func buildProxy(ctx context.Context, spec config.TeamSpec, cfg config.Config, seedOffset uint64) (gamemaster.Proxy, error) {
	switch spec.Kind {
	case "stopping":
		return agent.NewLocalProxy(agent.StoppingPlayer{}), nil
	case "remote":
		listener, err := communication.Listen(spec.Address)
		if err != nil {
			return nil, err
		}
		defer listener.Close()

		var process *communication.Subprocess
		if spec.Command != "" {
			args := append(append([]string(nil), spec.Args...), "ws://"+listener.Addr())
			process, err = communication.Spawn(spec.Command, args...)
			if err != nil {
				return nil, err
			}
		} else {
			log.Info().Msgf("waiting for external agent on ws://%s", listener.Addr())
		}

		acceptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		proxy, err := listener.Accept(acceptCtx)
		if err != nil {
			if process != nil {
				_ = process.Shutdown(3 * time.Second)
			}
			return nil, err
		}
		if process != nil {
			proxy.AttachProcess(process)
		}
		return proxy, nil
	default: // "random"
		return agent.NewLocalProxy(agent.NewRandomPlayer(cfg.Seed + seedOffset)), nil
	}
}
