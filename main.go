package main

import (
	"flag"

	"baduk/engine"
	"baduk/experiments"
	"baduk/experiments/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "YAML engine config file")
	experiment := flag.String("experiment", "", "run an experiment: throughput | strength")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	switch *experiment {
	case "throughput":
		if err := experiments.RunThroughputExperiment(); err != nil {
			log.Fatal().Err(err).Msg("throughput experiment failed")
		}
		return
	case "strength":
		if err := experiments.RunStrengthExperiment(); err != nil {
			log.Fatal().Err(err).Msg("strength experiment failed")
		}
		return
	case "":
	default:
		log.Fatal().Str("experiment", *experiment).Msg("unknown experiment")
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = engine.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot load config")
		}
	}

	// Default run: a quick demonstration game between two equal agents.
	agent := metrics.AgentConfig{ID: 1, Threads: cfg.Threads, Games: 2000}
	winner, gm, _, err := experiments.PlayGame(agent, agent, cfg, 9)
	if err != nil {
		log.Fatal().Err(err).Msg("demo game failed")
	}
	log.Info().Str("winner", winner).Dur("duration", gm.Duration).Msg("demo game finished")
}
