package experiments

import (
	"fmt"
	"sync"

	"baduk/engine"
	"baduk/experiments/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	NumGames     = 10 // per matchup
	GamesPerMove = 2000
	BoardSize    = 9
	// How many self-play games to run concurrently within a matchup.
	gameParallelism = 4
)

var parallelConfigs = []metrics.AgentConfig{
	{ID: 1, Threads: 1, Games: GamesPerMove},
	{ID: 2, Threads: 2, Games: GamesPerMove},
	{ID: 3, Threads: 4, Games: GamesPerMove},
	{ID: 4, Threads: 8, Games: GamesPerMove},
}

// RunThroughputExperiment measures how worker count trades against search
// throughput: each matchup plays both sides with the same configuration so
// strength stays equal and game lengths comparable.
func RunThroughputExperiment() error {
	matchUps := make([][2]metrics.AgentConfig, 0, len(parallelConfigs))
	for _, config := range parallelConfigs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{config, config})
	}
	return runExperiment("throughput", parallelConfigs, matchUps)
}

// RunStrengthExperiment pairs each parallel configuration against the
// single-threaded baseline.
func RunStrengthExperiment() error {
	baseline := metrics.AgentConfig{ID: 0, Threads: 1, Games: GamesPerMove}
	matchUps := make([][2]metrics.AgentConfig, 0, len(parallelConfigs))
	for _, config := range parallelConfigs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{baseline, config})
	}
	return runExperiment("strength", append(parallelConfigs, baseline), matchUps)
}

func runExperiment(name string, configs []metrics.AgentConfig, matchUps [][2]metrics.AgentConfig) error {
	base := engine.DefaultConfig()

	log.Info().Str("experiment", name).Msg("starting experiment")

	var mu sync.Mutex
	count := 0
	var gameRecords []metrics.GameRecord
	var moveRecords []metrics.MoveRecord

	for mi, matchup := range matchUps {
		agent1, agent2 := matchup[0], matchup[1]
		log.Info().
			Int("matchup", mi+1).
			Int("of", len(matchUps)).
			Interface("agent1", agent1).
			Interface("agent2", agent2).
			Msg("starting matchup")

		var g errgroup.Group
		g.SetLimit(gameParallelism)
		for i := 0; i < NumGames; i++ {
			g.Go(func() error {
				winner, gameMetric, moves, err := PlayGame(agent1, agent2, base, BoardSize)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				count++
				gameRecords = append(gameRecords, metrics.GameRecord{
					ID:         count,
					Agent1:     agent1.ID,
					Agent2:     agent2.ID,
					GameMetric: gameMetric,
				})
				for _, mm := range moves {
					mm.Game = count
					moveRecords = append(moveRecords, mm)
				}
				log.Info().Str("winner", winner).Int("game", count).Msg("game recorded")
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("matchup %d failed: %w", mi+1, err)
		}
	}

	log.Info().Str("experiment", name).Msg("completed experiment")

	writer, err := metrics.NewWriter(name)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return fmt.Errorf("failed to store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored experiment records")
	return nil
}
