// Package experiments runs self-play matches between engine configurations
// and records throughput and strength measurements.
package experiments

import (
	"fmt"
	"time"

	"baduk/engine"
	"baduk/experiments/metrics"
	"baduk/game"
	"baduk/searcher"

	"github.com/rs/zerolog/log"
)

const maxGameMoves = 400

func buildEngine(agent metrics.AgentConfig, base engine.Config) (*engine.Engine, error) {
	cfg := base
	cfg.Threads = agent.Threads
	if agent.Model != "" {
		cfg.ThreadModel = agent.Model
	}
	cfg.ForceSeed = agent.Seed
	cfg.NoBook = true
	cfg.Pondering = false
	return engine.New(cfg)
}

// PlayGame runs one engine-vs-engine game on a fresh board and returns the
// winner with per-move search metrics. agent1 takes Black.
func PlayGame(agent1, agent2 metrics.AgentConfig, base engine.Config, boardSize int) (string, metrics.GameMetric, []metrics.MoveRecord, error) {
	e1, err := buildEngine(agent1, base)
	if err != nil {
		return "", metrics.GameMetric{}, nil, fmt.Errorf("failed to build black engine: %w", err)
	}
	e2, err := buildEngine(agent2, base)
	if err != nil {
		return "", metrics.GameMetric{}, nil, fmt.Errorf("failed to build white engine: %w", err)
	}
	defer e1.Done()
	defer e2.Done()

	b := game.NewBoard(boardSize)
	engines := map[game.Color]*engine.Engine{game.Black: e1, game.White: e2}
	budgets := map[game.Color]int{game.Black: agent1.Games, game.White: agent2.Games}

	start := time.Now()
	var moveRecords []metrics.MoveRecord
	color := game.Black
	passes := 0
	winner := ""

	for step := 1; step <= maxGameMoves; step++ {
		ti := &searcher.TimeInfo{
			Period: searcher.PeriodMove,
			Dim:    searcher.DimGames,
			Games:  budgets[color],
		}
		mover := engines[color]
		c := mover.Genmove(b, ti, color, false)
		moveRecords = append(moveRecords, metrics.MoveRecord{
			Step:         step,
			SearchMetric: mover.Searcher().Metrics().Complete(),
		})

		if c == game.Resign {
			winner = color.Opposite().String()
			break
		}
		m := game.Move{Coord: c, Color: color}
		if err := b.Play(m); err != nil {
			return "", metrics.GameMetric{}, nil, fmt.Errorf("engine played illegal move %s: %w",
				game.FormatCoord(c, boardSize), err)
		}
		engines[color.Opposite()].NotifyPlay(b, m)
		engines[color].NotifyPlay(b, m)

		if c == game.Pass {
			passes++
			if passes >= 2 {
				break
			}
		} else {
			passes = 0
		}
		color = color.Opposite()
	}

	if winner == "" {
		score := b.Score()
		if score > 0 {
			winner = game.Black.String()
		} else {
			winner = game.White.String()
		}
	}

	gm := metrics.GameMetric{
		Winner:     winner,
		StartTime:  start,
		Duration:   time.Since(start),
		TotalMoves: b.Moves,
	}
	log.Info().Str("winner", winner).Int("moves", b.Moves).Msg("self-play game over")
	return winner, gm, moveRecords, nil
}
