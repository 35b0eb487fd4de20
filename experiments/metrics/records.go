package metrics

import (
	"time"

	"baduk/searcher"
)

// AgentConfig identifies one engine configuration under measurement.
type AgentConfig struct {
	ID      int
	Threads int
	Model   searcher.ThreadModel
	Games   int
	Seed    uint64
}

// GameMetric summarizes one self-play game.
type GameMetric struct {
	Winner     string
	StartTime  time.Time
	Duration   time.Duration
	TotalMoves int
}

// GameRecord ties a game metric to the agents that produced it.
type GameRecord struct {
	ID     int
	Agent1 int // AgentConfig.ID
	Agent2 int // AgentConfig.ID
	GameMetric
}

// MoveRecord ties a search metric to its game and move number.
type MoveRecord struct {
	Game int // GameRecord.ID
	Step int
	searcher.SearchMetric
}
