package searcher

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one search call.
type SearchMetric struct {
	Threads    int
	Duration   time.Duration
	Games      int
	MercyStops int
	TreeReused bool
}

// Collector gathers per-search counters from the workers. Implementations
// must be safe for concurrent use.
type Collector interface {
	Start(threads int)
	AddGame(mercy bool)
	SetTreeReused(value bool)
	Complete() SearchMetric
}

type collector struct {
	threads    int
	startTime  time.Time
	games      atomic.Int32
	mercyStops atomic.Int32
	treeReused atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(threads int) {
	m.threads = threads
	m.startTime = time.Now()
	m.games.Store(0)
	m.mercyStops.Store(0)
}

func (m *collector) AddGame(mercy bool) {
	m.games.Add(1)
	if mercy {
		m.mercyStops.Add(1)
	}
}

func (m *collector) SetTreeReused(value bool) {
	m.treeReused.Store(value)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Threads:    m.threads,
		Duration:   time.Since(m.startTime),
		Games:      int(m.games.Load()),
		MercyStops: int(m.mercyStops.Load()),
		TreeReused: m.treeReused.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(threads int)        {}
func (m *dummyCollector) AddGame(mercy bool)       {}
func (m *dummyCollector) SetTreeReused(value bool) {}
func (m *dummyCollector) Complete() SearchMetric   { return SearchMetric{} }
