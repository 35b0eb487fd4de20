package searcher

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Default number of simulations per move when the caller gives no budget.
// This is the total over all threads (except in root-parallel mode, where
// each worker owns a tree of its own).
const DefaultGames = 80000

// Safety extensions over the desired thinking time: in main time we may
// spend up to 3x, in byoyomi only 1.1x.
const (
	maxMainTimeExtension    = 3.0
	maxByoyomiTimeExtension = 1.1
)

// TimePeriod tells what the budget covers.
type TimePeriod int

const (
	PeriodNone TimePeriod = iota
	PeriodMove
	PeriodTotal // must be converted to PeriodMove by the front-end
)

// TimeDim tells what the budget is measured in.
type TimeDim int

const (
	DimGames TimeDim = iota
	DimWalltime
)

// TimeInfo is the time-control record handed down by the front-end.
type TimeInfo struct {
	Period TimePeriod
	Dim    TimeDim

	Games int

	Recommended time.Duration
	Max         time.Duration
	TimerStart  time.Time
	NetLag      time.Duration
	Byoyomi     bool
}

// stopConditions is the tagged stop budget the controller polls against.
type stopConditions struct {
	byTime      bool
	desiredStop time.Time
	worstStop   time.Time

	desiredPlayouts int
	worstPlayouts   int
}

// timePrep converts the external time info into stop conditions. The stop
// instants may legitimately lie in the past when the connection lags; the
// controller still polls at least once.
func (u *Searcher) timePrep(ti *TimeInfo, boardMoves, boardSize, movesLeft int) stopConditions {
	if ti.Period == PeriodTotal {
		panic("total-period time info must be converted before the search core")
	}
	if ti.Period == PeriodNone {
		ti.Period = PeriodMove
		ti.Dim = DimGames
		ti.Games = DefaultGames
	}

	var stop stopConditions
	if ti.Dim == DimGames {
		// Worst is forced equal to desired, so the controller will not wait
		// for the best == winner gate.
		stop.desiredPlayouts = ti.Games
		stop.worstPlayouts = ti.Games
		return stop
	}

	desired := ti.Recommended
	var worst time.Duration
	if ti.Byoyomi {
		// Make recommended the average of desired and worst.
		worst = time.Duration(float64(desired) * maxByoyomiTimeExtension)
		desired = time.Duration(float64(desired) * (2 - maxByoyomiTimeExtension))
	} else {
		bsize := boardSize * boardSize
		fusekiEnd := u.cfg.FusekiEnd * bsize / 100 // move number at fuseki end
		yoseStart := u.cfg.YoseStart * bsize / 100 // move number at yose start

		// Only the moves we play ourselves count.
		const minMovesLeft = 30
		leftAtYoseStart := (boardMoves-yoseStart)/2 + movesLeft
		if leftAtYoseStart < minMovesLeft {
			leftAtYoseStart = minMovesLeft
		}
		longest := ti.Max / time.Duration(leftAtYoseStart)
		switch {
		case longest < desired:
			// Should rarely happen; keep desired unchanged.
		case boardMoves < fusekiEnd:
			desired += (longest - desired) * time.Duration(boardMoves) / time.Duration(fusekiEnd)
		case boardMoves < yoseStart:
			desired = longest
		}
		worst = time.Duration(float64(desired) * maxMainTimeExtension)
	}
	if worst > ti.Max {
		worst = ti.Max
	}
	if desired > worst {
		desired = worst
	}

	stop.byTime = true
	stop.desiredStop = ti.TimerStart.Add(desired - ti.NetLag)
	stop.worstStop = ti.TimerStart.Add(worst - ti.NetLag)

	log.Debug().
		Dur("desired", desired).
		Dur("worst", worst).
		Msg("time allocation")
	return stop
}
