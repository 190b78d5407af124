package deltaq

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qomet-project/qomet/internal/interference"
	"github.com/qomet-project/qomet/internal/motion"
	"github.com/qomet-project/qomet/internal/scenario"
)

// TickFunc is called once per tick, after every connection's deltaQ has
// been recomputed for that instant and before motion advances to the
// next one -- the hook output.Writer implementations attach to.
type TickFunc func(now time.Duration, changed []scenario.ConnID) error

// Run drives the scenario from StartTime through StartTime+Duration in
// Step increments, calling Tick for every connection (in scenario order)
// at each tick, then onTick, then advancing motion MotionStepDivider
// times -- qomet.c's main loop: deltaQ evaluation, then output, then N
// motion sub-steps before the next deltaQ evaluation.
func (e *Engine) Run(sc *scenario.Scenario, motionReg *motion.Registry, onTick TickFunc) error {
	divider := sc.MotionStepDivider
	if divider < 1 {
		divider = 1
	}
	subStep := sc.Step / time.Duration(divider)

	end := sc.StartTime + sc.Duration
	for now := sc.StartTime; now < end; now += sc.Step {
		changed, err := e.tickAll(sc, now)
		if err != nil {
			return err
		}
		if onTick != nil {
			if err := onTick(now, changed); err != nil {
				return err
			}
		}
		for k := 0; k < divider; k++ {
			sub := now + time.Duration(k)*subStep
			if err := motion.Advance(sc, motionReg, e.Rand, sub, subStep); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) tickAll(sc *scenario.Scenario, now time.Duration) ([]scenario.ConnID, error) {
	var changed []scenario.ConnID
	for i := range sc.Connections {
		id := sc.Connections[i].ID
		didChange, err := e.Tick(sc, id, now)
		if err != nil {
			return nil, err
		}
		if didChange {
			changed = append(changed, id)
		}
	}
	return changed, nil
}

// RunParallel is Run's concurrent variant: each tick's connections are
// split by interference.Graph.Partition (one group per distinct
// receiving node, so no two goroutines ever touch the same receiver's
// fields) and ticked concurrently via golang.org/x/sync/errgroup. Each
// group gets its own RNG stream (e.Rand.Split, keyed by group index) so
// a run's output is reproducible for a fixed scenario and worker count,
// even though it is no longer bit-identical to Run's single-stream,
// connection-order draws -- a tradeoff the sequential connection_deltaQ
// loop in the original never had to make.
func (e *Engine) RunParallel(ctx context.Context, sc *scenario.Scenario, motionReg *motion.Registry, onTick TickFunc) error {
	graph := interference.NewGraph(sc)
	groups := graph.Partition()

	divider := sc.MotionStepDivider
	if divider < 1 {
		divider = 1
	}
	subStep := sc.Step / time.Duration(divider)

	end := sc.StartTime + sc.Duration
	for now := sc.StartTime; now < end; now += sc.Step {
		changed, err := e.tickGroupsParallel(ctx, sc, groups, now)
		if err != nil {
			return err
		}
		if onTick != nil {
			if err := onTick(now, changed); err != nil {
				return err
			}
		}
		for k := 0; k < divider; k++ {
			sub := now + time.Duration(k)*subStep
			if err := motion.Advance(sc, motionReg, e.Rand, sub, subStep); err != nil {
				return err
			}
		}
	}
	return nil
}

// tickGroupsParallel runs interference.Sweep once, sequentially, for
// every connection in the scenario (it mutates scenario-wide interface
// "accounted" bookkeeping and would race if two connections swept
// concurrently), then fans the remaining per-connection work out across
// groups: each group's connections share a receiving node and never
// touch another group's fields, so they tick fully concurrently.
func (e *Engine) tickGroupsParallel(ctx context.Context, sc *scenario.Scenario, groups [][]scenario.ConnID, now time.Duration) ([]scenario.ConnID, error) {
	if err := interference.Sweep(sc, e.Registry, e.Cache, e.Rand, now); err != nil {
		return nil, err
	}

	results := make([][]scenario.ConnID, len(groups))

	g, _ := errgroup.WithContext(ctx)
	for gi, ids := range groups {
		gi, ids := gi, ids
		rnd := e.Rand.Split(gi)
		worker := &Engine{Registry: e.Registry, Cache: e.Cache, Rand: &rnd}
		g.Go(func() error {
			var local []scenario.ConnID
			for _, id := range ids {
				conn := sc.Conn(id)
				pctx, model, err := worker.buildCtx(sc, conn, now)
				if err != nil {
					return err
				}
				didChange, err := tickCompute(pctx, model)
				if err != nil {
					return err
				}
				if didChange {
					local = append(local, id)
				}
			}
			results[gi] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changed []scenario.ConnID
	for _, r := range results {
		changed = append(changed, r...)
	}
	return changed, nil
}
