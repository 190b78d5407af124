package deltaq

import (
	"github.com/brunoga/deep"
	"github.com/qomet-project/qomet/internal/scenario"
)

// MaximumPrecompute bounds the steady-state convergence loop Precompute
// runs per connection. deltaQ.c's initialize_flows carries an equivalent
// cap (MAXIMUM_PRECOMPUTE) that wasn't present in the retrieved source
// excerpt; 32 is a reconstruction -- generous enough that any connection
// whose interference neighborhood actually settles will converge well
// before it, while still bounding load-time cost for a scenario that
// doesn't.
const MaximumPrecompute = 32

// Precompute runs deltaQ.c's initialize_flows: for each connection,
// independently of every other, call Tick repeatedly at the scenario's
// start time until nothing about it changes or MaximumPrecompute
// iterations are spent, then move to the next connection. This is a
// per-connection loop, not a whole-scenario fixed-point -- connection 2's
// interference sweep during its own convergence sees connection 5's
// fields exactly as they stood when connection 2 was reached, possibly
// still mid-convergence themselves. That's a faithful quirk of the
// original, not a bug: scenarios are expected to tolerate it, and
// reproducing the per-connection ordering here keeps behavior aligned
// with deltaQ.c rather than "fixing" it into a whole-scenario fixed point
// the original never computed.
func (e *Engine) Precompute(sc *scenario.Scenario) error {
	now := sc.StartTime
	for i := range sc.Connections {
		id := sc.Connections[i].ID
		var prev *scenario.Connection
		for iter := 0; iter < MaximumPrecompute; iter++ {
			changed, err := e.Tick(sc, id, now)
			if err != nil {
				return err
			}

			// Tick's own changed flag only tracks the four deltaQ-visible
			// fields (matching connection_do_compute's own narrow check);
			// cross-check the full connection snapshot too, so a
			// connection whose interference bookkeeping
			// (ConcurrentStations, InterferenceNoiseDBm, ...) is still
			// oscillating isn't mistaken for converged just because its
			// loss/delay/jitter/bandwidth happened to coincide this round.
			snap, err := deep.Copy(sc.Conn(id))
			if err != nil {
				return err
			}
			settled := !changed && prev != nil && connectionsEqual(prev, snap)
			prev = snap
			if settled {
				break
			}
		}
	}
	return nil
}

func connectionsEqual(a, b *scenario.Connection) bool {
	return a.Dynamic == b.Dynamic &&
		a.OperatingRate == b.OperatingRate &&
		a.NewOperatingRate == b.NewOperatingRate &&
		a.ConcurrentStations == b.ConcurrentStations &&
		a.InterferenceNoiseDBm == b.InterferenceNoiseDBm &&
		a.InterferenceFER == b.InterferenceFER &&
		a.NumRetransmissions == b.NumRetransmissions &&
		a.CompatibilityMode == b.CompatibilityMode
}
