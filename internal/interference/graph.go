package interference

import "github.com/qomet-project/qomet/internal/scenario"

// Graph groups connections for the parallel deltaQ loop:
// connections that share a receiving node are kept in the same group, so
// a goroutine-per-group scheduler (internal/deltaq.Engine.RunParallel)
// never has two goroutines touching the same receiver's per-node state
// concurrently, while connections to unrelated receivers can run fully
// in parallel.
type Graph struct {
	sc *scenario.Scenario
}

// NewGraph builds a Graph over a scenario's current connection set. The
// scenario must already be Resolve'd.
func NewGraph(sc *scenario.Scenario) *Graph {
	return &Graph{sc: sc}
}

// Partition returns one group of connection ids per distinct receiving
// node. Sweep itself is not included in this parallelism: it mutates
// scenario-wide interface bookkeeping (the per-sweep "accounted" marker)
// and must run single-threaded before any partitioned group starts;
// Partition exists for the per-connection FER/loss/delay/bandwidth phase
// that follows it, which only touches fields owned by the connection
// itself.
func (g *Graph) Partition() [][]scenario.ConnID {
	byReceiver := make(map[scenario.NodeID][]scenario.ConnID)
	var order []scenario.NodeID
	for i := range g.sc.Connections {
		c := &g.sc.Connections[i]
		if _, ok := byReceiver[c.ToNode]; !ok {
			order = append(order, c.ToNode)
		}
		byReceiver[c.ToNode] = append(byReceiver[c.ToNode], c.ID)
	}

	groups := make([][]scenario.ConnID, 0, len(order))
	for _, node := range order {
		groups = append(groups, byReceiver[node])
	}
	return groups
}
