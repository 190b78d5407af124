package scenario

// Typed index handles. Names are resolved to these exactly once, during
// Scenario.Resolve; every other piece of code (propagation, phy models,
// interference, motion, output) deals in these small integers rather
// than strings.

type NodeID int32

type IfaceID int32

type EnvID int32

type ConnID int32

type ObjectID int32

// InvalidID is returned by resolution helpers when a name lookup fails;
// never treat it as a usable index.
const InvalidID = -1
