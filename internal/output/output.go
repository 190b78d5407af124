// Package output implements three on-disk sinks (text, binary,
// settings) plus a motion-trace writer, and the fan-out that lets an
// engine run emit into any combination of them through the same
// deltaq.TickFunc hook qomet.c's main loop calls after every tick.
package output

import (
	"time"

	"github.com/qomet-project/qomet/internal/scenario"
)

// Writer is one output sink: something that can be told about a tick and
// closed once the run ends. TextWriter, BinaryWriter and MotionWriter all
// implement it. Settings are written by the plain function WriteSettings
// instead, since they are written once at the end rather than per tick.
type Writer interface {
	WriteTick(sc *scenario.Scenario, now time.Duration, changed []scenario.ConnID) error
	Close() error
}

// Multi fans a single tick out to every writer it holds, in order,
// stopping at the first error -- the same "flush what's already computed
// before aborting" contract asks of the engine.
type Multi struct {
	Writers []Writer
}

// TickFunc adapts m to deltaq.Engine.Run/RunParallel's onTick hook.
func (m *Multi) TickFunc(sc *scenario.Scenario) func(now time.Duration, changed []scenario.ConnID) error {
	return func(now time.Duration, changed []scenario.ConnID) error {
		for _, w := range m.Writers {
			if err := w.WriteTick(sc, now, changed); err != nil {
				return err
			}
		}
		return nil
	}
}

// Close closes every writer, collecting the first error but still
// attempting to close the rest.
func (m *Multi) Close() error {
	var first error
	for _, w := range m.Writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
