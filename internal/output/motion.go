package output

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/qomet-project/qomet/internal/scenario"
)

// MotionFormat selects which of the two external trace formats
// names a MotionWriter should emit.
type MotionFormat int

const (
	MotionFormatNam MotionFormat = iota
	MotionFormatNS2
)

// MotionWriter emits per-node position records in either nam's ("Network
// Animator") or ns2's mobility-trace syntax. Both are stub formats here:
// enough of each to drive a viewer's node positions over time, not a
// full re-implementation of either tool's feature set.
type MotionWriter struct {
	w      *bufio.Writer
	out    io.WriteCloser
	format MotionFormat
	nodes  int

	initialized bool
}

// NewMotionWriter wraps f for the given format. nodeCount is written into
// nam's preamble (one node-definition line per node) the first time
// WriteTick runs.
func NewMotionWriter(f io.WriteCloser, format MotionFormat, nodeCount int) *MotionWriter {
	return &MotionWriter{w: bufio.NewWriter(f), out: f, format: format, nodes: nodeCount}
}

func (m *MotionWriter) WriteTick(sc *scenario.Scenario, now time.Duration, _ []scenario.ConnID) error {
	if !m.initialized {
		if err := m.writePreamble(); err != nil {
			return err
		}
		m.initialized = true
	}

	secs := now.Seconds()
	for i := range sc.Nodes {
		n := &sc.Nodes[i]
		var err error
		switch m.format {
		case MotionFormatNam:
			_, err = fmt.Fprintf(m.w, "n -t %.6f -s %d -x %.3f -y %.3f -z %.3f\n",
				secs, n.ID, n.Position[0], n.Position[1], n.Position[2])
		default: // MotionFormatNS2
			_, err = fmt.Fprintf(m.w, "$ns_ at %.6f \"$node_(%d) setdest %.3f %.3f %.3f\"\n",
				secs, n.ID, n.Position[0], n.Position[1], n.Position[2])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *MotionWriter) writePreamble() error {
	if m.format != MotionFormatNam {
		return nil
	}
	for id := 0; id < m.nodes; id++ {
		if _, err := fmt.Fprintf(m.w, "n -t * -s %d -a %d -c black -o UP\n", id, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *MotionWriter) Close() error {
	if err := m.w.Flush(); err != nil {
		m.out.Close()
		return err
	}
	return m.out.Close()
}
