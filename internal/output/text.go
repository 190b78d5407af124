package output

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/qomet-project/qomet/internal/scenario"
)

// TextWriter emits `.out` format: one space-separated line per
// connection per tick, in scenario connection order --
//
//	time from_id from_x from_y from_z to_id to_x to_y to_z distance
//	Pr SNR standard channel FER bandwidth loss_rate delay_ms jitter_ms
//
// Grounded on qomet.c's per-tick text dump, which walks every connection
// unconditionally regardless of whether its deltaQ changed this tick
// (unlike the binary writer's diff stream).
type TextWriter struct {
	w   *bufio.Writer
	out io.WriteCloser
}

// NewTextWriter wraps an already-open file (or any WriteCloser) for
// buffered line output.
func NewTextWriter(f io.WriteCloser) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(f), out: f}
}

func (t *TextWriter) WriteTick(sc *scenario.Scenario, now time.Duration, _ []scenario.ConnID) error {
	secs := now.Seconds()
	for i := range sc.Connections {
		c := &sc.Connections[i]
		from, to := sc.Node(c.FromNode), sc.Node(c.ToNode)
		_, err := fmt.Fprintf(t.w,
			"%.6f %d %.3f %.3f %.3f %d %.3f %.3f %.3f %.3f %.3f %.3f %s %d %.6f %.3f %.6f %.3f %.3f\n",
			secs,
			c.FromNode, from.Position[0], from.Position[1], from.Position[2],
			c.ToNode, to.Position[0], to.Position[1], to.Position[2],
			c.DistanceM, c.PrDBm, c.SNRdB, c.Standard, c.Channel, c.FER,
			c.Dynamic.BandwidthBps, c.Dynamic.LossRate, c.Dynamic.DelayMs, c.Dynamic.JitterMs,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the buffer and closes the underlying file.
func (t *TextWriter) Close() error {
	if err := t.w.Flush(); err != nil {
		t.out.Close()
		return err
	}
	return t.out.Close()
}
