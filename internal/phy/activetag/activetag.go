package activetag

import (
	gomath "math"

	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/propagation"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Model implements phy.Model for active RFID tags.
type Model struct {
	Params Params
}

// New returns the active-tag model using the S-NODE parameter set.
func New() *Model { return &Model{Params: SNode} }

// UpdateConnection implements active_tag_connection_update: the same
// single/multi-segment Pr formula as ZigBee's -- rx antenna gain only,
// no directional attenuation, tx gain already folded into Pr0.
func (m *Model) UpdateConnection(c *phy.Ctx) error {
	conn := c.Conn
	txPos := c.TxNode.Position
	rxPos := c.RxNode.Position

	unclamped := geo.DistanceUnclamped(toArr(txPos), toArr(rxPos))
	if unclamped < geo.MinDistance && !conn.WarnedClamp() {
		conn.MarkClamped()
	}
	conn.DistanceM = geo.Distance(toArr(txPos), toArr(rxPos))

	pr0 := c.TxIface.Pr0DBm[scenario.Band900MHz]
	if pr0 == 0 {
		pr0 = propagation.Pr0(c.TxNode.PtDBm, FrequencyHz, c.TxIface.AntennaGainDBi)
	}
	shadow := c.Rand.Gaussian(0, 1)

	var pr float64
	if c.Env.IsDynamic && len(c.Env.Segments) > 1 {
		segs := make([]propagation.SegmentSpec, len(c.Env.Segments))
		for i, s := range c.Env.Segments {
			length := s.LengthM
			if length < 0 {
				length = conn.DistanceM
			}
			segs[i] = propagation.SegmentSpec{Alpha: s.Alpha, WallDB: s.WallDB, SigmaDB: s.SigmaDB, LengthM: length}
		}
		pr = propagation.ReceivedPowerMultiSegment(propagation.MultiSegmentParams{
			TxPr0DBm: pr0, RxGainDBi: c.RxIface.AntennaGainDBi,
			Segments: segs, ShadowSample: shadow,
		})
	} else {
		seg := c.Env.Segments[0]
		pr = propagation.ReceivedPowerSingleSegment(propagation.SingleSegmentParams{
			TxPr0DBm: pr0, RxGainDBi: c.RxIface.AntennaGainDBi,
			Alpha: seg.Alpha, WallDB: seg.WallDB, SigmaDB: seg.SigmaDB,
			SegmentLengthM: seg.LengthM, RuntimeDistM: conn.DistanceM, ShadowSample: shadow,
		})
	}
	conn.PrDBm = pr
	return nil
}

func toArr(c scenario.Coordinate) [3]float64 { return [3]float64(c) }

// FER implements active_tag_fer: if any segment of the through-environment
// has wall attenuation (i.e. is not line-of-sight), FER is 1 outright;
// otherwise a power-2 polynomial in scaled distance, size-adapted from
// the curve's 4-byte/6-byte-header reference frame.
func (m *Model) FER(c *phy.Ctx) (float64, error) {
	conn := c.Conn
	for _, seg := range c.Env.Segments {
		if seg.WallDB > 0 {
			conn.FER = 1.0
			return 1.0, nil
		}
	}

	p := m.Params
	x1 := conn.DistanceM * p.DistanceScaling
	var f float64
	if x1 < 0.5 {
		f = 0.0
	} else {
		x2 := x1 * x1
		f = p.A2*x2 + p.A1*x1 + p.A0
	}
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}

	f = 1 - gomath.Pow(1-f, (refHeaderBytes+float64(conn.PacketSize))/(refHeaderBytes+refPacketBytes))
	conn.FER = f
	return f, nil
}

// LossRate implements active_tag_loss_rate: FER combined with
// interference FER probabilistically, no retransmission.
func (m *Model) LossRate(c *phy.Ctx) (float64, error) {
	f, err := m.FER(c)
	if err != nil {
		return 0, err
	}
	loss := f + c.Conn.InterferenceFER - f*c.Conn.InterferenceFER
	if loss > 1 {
		loss = 1
	}
	return loss, nil
}

// OperatingRate is a no-op: active tags have a single fixed rate.
func (m *Model) OperatingRate(c *phy.Ctx) error {
	c.Conn.NewOperatingRate = c.Conn.OperatingRate
	return nil
}

// DelayJitter implements active_tag_delay_jitter: no variable (RF) delay
// component at all -- delay is purely the two endpoints' internal delays,
// jitter is zero.
func (m *Model) DelayJitter(c *phy.Ctx) (float64, float64, error) {
	delayMs := float64(c.TxNode.InternalDelay.Microseconds())/1000.0 + float64(c.RxNode.InternalDelay.Microseconds())/1000.0
	c.Conn.Dynamic.DelayMs = delayMs
	c.Conn.Dynamic.JitterMs = 0
	return delayMs, 0, nil
}

// Bandwidth implements active_tag_bandwidth: the tag's single fixed
// operating rate, not derived from delay (there is no variable-delay
// component to derive it from).
func (m *Model) Bandwidth(c *phy.Ctx) (float64, error) {
	bps := m.Params.OperatingRateBps
	c.Conn.Dynamic.BandwidthBps = bps
	return bps, nil
}
