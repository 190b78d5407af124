package zigbee

import (
	gomath "math"

	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/propagation"
	"github.com/qomet-project/qomet/internal/scenario"
)

// macOverheadBytes is zigbee_fer's MAC_Overhead: 2+1+0+8+0+8+0+2, maximum
// address fields, no security, used to size-adapt the reference FER.
const macOverheadBytes = 2 + 1 + 0 + 8 + 0 + 8 + 0 + 2

// Model implements phy.Model for 802.15.4/ZigBee. Stateless: all
// per-connection state lives on scenario.Connection.
type Model struct{}

// New returns the shared ZigBee model.
func New() *Model { return &Model{} }

// UpdateConnection implements zigbee_connection_update: distance, then Pr
// from Pr0 with path loss, wall attenuation and shadow fading, plus the
// *receive*-side antenna gain only -- unlike WLAN/WiMAX, ZigBee's Pr
// formula never re-adds a transmit antenna gain term (it is already
// folded into Pr0 by zigbee_interface_update_Pr0) and applies no
// directional-antenna attenuation at all.
func (m *Model) UpdateConnection(c *phy.Ctx) error {
	conn := c.Conn
	txPos := c.TxNode.Position
	rxPos := c.RxNode.Position

	unclamped := geo.DistanceUnclamped(toArr(txPos), toArr(rxPos))
	if unclamped < geo.MinDistance && !conn.WarnedClamp() {
		conn.MarkClamped()
	}
	conn.DistanceM = geo.Distance(toArr(txPos), toArr(rxPos))

	pr0 := c.TxIface.Pr0DBm[scenario.Band2_4GHz]
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

// FER implements zigbee_fer: SNR from combined environment+interference
// noise floored at StandardNoiseDBm, Model1 exponential threshold curve,
// then size adaptation to the connection's actual packet size.
func (m *Model) FER(c *phy.Ctx) (float64, error) {
	conn := c.Conn
	seg := c.Env.Segments[len(c.Env.Segments)-1]
	combinedNoise := propagation.AddPowers(seg.NoisePower, conn.InterferenceNoiseDBm, MinimumNoisePowerDBm)
	if combinedNoise < StandardNoiseDBm {
		combinedNoise = StandardNoiseDBm
	}
	snr := conn.PrDBm - combinedNoise
	conn.SNRdB = snr

	f1 := Jennic.PrThresholdFER * gomath.Exp(Jennic.Model1Alpha*(Jennic.PrThresholds[0]-snr-StandardNoiseDBm))
	if f1 > phy.MaxFER {
		f1 = phy.MaxFER
	}

	header := float64(macOverheadBytes)
	f := 1 - gomath.Pow(1-f1, (float64(conn.PacketSize)+header)/PSDU)
	if f < 0 {
		f = 0
	}
	if f > phy.MaxFER {
		f = phy.MaxFER
	}
	conn.FER = f
	return f, nil
}

// LossRate implements zigbee_loss_rate's two branches: with MAC emulation
// disabled (the default), loss combines FER and interference FER
// probabilistically; with it enabled, loss is FER raised to the maximum
// retransmission count.
func (m *Model) LossRate(c *phy.Ctx) (float64, error) {
	f, err := m.FER(c)
	if err != nil {
		return 0, err
	}
	conn := c.Conn
	if !conn.EnableMACEmulation {
		loss := f + conn.InterferenceFER - f*conn.InterferenceFER
		if loss > 1 {
			loss = 1
		}
		return loss, nil
	}
	return gomath.Pow(f, ZigBeeMaxTransmissions), nil
}

// OperatingRate is a no-op: ZigBee has a single fixed rate (250 kbps),
// zigbee.c performs no rate adaptation.
func (m *Model) OperatingRate(c *phy.Ctx) error {
	c.Conn.OperatingRate = 0
	c.Conn.NewOperatingRate = 0
	return nil
}

// ppduDuration implements zigbee_ppdu_duration: PHY+MAC overhead, payload,
// ACK turnaround and the SIFS/LIFS choice based on frame size, all in
// microseconds.
func ppduDuration(packetSize int) float64 {
	const symbolDuration = 16.0
	const preamble = 128.0
	const sfd = 32.0
	const phr = 32.0
	phyOverhead := preamble + sfd + phr

	macOverhead := float64(macOverheadBytes) * 2 * symbolDuration
	payload := float64(packetSize) * 2 * symbolDuration
	ack := 6 * 2 * symbolDuration

	turnaround := 12 * symbolDuration
	unitBackoff := 20 * symbolDuration
	delayToACK := turnaround + unitBackoff/2

	sifs := 12 * symbolDuration
	lifs := 40 * symbolDuration
	const maxSIFSFrameSize = 18

	ifs := sifs
	if float64(packetSize)+macOverhead/2/symbolDuration > maxSIFSFrameSize {
		ifs = lifs
	}

	return phyOverhead + macOverhead + payload + delayToACK + preamble + sfd + ack + ifs
}

// DelayJitter implements zigbee_delay_jitter: the same CW-table backoff
// recurrence WLAN uses, but D_avg/J_avg only become FER-weighted when MAC
// emulation is enabled -- by default they are simply D[0]/J[0], the
// zero-retransmission values, since there is no retransmission mechanism
// to average over.
func (m *Model) DelayJitter(c *phy.Ctx) (float64, float64, error) {
	conn := c.Conn
	const slotTime = 20 * 16.0 // aUnitBackoffPeriod, microseconds
	cw := []float64{3, 3, 3, 3}
	r := len(cw)

	constant := ppduDuration(conn.PacketSize)

	d := make([]float64, r)
	d[0] = constant + cw[0]*slotTime/2.0
	for i := 1; i < r; i++ {
		d[i] = d[i-1] + constant + cw[i]*slotTime/2.0
	}

	dAvg := d[0]
	if conn.EnableMACEmulation {
		fer := conn.FER
		sum := d[0]
		for i := 1; i < r; i++ {
			sum += d[i] * gomath.Pow(fer, float64(i))
		}
		dAvg = (1 - fer) / (1 - gomath.Pow(fer, float64(r))) * sum
	}

	j := make([]float64, r)
	for i := 0; i < r; i++ {
		j[i] = gomath.Abs(d[i] - dAvg)
	}
	j[0] += slotTime * (cw[0] + 1) / 4.0

	jAvg := j[0]
	if conn.EnableMACEmulation {
		fer := conn.FER
		sum := j[0]
		for i := 1; i < r; i++ {
			sum += j[i] * gomath.Pow(fer, float64(i))
		}
		jAvg = (1 - fer) / (1 - gomath.Pow(fer, float64(r))) * sum
	}

	delayMs := dAvg / 1000.0
	jitterMs := jAvg / 1000.0

	if conn.ConsiderInterference && conn.ConcurrentStations > 0 {
		n := float64(conn.ConcurrentStations) + 1
		mult := gomath.Sqrt(n * gomath.Log2(n))
		delayMs *= mult
		jitterMs *= mult
	}

	delayMs += float64(c.TxNode.InternalDelay.Microseconds())/1000.0 + float64(c.RxNode.InternalDelay.Microseconds())/1000.0

	conn.Dynamic.DelayMs = delayMs
	conn.Dynamic.JitterMs = jitterMs
	return delayMs, jitterMs, nil
}

// Bandwidth implements zigbee_bandwidth: packet size over variable delay,
// the same pattern WLAN/WiMAX use.
func (m *Model) Bandwidth(c *phy.Ctx) (float64, error) {
	conn := c.Conn
	if conn.Dynamic.DelayMs <= 0 {
		return 0, nil
	}
	bps := float64(conn.PacketSize) * 8 * 1e3 / conn.Dynamic.DelayMs
	conn.Dynamic.BandwidthBps = bps
	return bps, nil
}
