package wlan

import (
	gomath "math"

	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/propagation"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Constants reconstructed because wlan.h (the original #defines) was not
// present in the retrieved original_source. Values follow the commonly
// published defaults for the deltaQ WLAN model; where wlan.c's comments
// gave an exact figure (e.g. the FER clamp, the CW tables) those are used
// verbatim instead.
const (
	MaxTransmissions       = 7 // len(CW_b)/len(CW_ag)
	MaxTransmissionsRTSCTS = 4

	ARFFERDownThreshold = 0.10
	ARFFERUpThreshold   = 0.95
	ARFFERKeepThreshold = 0.10

	StandardNoiseDBm = -100.0
)

// CW tables, verbatim from wlan.c's CW_b / CW_ag.
var (
	cwB  = []float64{31, 63, 127, 255, 511, 1023, 1023}
	cwAG = []float64{15, 31, 63, 127, 255, 511, 1023}
)

// Model implements phy.Model for 802.11b/g/a.
type Model struct{}

// New returns the shared 802.11b/g/a model. Stateless: all per-connection
// state lives on scenario.Connection.
func New() *Model { return &Model{} }

func bandFor(standard scenario.StandardKind) scenario.Band {
	if standard == scenario.Standard80211a {
		return scenario.Band5GHz
	}
	return scenario.Band2_4GHz
}

// UpdateConnection recomputes distance and Pr (/§4.2).
func (m *Model) UpdateConnection(c *phy.Ctx) error {
	conn := c.Conn
	txPos := c.TxNode.Position
	rxPos := c.RxNode.Position

	unclamped := geo.DistanceUnclamped(toArr(txPos), toArr(rxPos))
	if unclamped < geo.MinDistance && !conn.WarnedClamp() {
		conn.MarkClamped()
	}
	conn.DistanceM = geo.Distance(toArr(txPos), toArr(rxPos))

	txDir := geo.DirectionalAttenuation(c.TxIface.AzimuthDeg, c.TxIface.ElevationDeg, c.TxIface.BeamwidthDeg, toArr(txPos), toArr(rxPos))
	rxDir := geo.DirectionalAttenuation(c.RxIface.AzimuthDeg, c.RxIface.ElevationDeg, c.RxIface.BeamwidthDeg, toArr(rxPos), toArr(txPos))

	band := bandFor(conn.Standard)
	pr0 := c.TxIface.Pr0DBm[band]
	if pr0 == 0 {
		pr0 = propagation.Pr0(c.TxNode.PtDBm, carrierHzFor(conn.Standard), 0)
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
			TxPr0DBm: pr0, TxGainDBi: c.TxIface.AntennaGainDBi, TxDirAttenDB: txDir,
			RxGainDBi: c.RxIface.AntennaGainDBi, RxDirAttenDB: rxDir,
			Segments: segs, ShadowSample: shadow,
		})
	} else {
		seg := c.Env.Segments[0]
		pr = propagation.ReceivedPowerSingleSegment(propagation.SingleSegmentParams{
			TxPr0DBm: pr0, TxGainDBi: c.TxIface.AntennaGainDBi, TxDirAttenDB: txDir,
			RxGainDBi: c.RxIface.AntennaGainDBi, RxDirAttenDB: rxDir,
			Alpha: seg.Alpha, WallDB: seg.WallDB, SigmaDB: seg.SigmaDB,
			SegmentLengthM: seg.LengthM, RuntimeDistM: conn.DistanceM, ShadowSample: shadow,
		})
	}
	conn.PrDBm = pr
	return nil
}

func toArr(c scenario.Coordinate) [3]float64 { return [3]float64(c) }

// fer1 computes the un-size-adapted FER at a given rate index using the
// adapter's Model1 (exponential threshold) or, where enabled, Model2
// (BER-polynomial) curve -- wlan.c's wlan_model1_fer/wlan_model2_fer.
func fer1(ap AdapterParams, rateIdx int, snr float64) float64 {
	var f float64
	if ap.UseModel2 && rateIdx < len(ap.Model2A) {
		f = ap.Model2A[rateIdx] * gomath.Exp(ap.Model2B[rateIdx]*snr)
	} else {
		thresh := ap.PrThresholds[rateIdx]
		f = ap.PrThresholdFER * gomath.Exp(ap.Model1Alpha*(thresh-snr))
	}
	if f < 0 {
		f = 0
	}
	if f > phy.MaxFER {
		f = phy.MaxFER
	}
	return f
}

// sizeAdapt renormalizes a PSDU-reference FER to the connection's actual
// packet size (wlan.c's size-adaptation: 1-(1-fer1)^(bits/PSDU)).
func sizeAdapt(f1 float64, packetSize int, psduBytes float64) float64 {
	bits := float64(packetSize)*8 + MACHeaderBits
	exp := bits / (psduBytes * 8)
	f := 1 - gomath.Pow(1-f1, exp)
	if f < 0 {
		f = 0
	}
	if f > phy.MaxFER {
		f = phy.MaxFER
	}
	return f
}

func snrFor(c *phy.Ctx) float64 {
	seg := c.Env.Segments[len(c.Env.Segments)-1]
	noise := propagation.AddPowers(seg.NoisePower, c.Conn.InterferenceNoiseDBm, phy.MinNoiseDBm)
	if noise <= phy.MinNoiseDBm {
		noise = StandardNoiseDBm
	} else {
		noise = propagation.AddPowers(noise, StandardNoiseDBm, phy.MinNoiseDBm)
	}
	snr := c.Conn.PrDBm - noise

	standard := c.Conn.Standard
	rateIdx := c.Conn.OperatingRate
	if standard == scenario.Standard80211a || (standard == scenario.Standard80211g && !IsDSSSRate(standard, rateIdx)) {
		loss := propagation.DopplerLoss(propagation.DopplerLossParams{
			CarrierHz:       carrierHzFor(standard),
			SubcarrierHz:    312500,
			RelativeVelMps:  c.RelativeVelocityMps,
			PreDopplerSNRdB: snr,
		})
		snr -= loss
	}
	c.Conn.SNRdB = snr
	return snr
}

func carrierHzFor(standard scenario.StandardKind) float64 {
	if standard == scenario.Standard80211a {
		return 5e9
	}
	return 2.4e9
}

func psduFor(standard scenario.StandardKind, rateIdx int) float64 {
	if IsDSSSRate(standard, rateIdx) {
		return PSDUDSSS
	}
	return PSDUOFDM
}

// FER returns the size-adapted frame error rate at the connection's
// current operating rate.
func (m *Model) FER(c *phy.Ctx) (float64, error) {
	conn := c.Conn
	ap := AdapterFor(c.TxIface.Adapter, conn.Standard)
	snr := snrFor(c)
	f1 := fer1(ap, conn.OperatingRate, snr)
	f := sizeAdapt(f1, conn.PacketSize, psduFor(conn.Standard, conn.OperatingRate))
	conn.FER = f
	return f, nil
}

// maxTransmissionsFor returns the retransmission budget, RTS/CTS-threshold
// dependent: MaxTransmissionsRTSCTS when the packet exceeds the threshold,
// otherwise MaxTransmissions.
func maxTransmissionsFor(conn *scenario.Connection) int {
	if conn.RTSCTSThresholdBytes > 0 && conn.PacketSize > conn.RTSCTSThresholdBytes {
		return MaxTransmissionsRTSCTS
	}
	return MaxTransmissions
}

// LossRate returns FER^maxTransmissions.
func (m *Model) LossRate(c *phy.Ctx) (float64, error) {
	f, err := m.FER(c)
	if err != nil {
		return 0, err
	}
	r := maxTransmissionsFor(c.Conn)
	return gomath.Pow(f, float64(r)), nil
}

// Retransmissions computes the expected number of transmission attempts
// for the current FER as a weighted mean over the retransmission budget
// r (wlan.c's wlan_retransmissions): sum_{i=1}^{r-1} i*FER^i, weighted by
// (1-FER), plus r*FER^r for the give-up case. Called unconditionally by
// the deltaQ loop for WLAN connections -- unlike LossRate/FER it is never
// gated behind a fixed-deltaQ override, mirroring connection_do_compute's
// WLAN branch exactly. There is no equivalent call for any other
// standard: zigbee.c defines an analogous zigbee_retransmissions but
// connection_do_compute never calls it, so ZigBee connections'
// NumRetransmissions stays at its zero value -- reproduced here as an
// asymmetry, not "fixed".
func Retransmissions(c *phy.Ctx) float64 {
	conn := c.Conn
	fer := conn.FER
	r := maxTransmissionsFor(conn)

	sum := 0.0
	for i := 1; i <= r-1; i++ {
		sum += float64(i) * gomath.Pow(fer, float64(i))
	}
	n := (1-fer)*sum + float64(r)*gomath.Pow(fer, float64(r))
	conn.NumRetransmissions = n
	return n
}

// OperatingRate runs ARF (wlan.c's wlan_operating_rate): step down while
// FER^2 exceeds the down threshold, else step up when sustained low FER is
// observed and the next-higher rate probes acceptably.
func (m *Model) OperatingRate(c *phy.Ctx) error {
	conn := c.Conn
	if !conn.AdaptiveRate {
		conn.NewOperatingRate = conn.OperatingRate
		return nil
	}
	rates := ratesFor(conn.Standard)
	ap := AdapterFor(c.TxIface.Adapter, conn.Standard)
	snr := snrFor(c)

	rate := conn.OperatingRate
	for rate > 0 {
		f := fer1(ap, rate, snr)
		if f*f <= ARFFERDownThreshold {
			break
		}
		rate--
	}

	if rate == conn.OperatingRate && rate < len(rates)-1 {
		fCur := fer1(ap, rate, snr)
		if gomath.Pow(1-fCur, 10) > ARFFERUpThreshold {
			fNext := fer1(ap, rate+1, snr)
			if fNext < ARFFERKeepThreshold {
				rate++
			}
		}
	}

	conn.NewOperatingRate = rate
	conn.OperatingRate = rate
	return nil
}

// DelayJitter implements wlan.c's wlan_do_compute_delay_jitter (CW-table
// backoff recurrence, FER-weighted mean delay/jitter with the J[0] slot
// correction) plus wlan_delay_jitter's interference multiplier and the
// two endpoints' internal delays.
func (m *Model) DelayJitter(c *phy.Ctx) (float64, float64, error) {
	conn := c.Conn
	f, err := m.FER(c)
	if err != nil {
		return 0, 0, err
	}

	sifs, slot, preamble := SIFS11b, DIFSSlot11b, PreambleLong11b
	cw := cwB
	if conn.Standard == scenario.Standard80211a || (conn.Standard == scenario.Standard80211g && !conn.CompatibilityMode) {
		sifs, slot, preamble = SIFS11a, DIFSSlot11a, PreambleOFDM
		cw = cwAG
	}

	rateIdx := conn.OperatingRate
	rates := ratesFor(conn.Standard)
	rateBps := rates[rateIdx]

	payloadBits := float64(conn.PacketSize)*8 + MACHeaderBits
	txTime := preamble + payloadBits*1e6/rateBps // microseconds
	ackTime := preamble + ACKBits*1e6/rateBps
	constantTime := preamble + sifs + ackTime + txTime

	basicRate := BasicRateBGBps
	if conn.Standard == scenario.Standard80211a || (conn.Standard == scenario.Standard80211g && !conn.CompatibilityMode) {
		basicRate = BasicRateABps
	}
	if conn.RTSCTSThresholdBytes > 0 && conn.PacketSize > conn.RTSCTSThresholdBytes {
		// wlan.c's wlan_ppdu_duration: RTS, CTS and 2 SIFS on top of the
		// data/ACK exchange once RTS/CTS kicks in.
		constantTime += (RTSBits+preamble)*1e6/basicRate + (CTSBits+preamble)*1e6/basicRate + 2*sifs
	}
	if conn.Standard == scenario.Standard80211g && conn.CompatibilityMode {
		// 802.11g compatibility mode additionally sends CTS-to-self
		// (CTS + SIFS) to protect the transmission from 802.11b stations.
		constantTime += (CTSToSelfBits+preamble)*1e6/basicRate + sifs
	}

	r := maxTransmissionsFor(conn)
	if r > len(cw) {
		r = len(cw)
	}

	util := 0.0
	if conn.ConsiderInterference {
		util = conn.InterferenceFER
	}
	denom := 1 - util
	if denom <= 0 {
		denom = 1e-6
	}

	d := make([]float64, r)
	d[0] = (constantTime + cw[0]*slot/2.0) / denom
	for i := 1; i < r; i++ {
		d[i] = d[i-1] + (constantTime+cw[i]*slot/2.0)/denom
	}

	fPow := make([]float64, r)
	fPow[0] = 1
	for i := 1; i < r; i++ {
		fPow[i] = fPow[i-1] * f
	}
	denomWeight := 1 - gomath.Pow(f, float64(r))
	if denomWeight <= 0 {
		denomWeight = 1e-9
	}
	weight := (1 - f) / denomWeight

	dAvg := 0.0
	for i := 0; i < r; i++ {
		dAvg += d[i] * fPow[i]
	}
	dAvg *= weight

	j := make([]float64, r)
	for i := 0; i < r; i++ {
		j[i] = gomath.Abs(d[i] - dAvg)
	}
	j[0] += slot * (cw[0] + 1) / 4.0

	jAvg := 0.0
	for i := 0; i < r; i++ {
		jAvg += j[i] * fPow[i]
	}
	jAvg *= weight

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

// Bandwidth derives achievable throughput from packet size and the
// variable (computed) delay, wlan.c's wlan_do_compute_bandwidth.
func (m *Model) Bandwidth(c *phy.Ctx) (float64, error) {
	conn := c.Conn
	if conn.Dynamic.DelayMs <= 0 {
		return 0, nil
	}
	bps := float64(conn.PacketSize) * 8 * 1e3 / conn.Dynamic.DelayMs
	conn.Dynamic.BandwidthBps = bps
	return bps, nil
}
