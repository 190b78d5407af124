package wimax

import (
	gomath "math"

	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/propagation"
	"github.com/qomet-project/qomet/internal/scenario"
)

// adapter is the Ns-3 WiMAX parameter set (wimax.c's wimax_init_ns3_adapter):
// a per-MCS receiver sensitivity threshold derived from the 10MHz capacity
// structure, plus the BER-at-threshold figure.
type adapter struct {
	PrThresholds  [RatesNumber]float64
	PrThresholdBER float64
}

func newNs3Adapter() (*adapter, error) {
	cc, err := NewCapacity(SysBW10, QPSK18, MIMOSISO, 1, 1)
	if err != nil {
		return nil, err
	}
	a := &adapter{PrThresholdBER: 1e-6}
	for mcs := QPSK18; mcs <= QAM64_56; mcs++ {
		th, err := MinThreshold(cc)
		if err != nil {
			return nil, err
		}
		a.PrThresholds[mcs] = th
		if mcs < QAM64_56 {
			if err := cc.UpdateMCS(mcs + 1); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// Model implements phy.Model for 802.16e/WiMAX. It caches one Capacity
// structure per interface, since the capacity breakdown only changes when
// the scenario reconfigures system bandwidth/MCS/MIMO, not every tick.
type Model struct {
	adapter    *adapter
	capacities map[scenario.IfaceID]*Capacity
}

// New builds the WiMAX model, initializing the Ns-3 adapter's per-MCS
// threshold table once (wimax_init_ns3_adapter).
func New() (*Model, error) {
	a, err := newNs3Adapter()
	if err != nil {
		return nil, err
	}
	return &Model{adapter: a, capacities: make(map[scenario.IfaceID]*Capacity)}, nil
}

// capacityFor returns (creating or refreshing as needed) the Capacity for
// the transmitting interface's WimaxCapacity configuration.
func (m *Model) capacityFor(iface *scenario.Interface) (*Capacity, error) {
	wc := iface.Wimax
	if wc == nil {
		return nil, nil
	}
	bwMHz := wc.SystemBandwidthHz / 1e6
	mimo := MIMOType(wc.MIMOType)

	c, ok := m.capacities[iface.ID]
	if !ok || c.SystemBandwidthMHz != bwMHz || c.MCS != wc.MCS || c.MIMOType != mimo ||
		c.Nt != iface.Antennas.Nt || c.Nr != iface.Antennas.Nr {
		nc, err := NewCapacity(bwMHz, wc.MCS, mimo, iface.Antennas.Nt, iface.Antennas.Nr)
		if err != nil {
			return nil, err
		}
		m.capacities[iface.ID] = nc
		c = nc
	}

	wc.FFTSize = c.FFTSize
	wc.SamplingFactor = c.SamplingFactor
	wc.SubcarrierHz = c.SubcarrierSpacingKHz * 1e3
	wc.SymbolTimeUs = c.OFDMASymbolTimeUs
	wc.DLSymbols = c.DLSymbols
	wc.ULSymbols = c.ULSymbols
	wc.UsedSubcarr = c.DLUsedSubcarriers
	wc.DataSubcarr = c.DLDataSubcarriers
	wc.SlotsDL = c.DLSlots
	wc.SlotsUL = c.ULSlots
	wc.ThermalNoiseDBm = c.ThermalNoiseDBm
	return c, nil
}

// UpdateConnection recomputes distance and Pr exactly as wimax_connection_update
// does: the same single/multi-segment Pr formula WLAN uses, since the
// original's wimax_connection_update literally duplicates wlan's logic.
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

	pr0 := c.TxIface.Pr0DBm[scenario.Band3_5GHz]
	if pr0 == 0 {
		pr0 = propagation.Pr0(c.TxNode.PtDBm, FrequencyWimaxHz, 0)
	}
	shadow := c.Rand.Gaussian(0, 1)

	seg := c.Env.Segments[0]
	if len(c.Env.Segments) > 1 {
		segs := make([]propagation.SegmentSpec, len(c.Env.Segments))
		for i, s := range c.Env.Segments {
			length := s.LengthM
			if length < 0 {
				length = conn.DistanceM
			}
			segs[i] = propagation.SegmentSpec{Alpha: s.Alpha, WallDB: s.WallDB, SigmaDB: s.SigmaDB, LengthM: length}
		}
		conn.PrDBm = propagation.ReceivedPowerMultiSegment(propagation.MultiSegmentParams{
			TxPr0DBm: pr0, TxGainDBi: c.TxIface.AntennaGainDBi, TxDirAttenDB: txDir,
			RxGainDBi: c.RxIface.AntennaGainDBi, RxDirAttenDB: rxDir,
			Segments: segs, ShadowSample: shadow,
		})
		return nil
	}
	conn.PrDBm = propagation.ReceivedPowerSingleSegment(propagation.SingleSegmentParams{
		TxPr0DBm: pr0, TxGainDBi: c.TxIface.AntennaGainDBi, TxDirAttenDB: txDir,
		RxGainDBi: c.RxIface.AntennaGainDBi, RxDirAttenDB: rxDir,
		Alpha: seg.Alpha, WallDB: seg.WallDB, SigmaDB: seg.SigmaDB,
		SegmentLengthM: seg.LengthM, RuntimeDistM: conn.DistanceM, ShadowSample: shadow,
	})
	return nil
}

func toArr(c scenario.Coordinate) [3]float64 { return [3]float64(c) }

// environmentFading reconstructs wimax_fer's size-adapted FER computation.
// The original delegates to an `environment_fading` helper whose definition
// was not present in the retrieved original_source (only its call site in
// wimax.c survived); this follows the commented-out Model1 formula left in
// wimax_fer itself as the documented fallback behavior, plus the
// size-adaptation wlan.c applies elsewhere in the same codebase.
func environmentFading(berThreshold float64, packetSizeBytes int, prThreshold, snr float64) float64 {
	const modelAlpha = 1.0
	f1 := berThreshold * gomath.Exp(modelAlpha*(prThreshold-snr))
	if f1 < 0 {
		f1 = 0
	}
	if f1 > MaximumErrorRate {
		f1 = MaximumErrorRate
	}
	bits := float64(packetSizeBytes) * 8
	f := 1 - gomath.Pow(1-f1, bits/(PSDUOFDMA*8))
	if f < 0 {
		f = 0
	}
	if f > MaximumErrorRate {
		f = MaximumErrorRate
	}
	return f
}

// FER implements wimax_fer: SNR from combined noise, Doppler degradation,
// optional Matrix-A gain, then the fading-function FER lookup.
func (m *Model) FER(c *phy.Ctx) (float64, error) {
	conn := c.Conn
	cc, err := m.capacityFor(c.TxIface)
	if err != nil {
		return 0, err
	}
	if cc == nil {
		cc, err = NewCapacity(SysBW10, QPSK12, MIMOSISO, 1, 1)
		if err != nil {
			return 0, err
		}
	}

	seg := c.Env.Segments[len(c.Env.Segments)-1]
	combinedNoise := propagation.AddPowers(seg.NoisePower, conn.InterferenceNoiseDBm, WimaxMinimumNoisePowerDBm)
	if combinedNoise < WimaxStandardNoiseDBm {
		combinedNoise = WimaxStandardNoiseDBm
	}
	baseSNR := conn.PrDBm - combinedNoise

	dopplerLoss := propagation.DopplerLoss(propagation.DopplerLossParams{
		CarrierHz: FrequencyWimaxHz, SubcarrierHz: cc.SubcarrierSpacingKHz * 1e3,
		RelativeVelMps:  c.RelativeVelocityMps,
		PreDopplerSNRdB: baseSNR,
	})
	snr := snrWithDopplerAndMIMO(baseSNR, dopplerLoss, cc)
	conn.SNRdB = snr

	f := environmentFading(m.adapter.PrThresholdBER, conn.PacketSize, m.adapter.PrThresholds[cc.MCS], snr+WimaxStandardNoiseDBm)
	conn.FER = f
	return f, nil
}

// LossRate equals FER: the WiMAX model emulates only the PHY layer, no
// MAC-level retransmission.
func (m *Model) LossRate(c *phy.Ctx) (float64, error) {
	f, err := m.FER(c)
	if err != nil {
		return 0, err
	}
	return f, nil
}

// OperatingRate mirrors wimax_operating_rate: the operating rate simply
// tracks the configured MCS, there is no ARF-style search for WiMAX.
func (m *Model) OperatingRate(c *phy.Ctx) error {
	if c.TxIface.Wimax == nil {
		return nil
	}
	c.Conn.OperatingRate = c.TxIface.Wimax.MCS
	c.Conn.NewOperatingRate = c.Conn.OperatingRate
	return nil
}

// DelayJitter implements wimax_delay_jitter: the variable (RF) component
// is zero since Ns-3 owns WiMAX scheduling, so delay reduces to the sum of
// the two endpoints' internal (fixed) delays.
func (m *Model) DelayJitter(c *phy.Ctx) (float64, float64, error) {
	delayMs := float64(c.TxNode.InternalDelay.Microseconds())/1000.0 + float64(c.RxNode.InternalDelay.Microseconds())/1000.0
	c.Conn.Dynamic.DelayMs = delayMs
	c.Conn.Dynamic.JitterMs = 0
	return delayMs, 0, nil
}

// Bandwidth implements wimax_bandwidth: low-to-high node index is treated
// as uplink, high-to-low as downlink (the original's documented
// convention for inferring direction without explicit BS/SS roles).
func (m *Model) Bandwidth(c *phy.Ctx) (float64, error) {
	cc, err := m.capacityFor(c.TxIface)
	if err != nil {
		return 0, err
	}
	if cc == nil {
		return 0, nil
	}
	if err := cc.UpdateMIMO(cc.MIMOType); err != nil {
		return 0, err
	}

	var bps float64
	if c.Conn.FromNode < c.Conn.ToNode {
		bps = cc.ULDataRateBps
	} else {
		bps = cc.DLDataRateBps
	}
	c.Conn.Dynamic.BandwidthBps = bps
	return bps, nil
}
