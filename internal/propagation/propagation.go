// Package propagation implements received-power computation
// (single and multi-segment), Pr0, power addition in linear space, and
// thermal noise / Doppler degradation.
package propagation

import gomath "math"

// SpeedOfLightMps is c, used by Pr0.
const SpeedOfLightMps = 299792458.0

// Pr0 is the received power at 1 m reference distance for a transmit
// power Pt (dBm) and carrier frequency freqHz, with antenna gain gainDBi
// folded in: Pt - 20*log10(4*pi*f/c) + gain.
func Pr0(ptDBm, freqHz, gainDBi float64) float64 {
	return ptDBm - 20*gomath.Log10(4*gomath.Pi*freqHz/SpeedOfLightMps) + gainDBi
}

// AddPowers sums two dBm values by converting to linear milliwatts,
// summing, and converting back. Any argument at or below floor is
// ignored (no additive effect) -- this also gives the idempotence
// property add_powers(x, floor, floor) == x.
func AddPowers(p1, p2, floorDBm float64) float64 {
	var mw float64
	if p1 > floorDBm {
		mw += dBmToMw(p1)
	}
	if p2 > floorDBm {
		mw += dBmToMw(p2)
	}
	if mw <= 0 {
		return floorDBm
	}
	return mwToDBm(mw)
}

func dBmToMw(dbm float64) float64 { return gomath.Pow(10, dbm/10) }
func mwToDBm(mw float64) float64 {
	if mw <= 0 {
		return gomath.Inf(-1)
	}
	return 10 * gomath.Log10(mw)
}

// ThermalNoise returns the thermal noise floor (dBm) for a channel of the
// given bandwidth in Hz: -174 + 10*log10(bw_Hz).
func ThermalNoise(bwHz float64) float64 {
	return -174 + 10*gomath.Log10(bwHz)
}

// SingleSegmentParams bundles the inputs to the single-segment Pr formula.
type SingleSegmentParams struct {
	TxPr0DBm       float64
	TxGainDBi      float64
	TxDirAttenDB   float64
	RxGainDBi      float64
	RxDirAttenDB   float64
	Alpha          float64
	WallDB         float64
	SigmaDB        float64
	SegmentLengthM float64 // -1 means "use runtime distance"
	RuntimeDistM   float64
	ShadowSample   float64 // N(0,1) draw; caller multiplies by sigma
}

// ReceivedPowerSingleSegment implements the non-dynamic, single-segment
// received-power branch:
//
//	Pr = Pt_Pr0 + (gain_tx - dir_atten_tx) - 10*alpha*log10(d) - W
//	     + N(0,sigma) + (gain_rx - dir_atten_rx)
func ReceivedPowerSingleSegment(p SingleSegmentParams) float64 {
	d := p.SegmentLengthM
	if d < 0 {
		d = p.RuntimeDistM
	}
	if d <= 0 {
		d = 1e-6
	}
	shadow := p.SigmaDB * p.ShadowSample
	return p.TxPr0DBm + (p.TxGainDBi - p.TxDirAttenDB) -
		10*p.Alpha*gomath.Log10(d) - p.WallDB + shadow +
		(p.RxGainDBi - p.RxDirAttenDB)
}

// SegmentSpec is one leg of a multi-segment dynamic environment.
type SegmentSpec struct {
	Alpha   float64
	WallDB  float64
	SigmaDB float64
	LengthM float64 // length of this leg (>0)
}

// MultiSegmentParams bundles the inputs to the multi-segment Pr formula.
type MultiSegmentParams struct {
	TxPr0DBm     float64
	TxGainDBi    float64
	TxDirAttenDB float64
	RxGainDBi    float64
	RxDirAttenDB float64
	Segments     []SegmentSpec
	ShadowSample float64 // single N(0,1) draw scaled by the combined sigma
}

// ReceivedPowerMultiSegment implements the dynamic multi-segment branch of
// segment 0 contributes its own log term over its own length;
// each subsequent segment i>=1 contributes
// 10*alpha_i*(log10(sum_{j<=i} L_j) - log10(sum_{j<i} L_j)); wall
// attenuations subtract linearly; sigmas combine as sqrt(sum sigma_i^2)
// (normal-sum variance), and the single shadow draw is scaled by that
// combined sigma.
func ReceivedPowerMultiSegment(p MultiSegmentParams) float64 {
	if len(p.Segments) == 0 {
		return gomath.Inf(-1)
	}

	cum := 0.0
	logTerm := 0.0
	wallTotal := 0.0
	sigmaSqSum := 0.0

	for i, seg := range p.Segments {
		prevCum := cum
		cum += seg.LengthM
		if i == 0 {
			logTerm += seg.Alpha * 10 * gomath.Log10(cum)
		} else {
			logTerm += 10 * seg.Alpha * (gomath.Log10(cum) - gomath.Log10(prevCum))
		}
		wallTotal += seg.WallDB
		sigmaSqSum += seg.SigmaDB * seg.SigmaDB
	}

	combinedSigma := gomath.Sqrt(sigmaSqSum)
	shadow := combinedSigma * p.ShadowSample

	return p.TxPr0DBm + (p.TxGainDBi - p.TxDirAttenDB) - logTerm - wallTotal +
		shadow + (p.RxGainDBi - p.RxDirAttenDB)
}

// DopplerLossParams bundles the inputs to the OFDM Doppler-degradation
// model: applied to WiMAX and to the OFDM rates of 802.11a/g,
// never to DSSS rates or Ethernet.
type DopplerLossParams struct {
	CarrierHz       float64
	SubcarrierHz    float64
	RelativeVelMps  float64
	PreDopplerSNRdB float64
}

// DopplerLoss returns the SNR degradation (dB, >=0) to subtract from the
// SNR budget before FER mapping. doppler_snr() is only called, never
// defined, in the retrieved wlan.c/wimax.c, so its exact curve can't be
// recovered; in its place this models inter-carrier interference as a
// smooth, saturating function of the normalized Doppler shift (Doppler
// spread over subcarrier spacing), so a stationary node sees zero loss
// and high-speed OFDM sees a bounded worst-case ceiling. PreDopplerSNRdB
// bounds that ceiling: Doppler-induced ICI cannot remove more SNR than
// the link has before the term is applied, so a link already near the
// noise floor isn't driven further negative by this term alone.
func DopplerLoss(p DopplerLossParams) float64 {
	if p.SubcarrierHz <= 0 {
		return 0
	}
	fd := p.CarrierHz * p.RelativeVelMps / SpeedOfLightMps // Doppler shift, Hz
	normalized := gomath.Abs(fd) / p.SubcarrierHz
	const maxLossDB = 10.0
	loss := maxLossDB * (1 - gomath.Exp(-5*normalized))
	if loss < 0 {
		loss = 0
	}
	if loss > maxLossDB {
		loss = maxLossDB
	}
	if p.PreDopplerSNRdB > 0 && loss > p.PreDopplerSNRdB {
		loss = p.PreDopplerSNRdB
	}
	return loss
}
