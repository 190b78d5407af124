// Package wlan implements the 802.11b/g/a PHY/MAC model.
package wlan

import "github.com/qomet-project/qomet/internal/scenario"

// Rate tables (bits/sec), reproduced from the original adapter-rate
// arrays in deltaQ/wlan.c (b_operating_rates, g_operating_rates,
// a_operating_rates).
var (
	BRates = []float64{1e6, 2e6, 5.5e6, 11e6}
	GRates = []float64{1e6, 2e6, 5.5e6, 6e6, 9e6, 11e6, 12e6, 18e6, 24e6, 36e6, 48e6, 54e6}
	ARates = []float64{6e6, 9e6, 12e6, 18e6, 24e6, 36e6, 48e6, 54e6}
)

// gDSSSRateIndices are the G-rate table indices that use DSSS/CCK framing
// (and are therefore exempt from Doppler degradation and use PSDUDSSS);
// the rest are OFDM/ERP-OFDM. Mirrors wlan.c's repeated
// "operating_rate == 0 || 1 || 2 || 5" DSSS-rate checks for 802.11g
// (indices into g_operating_rates = {1,2,5.5,6,9,11,12,18,24,36,48,54}).
// The set is non-contiguous: indices 3 and 4 (6, 9 Mbps) are ERP-OFDM,
// not DSSS, even though they fall below index 5.
var gDSSSRateIndices = map[int]bool{0: true, 1: true, 2: true, 5: true}

// PSDU reference sizes (bytes) used to renormalize FER to actual packet
// size.
const (
	PSDUDSSS = 1500.0
	PSDUOFDM = 1000.0
)

// PHY timing constants (microseconds unless noted), standard 802.11
// parameters; wlan.h (which would hold the original #defines) was not
// present in the retrieved original_source, so these use the well-known
// published PHY values for each variant rather than reconstructed guesses.
const (
	SIFS11b = 10.0
	DIFSSlot11b = 20.0
	PreambleLong11b = 192.0 // long PLCP preamble+header, microseconds

	SIFS11a = 16.0
	DIFSSlot11a = 9.0
	PreambleOFDM = 16.0 // microseconds, short training+signal symbols folded in

	RTSBits = 160.0
	CTSBits = 112.0
	ACKBits = 112.0
	MACHeaderBits = 224.0

	CTSToSelfBits = 112.0 // 802.11g protection in compatibility mode

	// BasicRateABps / BasicRateBGBps are the mandatory ("basic") rates
	// RTS/CTS/CTS-to-self frames are sent at -- wlan.c's basic_rate_a /
	// basic_rate_bg.
	BasicRateABps  = 6e6
	BasicRateBGBps = 1e6
)

// AdapterParams is one manufacturer's 802.11b/g radio parameter set,
// grounded on deltaQ/wlan.c's struct parameters_802_11b/802_11g literals
// (orinoco, dei80211mr, cisco_aironet_340, cisco_aironet_abg_*).
type AdapterParams struct {
	Name            string
	PrThresholds    []float64 // dBm, one per rate index, increasing
	PrThresholdFER  float64
	Model1Alpha     float64
	UseModel2       bool
	Model2A         []float64
	Model2B         []float64
}

var (
	ORiNOCO = AdapterParams{
		Name:           "ORiNOCO 802.11b",
		PrThresholds:   []float64{-94, -91, -87, -82},
		PrThresholdFER: 0.08,
		Model1Alpha:    1.0,
	}
	Dei80211mr = AdapterParams{
		Name:           "NS-2 dei80211mr",
		PrThresholds:   []float64{-98, -95, -91, -88},
		PrThresholdFER: 0.08,
		Model1Alpha:    1.0,
	}
	Cisco340 = AdapterParams{
		Name:           "Cisco Aironet 340 802.11b",
		PrThresholds:   []float64{-90, -88, -87, -83},
		PrThresholdFER: 0.08,
		Model1Alpha:    1.0,
		UseModel2:      true,
		Model2A:        []float64{4255.180, 787.4195, 243.0763, 12.44204},
		Model2B:        []float64{-1.811341, -1.548256, -1.562894, -1.234009},
	}
	CiscoABGb = AdapterParams{
		Name:           "Cisco Aironet 802.11a/b/g -- b mode",
		PrThresholds:   []float64{-94, -93, -92, -90},
		PrThresholdFER: 0.08,
		Model1Alpha:    1.0,
	}
	// CiscoABGg is the 12-rate 802.11g table (entries at gDSSSRateIndices
	// are the DSSS/CCK rates, the rest OFDM/ERP-OFDM).
	CiscoABGg = AdapterParams{
		Name: "Cisco Aironet 802.11a/b/g -- b/g mode",
		PrThresholds: []float64{
			-94, -93, -92, -91.33, -90.67, -90,
			-88, -86, -84, -80, -75, -71,
		},
		PrThresholdFER: 0.08,
		Model1Alpha:    1.0,
	}
	CiscoABGa = AdapterParams{
		Name:           "Cisco Aironet 802.11a/b/g -- a mode",
		PrThresholds:   []float64{-87, -86, -84, -80, -77, -73, -69, -68},
		PrThresholdFER: 0.10,
		Model1Alpha:    1.0,
	}
)

// AdapterFor resolves a scenario.AdapterKind + family to the concrete
// parameter table. Exported for internal/interference, which needs the
// lowest-rate Pr threshold to classify an interfering station's power as
// noise vs. a concurrent CSMA/CA station.
func AdapterFor(kind scenario.AdapterKind, standard scenario.StandardKind) AdapterParams {
	switch kind {
	case scenario.AdapterDei80211mr:
		return Dei80211mr
	case scenario.AdapterCisco340:
		return Cisco340
	case scenario.AdapterCiscoABG:
		switch standard {
		case scenario.Standard80211a:
			return CiscoABGa
		case scenario.Standard80211g:
			return CiscoABGg
		default:
			return CiscoABGb
		}
	default:
		return ORiNOCO
	}
}

// LowestRateThresholdDBm returns the Pr sensitivity threshold of the
// lowest operating rate for the given adapter/standard -- the value
// wlan.c's compute_channel_interference compares an interferer's Pr
// against to decide noise-type vs. concurrent-station interference.
func LowestRateThresholdDBm(kind scenario.AdapterKind, standard scenario.StandardKind) float64 {
	return AdapterFor(kind, standard).PrThresholds[0]
}

func ratesFor(standard scenario.StandardKind) []float64 {
	switch standard {
	case scenario.Standard80211a:
		return ARates
	case scenario.Standard80211g:
		return GRates
	default:
		return BRates
	}
}

// IsDSSSRate reports whether rate index i of standard uses DSSS/CCK
// framing (vs. OFDM) -- relevant for PSDU size, Doppler exemption, and
// (internal/interference) which inter-channel attenuation table an
// interfering connection's transmission should be scored against.
func IsDSSSRate(standard scenario.StandardKind, rateIdx int) bool {
	switch standard {
	case scenario.Standard80211b:
		return true
	case scenario.Standard80211a:
		return false
	case scenario.Standard80211g:
		return gDSSSRateIndices[rateIdx]
	default:
		return true
	}
}
