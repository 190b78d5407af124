// Package wimax implements the 802.16e/WiMAX OFDMA capacity model and PHY
// of, grounded on deltaQ/wimax.c's capacity_* functions and the
// "capacity paper" ([1] in the original comments) it implements.
package wimax

// MCS indices, in the order the original parameters_802_16 tables and
// SNR_Rx/data-bits switches expect (deltaQ/wimax.h).
const (
	QPSK18 = iota
	QPSK14
	QPSK12
	QPSK34
	QAM16_12
	QAM16_23
	QAM16_34
	QAM64_12
	QAM64_23
	QAM64_34
	QAM64_56

	RatesNumber = 11
)

// MIMOType mirrors wimax.h's MIMO_TYPE_* constants.
type MIMOType int

const (
	MIMOSISO MIMOType = iota
	MIMOMatrixA
	MIMOMatrixB
)

// System bandwidth values (MHz) the capacity model supports, from
// wimax.h's SYS_BW_* defines.
const (
	SysBW1  = 1.25
	SysBW3  = 3.5
	SysBW5  = 5.0
	SysBW7  = 7.0
	SysBW8  = 8.75
	SysBW10 = 10.0
	SysBW20 = 20.0
)

// FrameDurationUs is the recommended WiMAX frame duration (wimax.h's
// FRAME_DURATION, expressed in microseconds there as 5000).
const FrameDurationUs = 5000.0

// FrequencyWimaxHz is the nominal WiMAX carrier used for Pr0/Doppler.
const FrequencyWimaxHz = 2.35e9

// WimaxMinimumNoisePowerDBm / WimaxStandardNoiseDBm mirror wimax.h.
const (
	WimaxMinimumNoisePowerDBm = -104.0
	WimaxStandardNoiseDBm     = -104.0
)

// PSDUOFDMA is the reference frame size wimax.h assigns the same value as
// Wi-Fi's PSDU_OFDM.
const PSDUOFDMA = 1000.0

// MaximumErrorRate is wimax.h's MAXIMUM_ERROR_RATE.
const MaximumErrorRate = 0.999999999

// samplingFactor28_25 / samplingFactor8_7 are wimax.h's two supported
// oversampling ratios.
const (
	samplingFactor28_25 = 28.0 / 25.0
	samplingFactor8_7   = 8.0 / 7.0
)

// cyclicPrefixRatio is wimax.h's CYCLIC_PREFIX_RATIO_G.
const cyclicPrefixRatio = 1.0 / 8.0

const (
	dlPreambleOverhead      = 1
	dlAdditionalOverhead12  = 12
	dlAdditionalOverhead16  = 16
	ulControlSymbols        = 3
	dcSubcarrier            = 1
	dlSubcarriersPerSlot    = 28
	ulSubcarriersPerSlot    = 24
	dlSymbolsPerSlot        = 2
	ulSymbolsPerSlot        = 3
	dlPilotsPerSlot         = 8
	ulPilotsPerSlot         = 24
	repetitionFactor        = 1
)

// bandwidthProfile is the per-system-bandwidth static table from
// capacity_update_all's if/else chain (non-USE_PAPER_VALUES branch).
type bandwidthProfile struct {
	samplingFactor   float64
	fftSize          int
	dlOverhead       int
	ttgRtgDuration   float64
	dlSymbols        int
	ulSymbols        int
	dlGuardSubcarr   int
	ulGuardSubcarr   int
}

var bandwidthProfiles = map[float64]bandwidthProfile{
	SysBW1: {
		samplingFactor: samplingFactor28_25, fftSize: 128,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead16, ttgRtgDuration: 1.61,
		dlSymbols: 35, ulSymbols: 21,
		dlGuardSubcarr: 43, ulGuardSubcarr: 31,
	},
	SysBW5: {
		samplingFactor: samplingFactor28_25, fftSize: 512,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead16, ttgRtgDuration: 1.61,
		dlSymbols: 35, ulSymbols: 21,
		dlGuardSubcarr: 91, ulGuardSubcarr: 103,
	},
	SysBW10: {
		samplingFactor: samplingFactor28_25, fftSize: 1024,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead12, ttgRtgDuration: 1.61,
		dlSymbols: 35, ulSymbols: 21,
		dlGuardSubcarr: 183, ulGuardSubcarr: 183,
	},
	SysBW20: {
		samplingFactor: samplingFactor28_25, fftSize: 2048,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead12, ttgRtgDuration: 1.61,
		dlSymbols: 35, ulSymbols: 21,
		dlGuardSubcarr: 367, ulGuardSubcarr: 367,
	},
	SysBW3: {
		samplingFactor: samplingFactor8_7, fftSize: 512,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead16, ttgRtgDuration: 1.72,
		dlSymbols: 24, ulSymbols: 15,
		dlGuardSubcarr: 150, ulGuardSubcarr: 103,
	},
	SysBW7: {
		samplingFactor: samplingFactor8_7, fftSize: 1024,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead12, ttgRtgDuration: 1.72,
		dlSymbols: 24, ulSymbols: 15,
		dlGuardSubcarr: 255, ulGuardSubcarr: 183,
	},
	SysBW8: {
		samplingFactor: samplingFactor8_7, fftSize: 1024,
		dlOverhead: dlPreambleOverhead + dlAdditionalOverhead12, ttgRtgDuration: 1.40,
		dlSymbols: 30, ulSymbols: 18,
		dlGuardSubcarr: 230, ulGuardSubcarr: 183,
	},
}

// snrRxTable is wimax_min_threshold's per-MCS SNR_Rx switch (Table 338).
var snrRxTable = map[int]float64{
	QPSK18: 1, QPSK14: 2, QPSK12: 5, QPSK34: 8,
	QAM16_12: 10.5, QAM16_23: 12.84, QAM16_34: 14,
	QAM64_12: 16, QAM64_23: 18, QAM64_34: 20, QAM64_56: 22,
}

// dataBitsPerSymbolTable is capacity_bytes_per_slot's per-MCS
// (bits_per_symbol * coding_rate) table.
var dataBitsPerSymbolTable = map[int]float64{
	QPSK18: 2 * 0.125, QPSK14: 2 * 0.250, QPSK12: 2 * 0.500, QPSK34: 2 * 0.750,
	QAM16_12: 4 * 0.500, QAM16_23: 4 * 0.667, QAM16_34: 4 * 0.750,
	QAM64_12: 6 * 0.500, QAM64_23: 6 * 0.667, QAM64_34: 6 * 0.750, QAM64_56: 6 * 0.833,
}

// operatingRatesHz is wimax.c's wimax_operating_rates table (10MHz
// reference, per-MCS nominal PHY rates).
var operatingRatesHz = []float64{
	1.75e6, 3.5e6, 7e6, 10.5e6,
	14e6, 18.7e6, 21e6,
	21e6, 28e6, 31.5e6, 35e6,
}
