package wimax

import (
	"fmt"
	gomath "math"
)

// Capacity is the OFDMA capacity calculation structure of wimax.h's
// struct capacity_class: FFT size, sampling, symbol timing,
// subcarrier/slot breakdown, and DL/UL data rate.
type Capacity struct {
	SystemBandwidthMHz float64
	SamplingFactor     float64
	SamplingFrequency  float64 // MHz
	SampleTimeNs       float64
	FFTSize            int
	SubcarrierSpacingKHz float64
	DataSymbolTimeUs   float64
	GuardTimeUs        float64
	OFDMASymbolTimeUs  float64

	DLGuardSubcarriers int
	DLUsedSubcarriers  int
	DLPilotSubcarriers int
	DLDataSubcarriers  int
	ULGuardSubcarriers int
	ULUsedSubcarriers  int
	ULPilotSubcarriers int
	ULDataSubcarriers  int

	MCS      int
	MIMOType MIMOType
	Nt, Nr   int

	TotalSymbols int
	TTGRTGDurationSymbols float64
	DLSymbols    int
	ULSymbols    int

	DLSlots       int
	DLBytesPerSlot float64
	DLDataRateBps  float64

	ULSlots       int
	ULBytesPerSlot float64
	ULDataRateBps  float64

	DLSignalingOverhead int
	ULSignalingOverhead int

	ThermalNoiseDBm float64
}

// NewCapacity runs capacity_update_all: sets the bandwidth-dependent
// parameters, basic OFDMA timing (Table 1), subcarrier breakdown
// (Table 2), slot counts (Table 4), thermal noise, and finally the
// MCS-dependent data rates.
func NewCapacity(systemBandwidthMHz float64, mcs int, mimoType MIMOType, nt, nr int) (*Capacity, error) {
	profile, ok := bandwidthProfiles[systemBandwidthMHz]
	if !ok {
		return nil, fmt.Errorf("wimax: unsupported system bandwidth %.2f MHz", systemBandwidthMHz)
	}

	c := &Capacity{
		SystemBandwidthMHz: systemBandwidthMHz,
		Nt:                 nt,
		Nr:                 nr,
		SamplingFactor:     profile.samplingFactor,
		FFTSize:            profile.fftSize,
		DLSignalingOverhead: profile.dlOverhead,
		ULSignalingOverhead: ulControlSymbols,
		TTGRTGDurationSymbols: profile.ttgRtgDuration,
		DLSymbols:          profile.dlSymbols,
		ULSymbols:          profile.ulSymbols,
		DLGuardSubcarriers: profile.dlGuardSubcarr,
		ULGuardSubcarriers: profile.ulGuardSubcarr,
	}

	c.SamplingFrequency = gomath.Floor(c.SamplingFactor*systemBandwidthMHz*1e6/8000) * 8000 / 1e6
	c.SampleTimeNs = 1 / c.SamplingFrequency * 1e3
	c.SubcarrierSpacingKHz = c.SamplingFrequency * 1e3 / float64(c.FFTSize)
	c.DataSymbolTimeUs = 1 / c.SubcarrierSpacingKHz * 1e3
	c.GuardTimeUs = c.DataSymbolTimeUs * cyclicPrefixRatio
	c.OFDMASymbolTimeUs = c.DataSymbolTimeUs + c.GuardTimeUs
	c.TotalSymbols = int(gomath.Floor(FrameDurationUs/c.OFDMASymbolTimeUs - c.TTGRTGDurationSymbols))

	c.DLUsedSubcarriers = c.FFTSize - c.DLGuardSubcarriers
	c.DLPilotSubcarriers = ((c.DLUsedSubcarriers - dcSubcarrier) / dlSubcarriersPerSlot) * (dlPilotsPerSlot / dlSymbolsPerSlot)
	c.DLDataSubcarriers = (c.DLUsedSubcarriers - c.DLPilotSubcarriers) - dcSubcarrier

	c.ULUsedSubcarriers = c.FFTSize - c.ULGuardSubcarriers
	c.ULPilotSubcarriers = ((c.ULUsedSubcarriers - dcSubcarrier) / ulSubcarriersPerSlot) * (ulPilotsPerSlot / ulSymbolsPerSlot)
	c.ULDataSubcarriers = (c.ULUsedSubcarriers - c.ULPilotSubcarriers) - dcSubcarrier

	c.DLSlots = (c.DLDataSubcarriers + c.DLPilotSubcarriers) * (c.DLSymbols - c.DLSignalingOverhead) / (dlSubcarriersPerSlot * dlSymbolsPerSlot)
	c.ULSlots = (c.ULDataSubcarriers + c.ULPilotSubcarriers) * (c.ULSymbols - c.ULSignalingOverhead) / (ulSubcarriersPerSlot * ulSymbolsPerSlot)

	c.MIMOType = mimoType
	c.ThermalNoiseDBm = -174 + 10*gomath.Log10(systemBandwidthMHz*1e6)

	if err := c.UpdateMCS(mcs); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateMIMO re-derives the MIMO-dependent data rates (capacity_update_mimo).
func (c *Capacity) UpdateMIMO(mimoType MIMOType) error {
	c.MIMOType = mimoType
	return c.UpdateMCS(c.MCS)
}

// UpdateMCS recomputes DL/UL bytes-per-slot and data rate for the given
// MCS (capacity_update_mcs): Matrix-B throughput multiplier and the
// QPSK-only repetition-factor divide are applied here.
func (c *Capacity) UpdateMCS(mcs int) error {
	if mcs < QPSK18 || mcs > QAM64_56 {
		return fmt.Errorf("wimax: unsupported MCS %d", mcs)
	}
	c.MCS = mcs

	dlBytes, err := bytesPerSlot(mcs, true)
	if err != nil {
		return err
	}
	c.DLBytesPerSlot = dlBytes
	c.DLDataRateBps = (dlBytes * 8 * float64(c.DLSlots)) * (1e6 / FrameDurationUs)

	ulBytes, err := bytesPerSlot(mcs, false)
	if err != nil {
		return err
	}
	c.ULBytesPerSlot = ulBytes
	c.ULDataRateBps = (ulBytes * 8 * float64(c.ULSlots)) * (1e6 / FrameDurationUs)

	if c.MIMOType == MIMOMatrixB {
		mult := c.Nt
		if c.Nr < mult {
			mult = c.Nr
		}
		if mult > 0 {
			c.DLDataRateBps *= float64(mult)
		}
	}

	if mcs >= QPSK18 && mcs <= QPSK34 && repetitionFactor > 1 {
		c.DLDataRateBps /= repetitionFactor
		c.ULDataRateBps /= repetitionFactor
	}
	return nil
}

// bytesPerSlot implements capacity_bytes_per_slot.
func bytesPerSlot(mcs int, downlink bool) (float64, error) {
	dataBits, ok := dataBitsPerSymbolTable[mcs]
	if !ok {
		return 0, fmt.Errorf("wimax: unsupported MCS %d", mcs)
	}

	var bytesPerSymbol float64
	if downlink {
		bytesPerSymbol = dataBits * float64(dlSubcarriersPerSlot*dlSymbolsPerSlot-dlPilotsPerSlot) / 8
	} else {
		bytesPerSymbol = dataBits * float64(ulSubcarriersPerSlot*ulSymbolsPerSlot-ulPilotsPerSlot) / 8
	}
	if mcs != QPSK18 {
		bytesPerSymbol = gomath.Round(bytesPerSymbol)
	}
	return bytesPerSymbol, nil
}

// MinThreshold computes the minimum receiver sensitivity per Eq. 149b of
// the 802.16e-2005 standard (wimax_min_threshold).
func MinThreshold(c *Capacity) (float64, error) {
	snrRx, ok := snrRxTable[c.MCS]
	if !ok {
		return 0, fmt.Errorf("wimax: unsupported MCS %d", c.MCS)
	}
	const (
		r       = repetitionFactor
		implLoss = 5.0
		noiseFig = 8.0
	)
	nUsed := float64(c.DLUsedSubcarriers)
	nFFT := float64(c.FFTSize)
	return -114 + snrRx - 10*gomath.Log10(r) + 10*gomath.Log10(c.SamplingFrequency*nUsed/nFFT) + implLoss + noiseFig, nil
}
