package wimax

import gomath "math"

// snrWithDopplerAndMIMO applies, in the exact order wimax_fer does, the
// Doppler-induced SNR degradation and then (for Matrix-A only) the
// array+diversity MIMO gain. Preserved verbatim ordering per DESIGN NOTES
// §9: Doppler is subtracted before the MIMO gain is added, even though
// the original author's own comment flags this ordering as unconfirmed.
func snrWithDopplerAndMIMO(baseSNR, dopplerLossDB float64, c *Capacity) float64 {
	snr := baseSNR - dopplerLossDB

	if c.MIMOType == MIMOMatrixA {
		arrayGain := 10 * gomath.Log10(float64(c.Nr))
		diversityGain := 10 * gomath.Log10(float64(c.Nt*c.Nr))
		snr += arrayGain + diversityGain
	}
	return snr
}
