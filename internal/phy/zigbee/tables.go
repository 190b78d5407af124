// Package zigbee implements phy.Model for 802.15.4/ZigBee, grounded on
// zigbee.c's JENNIC adapter: a single fixed operating rate, Model1
// (Pr-threshold exponential) FER with size adaptation, and a loss-rate
// model that by default treats FER and interference additively rather
// than through MAC-level retransmission.
package zigbee

import gomath "math"

// Constants reconstructed because zigbee.h (the original #defines) was
// not present in the retrieved original_source -- only zigbee.c survived
// retrieval. ZigBeeMaxTransmissions is the one exception: it is grounded
// directly on zigbee.c's `int CW[ZIGBEE_MAX_TRANSMISSIONS] = {3,3,3,3}`
// array literal, which fixes the constant at 4 regardless of the header's
// wording. The others follow the values documented in 802.15.4 and in
// QOMET's companion WiMAX/WLAN models for the same quantities.
const (
	ZigBeeMaxTransmissions = 4

	// PSDU is the reference payload size (bytes) the adapter's FER
	// threshold was characterized against; zigbee.c's in-line comment
	// ("this FER corresponds to the standard value ZIGBEE_PSDU") without
	// giving the figure -- 802.15.4's aMaxPHYPacketSize (127 bytes) is
	// the standard's own reference frame size, used here.
	PSDU = 127.0

	// MinimumNoisePowerDBm / StandardNoiseDBm mirror the pattern of
	// WLAN's STANDARD_NOISE and WiMAX's WIMAX_STANDARD_NOISE: a thermal
	// noise floor for power summation, and a standard (optimum-case)
	// noise figure the model never lets combined noise exceed.
	MinimumNoisePowerDBm = -104.0
	StandardNoiseDBm     = -104.0

	// FrequencyHz is the center frequency of the 2.4 GHz O-QPSK PHY,
	// the variant zigbee.c's Pr0 computation assumes.
	FrequencyHz = 2.4e9
)

// OperatingRates mirrors zigbee.c's zigbee_operating_rates[]: ZigBee has
// exactly one rate, 250 kbps (the 2.4 GHz O-QPSK PHY's raw chip rate
// translates to this single data rate -- no rate adaptation).
var OperatingRates = []float64{250e3}

// AdapterParams is a manufacturer's ZigBee radio parameter set --
// zigbee.c's struct parameters_zigbee.
type AdapterParams struct {
	Name           string
	PrThresholds   [1]float64
	PrThresholdFER float64
	Model1Alpha    float64
}

// Jennic is the sole adapter zigbee.c ships (struct parameters_zigbee
// jennic), used as the default (and only) AdapterJennic parameter set.
var Jennic = AdapterParams{
	Name:           "JENNIC",
	PrThresholds:   [1]float64{-96},
	PrThresholdFER: 0.01,
	Model1Alpha:    1.0,
}

// ChannelAttenuationDB implements zigbee_compute_channel_interference's
// DSSS/CCK inter-channel attenuation table: identical in shape to WLAN's
// but ZigBee-specific numerically (22/44 normalization constants vs
// WLAN's own table). Exported for internal/interference's per-standard
// attenuation lookup during the per-tick sweep.
func ChannelAttenuationDB(channelDistance int) float64 {
	switch {
	case channelDistance == 0:
		return 0
	case channelDistance <= 4:
		return 10 * gomath.Log10((22.0-float64(channelDistance)*5)/22.0)
	case channelDistance <= 8:
		return 10*gomath.Log10((44.0-float64(channelDistance)*5)/44.0) - 30
	default:
		return -50.0
	}
}
