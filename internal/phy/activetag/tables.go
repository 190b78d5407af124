// Package activetag implements phy.Model for active RFID tags (the
// S-NODE AYID32305), grounded on deltaQ/active_tag.c: a fixed operating
// rate, a LOS-gated power-2 distance/FER polynomial in place of a
// threshold-SNR curve, and no retransmission (loss rate is FER combined
// additively with interference).
package activetag

// FrequencyHz is the S-NODE's operating frequency [AYID32305
// specifications, page 6] -- active_tag.c's active_tag_frequencies[0].
const FrequencyHz = 303.2e6

// Params is one tag model's distance/FER curve plus its fixed data rate.
// DistanceScaling and the polynomial coefficients are kept parameterizable
// (active_tag.c hardcodes them as #define/local-var constants) rather
// than compiled in, since the original's own comments record several
// considered alternatives (0.15 through 1.0 scaling, power-3/power-4
// polynomials) without settling the question for every deployment.
type Params struct {
	Name string

	// OperatingRateBps is the tag's single fixed data rate --
	// active_tag.c's s_node.operating_rates[0] = 2.4e3.
	OperatingRateBps float64

	// DistanceScaling compresses (>1) or expands (<1) the effective FER
	// curve's range; active_tag.c's DISTANCE_SCALING, last set to 0.15.
	// With the coefficients below that gives FER~0.5 at 20m.
	DistanceScaling float64

	// A2, A1, A0 are the power-2 FER(distance) polynomial coefficients
	// active_tag.c fits to measured data (the power-3/power-4 variants
	// in the original's comments are not implemented -- see DESIGN.md).
	A2, A1, A0 float64

	// InterferenceFraction is the per-interferer FER contribution
	// active_tag_compute_interference adds: 1/(9*9) in the original,
	// kept as a field rather than a hardcoded literal so a different
	// fleet density can be modeled without touching the formula.
	InterferenceFraction float64
}

// SNode is the sole adapter active_tag.c ships (parameters_active_tag
// s_node).
var SNode = Params{
	Name:                 "S-NODE AYID32305",
	OperatingRateBps:     2.4e3,
	DistanceScaling:      0.15,
	A2:                   0.1096,
	A1:                   -0.1758,
	A0:                   0.0371,
	InterferenceFraction: 1.0 / 81.0,
}

// refPacketBytes / refHeaderBytes are the FER curve's reference frame
// size: active_tag_fer is fit against 4-byte payloads with a 6-byte
// header, and every other packet size must be size-adapted against it.
const (
	refPacketBytes = 4.0
	refHeaderBytes = 6.0
)
