package validation

import "fmt"

// ThresholdBands carries the threshold values that must be mutually consistent.
type ThresholdBands struct {
	SlackPercent            float64
	InefficientPercent      float64
	OverfitRelativeError    float64
	OverlayDampingFloor     float64
	OverlayAmplificationCap float64
}

// ValidateThresholds returns a warning for every band that would make the
// scenario evaluation or overlay degenerate.
func ValidateThresholds(b ThresholdBands) []string {
	var warnings []string

	if b.SlackPercent > 100 || b.InefficientPercent > 100 {
		warnings = append(warnings, fmt.Sprintf("probability bands must be percentages, got slack=%g inefficient=%g",
			b.SlackPercent, b.InefficientPercent))
	}
	if b.SlackPercent >= b.InefficientPercent {
		warnings = append(warnings, fmt.Sprintf("slack band (%g) should be below the inefficient band (%g); the slack label will never be assigned",
			b.SlackPercent, b.InefficientPercent))
	}
	if b.OverfitRelativeError >= 1 {
		warnings = append(warnings, fmt.Sprintf("overfit relative error %g is a fraction; values of 1 or more disable the signal",
			b.OverfitRelativeError))
	}
	if b.OverlayDampingFloor > 1 {
		warnings = append(warnings, fmt.Sprintf("overlay damping floor %g amplifies instead of damping", b.OverlayDampingFloor))
	}
	if b.OverlayAmplificationCap < 1 {
		warnings = append(warnings, fmt.Sprintf("overlay amplification cap %g damps instead of amplifying", b.OverlayAmplificationCap))
	}

	return warnings
}
