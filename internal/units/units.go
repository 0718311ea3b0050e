// Package units provides shared constants and conversion for ground
// velocity units. Waveforms and stored events are always in m/s; other
// units are for display.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit constants
const (
	MPS  = "m/s"
	MMPS = "mm/s"
	UMPS = "um/s"
	NMPS = "nm/s"
)

// ValidUnits contains all valid unit values, largest first
var ValidUnits = []string{MPS, MMPS, UMPS, NMPS}

var scale = map[string]float64{
	MPS:  1,
	MMPS: 1e3,
	UMPS: 1e6,
	NMPS: 1e9,
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	_, ok := scale[unit]
	return ok
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertVelocity converts a velocity from meters per second to the target
// units. Unknown units leave the value in m/s.
func ConvertVelocity(velocityMPS float64, targetUnits string) float64 {
	if s, ok := scale[targetUnits]; ok {
		return velocityMPS * s
	}
	return velocityMPS
}

// ForPeak picks the largest unit in which peak (m/s) reads at least 1, so
// lunar amplitudes of a few nm/s are not drawn as 1e-9.
func ForPeak(peak float64) string {
	peak = math.Abs(peak)
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return MPS
	}
	for _, u := range ValidUnits {
		if peak*scale[u] >= 1 {
			return u
		}
	}
	return NMPS
}

// Label formats an axis label such as "velocity (nm/s)".
func Label(unit string) string {
	if !IsValid(unit) {
		unit = MPS
	}
	return fmt.Sprintf("velocity (%s)", unit)
}
