// Package safety implements the weather safety rule engine. Evaluation is a
// pure function of an observation and a training level; it performs no I/O
// and never mutates its inputs.
package safety

import (
	"fmt"
	"math"
	"strconv"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// cautionMargin is the fraction below a visibility minimum that still rates a
// caution flag alongside the violation.
const cautionMargin = 0.1

// Evaluate classifies an observation against the thresholds for the given
// training level. Violations is non-empty exactly when the status is unsafe;
// caution flags only surface when no violation was recorded.
func Evaluate(obs types.WeatherObservation, level types.TrainingLevel) types.SafetyVerdict {
	label := level.Label()
	ceiling := estimateCeilingFt(obs.CloudPercent)

	var violations []string
	caution := false

	if obs.Hazards.Thunderstorm {
		violations = append(violations,
			fmt.Sprintf("Thunderstorms present (not permitted for %s)", label))
	}

	switch level {
	case types.LevelStudent:
		if obs.Hazards.Fog {
			violations = append(violations,
				fmt.Sprintf("Fog present (not permitted for %s)", label))
		}
		if obs.Hazards.Precipitation {
			violations = append(violations,
				fmt.Sprintf("Precipitation present (not permitted for %s)", label))
		}

		if !(obs.VisibilityMiles > 5) {
			violations = append(violations,
				fmt.Sprintf("Visibility: %s mi (minimum: 5 mi for %s)", num(obs.VisibilityMiles), label))
			if withinMargin(obs.VisibilityMiles, 5) {
				caution = true
			}
		}

		if !(obs.WindKts < 10) {
			violations = append(violations,
				fmt.Sprintf("Wind: %s kt (maximum: 10 kt for %s)", num(obs.WindKts), label))
		} else if obs.GustKts >= 10 {
			caution = true
		}

		if !(obs.CloudPercent <= 40) {
			violations = append(violations,
				fmt.Sprintf("Cloud cover: %s%% (requires clear/scattered clouds for %s)", num(obs.CloudPercent), label))
			if obs.CloudPercent <= 50 {
				caution = true
			}
		}

	case types.LevelPrivate:
		if !(obs.VisibilityMiles > 3) {
			violations = append(violations,
				fmt.Sprintf("Visibility: %s mi (minimum: 3 mi for %s)", num(obs.VisibilityMiles), label))
			if withinMargin(obs.VisibilityMiles, 3) {
				caution = true
			}
		}

		if !(obs.WindKts < 20) {
			violations = append(violations,
				fmt.Sprintf("Wind: %s kt (maximum: 20 kt for %s)", num(obs.WindKts), label))
		} else if obs.GustKts >= 20 {
			caution = true
		}

		if ceiling == nil || !(*ceiling > 1000) {
			violations = append(violations,
				fmt.Sprintf("Ceiling: %s (minimum: > 1000 ft for %s)", ceilingValue(ceiling), label))
			if ceiling != nil && *ceiling > 900 && *ceiling <= 1000 {
				caution = true
			}
		}

		if obs.Hazards.Precipitation && !obs.Hazards.Thunderstorm {
			caution = true
		}

	default: // instrument rated
		if !(obs.VisibilityMiles > 1) {
			violations = append(violations,
				fmt.Sprintf("Visibility: %s mi (minimum: 1 mi for %s)", num(obs.VisibilityMiles), label))
			if withinMargin(obs.VisibilityMiles, 1) {
				caution = true
			}
		}

		if obs.Hazards.IcingRisk {
			violations = append(violations,
				fmt.Sprintf("Icing risk detected (not permitted for %s)", label))
		}

		if obs.GustKts >= 35 && len(violations) == 0 {
			caution = true
		}
	}

	status := types.StatusSafe
	switch {
	case len(violations) > 0:
		status = types.StatusUnsafe
	case caution:
		status = types.StatusCaution
	}

	return types.SafetyVerdict{
		Status:     status,
		Violations: violations,
		Metrics: types.VerdictMetrics{
			VisibilityMiles:   obs.VisibilityMiles,
			WindKts:           obs.WindKts,
			GustKts:           obs.GustKts,
			CloudPercent:      obs.CloudPercent,
			TempC:             obs.TempC,
			Hazards:           obs.Hazards,
			InferredCeilingFt: ceiling,
		},
	}
}

// estimateCeilingFt maps cloud cover to a coarse ceiling band. Returns nil for
// non-finite input.
func estimateCeilingFt(cloudPercent float64) *float64 {
	if !isFinite(cloudPercent) {
		return nil
	}
	var ft float64
	switch {
	case cloudPercent <= 40:
		ft = 3000
	case cloudPercent <= 75:
		ft = 1500
	default:
		ft = 800
	}
	return &ft
}

// withinMargin reports whether value fell short of threshold by at most the
// caution margin.
func withinMargin(value, threshold float64) bool {
	if !isFinite(value) || !isFinite(threshold) {
		return false
	}
	lower := threshold * (1 - cautionMargin)
	return value >= lower && value < threshold
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// num renders a float the way it would appear in a report: no trailing zeros,
// no exponent for ordinary magnitudes.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ceilingValue(ft *float64) string {
	if ft == nil {
		return "unknown ft"
	}
	return num(*ft) + " ft"
}
