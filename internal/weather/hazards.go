package weather

import (
	"strings"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

var (
	thunderstormKeywords  = []string{"thunder", "t-storm", "storm"}
	fogKeywords           = []string{"fog", "mist", "haze"}
	precipitationKeywords = []string{"rain", "drizzle", "snow", "sleet", "hail", "shower"}
)

// DetectHazards derives the boolean hazard set from a provider condition
// string. Matching is case-insensitive substring search.
func DetectHazards(conditionText string, icingRisk bool) types.Hazards {
	lower := strings.ToLower(conditionText)
	return types.Hazards{
		Thunderstorm:  containsAny(lower, thunderstormKeywords),
		Fog:           containsAny(lower, fogKeywords),
		Precipitation: containsAny(lower, precipitationKeywords),
		IcingRisk:     icingRisk,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
