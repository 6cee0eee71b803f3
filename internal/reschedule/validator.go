// Package reschedule generates and validates AI reschedule suggestions for
// weather-blocked bookings.
package reschedule

import (
	"encoding/json"
	"strings"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// requiredSuggestions is the exact count a generation must contain.
const requiredSuggestions = 3

// ValidateSuggestionPayload checks an untrusted model output against the
// suggestion contract. The raw bytes must be a JSON object (not an array)
// with a non-empty explanation and exactly three suggestion objects, each
// carrying non-empty date, time and reason strings, pairwise unique by
// (date, time). String fields are trimmed before checks and in the result.
func ValidateSuggestionPayload(raw []byte) (*types.SuggestionSet, error) {
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, types.NewParseError("response is not valid JSON: %v", err)
	}

	obj, ok := top.(map[string]any)
	if !ok {
		return nil, types.NewParseError("response is not a JSON object")
	}

	explanation, ok := obj["explanation"].(string)
	if !ok || strings.TrimSpace(explanation) == "" {
		return nil, types.NewParseError("response missing explanation string")
	}

	rawSuggestions, ok := obj["suggestions"].([]any)
	if !ok {
		return nil, types.NewParseError("response missing suggestions array")
	}
	if len(rawSuggestions) != requiredSuggestions {
		return nil, types.NewParseError("response must contain exactly %d suggestions (received %d)",
			requiredSuggestions, len(rawSuggestions))
	}

	cleaned := make([]types.Suggestion, 0, requiredSuggestions)
	seen := make(map[string]struct{}, requiredSuggestions)
	for i, entry := range rawSuggestions {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, types.NewParseError("suggestion at index %d is not an object", i)
		}

		date, err := requiredString(fields, "date", i)
		if err != nil {
			return nil, err
		}
		timeOfDay, err := requiredString(fields, "time", i)
		if err != nil {
			return nil, err
		}
		reason, err := requiredString(fields, "reason", i)
		if err != nil {
			return nil, err
		}

		key := date + "__" + timeOfDay
		if _, dup := seen[key]; dup {
			return nil, types.NewParseError("suggestions must be unique by date and time")
		}
		seen[key] = struct{}{}

		cleaned = append(cleaned, types.Suggestion{Date: date, Time: timeOfDay, Reason: reason})
	}

	return &types.SuggestionSet{
		Explanation: strings.TrimSpace(explanation),
		Suggestions: cleaned,
	}, nil
}

func requiredString(fields map[string]any, name string, index int) (string, error) {
	v, ok := fields[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", types.NewParseError("suggestion %d missing %s string", index+1, name)
	}
	return strings.TrimSpace(v), nil
}
