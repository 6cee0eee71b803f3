package reschedule

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

func validPayload() string {
	return `{
		"explanation": "  Conditions exceed student wind limits.  ",
		"suggestions": [
			{"date": "2026-03-15", "time": "09:00 AM", "reason": " Calmer morning winds "},
			{"date": "2026-03-15", "time": "04:00 PM", "reason": "Front passes by afternoon"},
			{"date": "2026-03-16", "time": "09:00 AM", "reason": "Clear skies forecast"}
		]
	}`
}

func TestValidateSuggestionPayload(t *testing.T) {
	t.Run("accepts and trims a valid payload", func(t *testing.T) {
		got, err := ValidateSuggestionPayload([]byte(validPayload()))
		require.NoError(t, err)

		assert.Equal(t, "Conditions exceed student wind limits.", got.Explanation)
		require.Len(t, got.Suggestions, 3)
		assert.Equal(t, types.Suggestion{
			Date:   "2026-03-15",
			Time:   "09:00 AM",
			Reason: "Calmer morning winds",
		}, got.Suggestions[0])
	})

	rejects := []struct {
		name    string
		payload string
	}{
		{"invalid json", `not json`},
		{"top-level array", `[{"explanation": "x"}]`},
		{"missing explanation", `{"suggestions": []}`},
		{"blank explanation", `{"explanation": "  ", "suggestions": []}`},
		{"missing suggestions", `{"explanation": "x"}`},
		{
			"two suggestions",
			`{"explanation": "x", "suggestions": [
				{"date": "2026-03-15", "time": "09:00 AM", "reason": "a"},
				{"date": "2026-03-16", "time": "09:00 AM", "reason": "b"}
			]}`,
		},
		{
			"four suggestions",
			`{"explanation": "x", "suggestions": [
				{"date": "2026-03-15", "time": "09:00 AM", "reason": "a"},
				{"date": "2026-03-16", "time": "09:00 AM", "reason": "b"},
				{"date": "2026-03-17", "time": "09:00 AM", "reason": "c"},
				{"date": "2026-03-18", "time": "09:00 AM", "reason": "d"}
			]}`,
		},
		{
			"suggestion is an array",
			`{"explanation": "x", "suggestions": [
				["2026-03-15"],
				{"date": "2026-03-16", "time": "09:00 AM", "reason": "b"},
				{"date": "2026-03-17", "time": "09:00 AM", "reason": "c"}
			]}`,
		},
		{
			"blank reason",
			`{"explanation": "x", "suggestions": [
				{"date": "2026-03-15", "time": "09:00 AM", "reason": "  "},
				{"date": "2026-03-16", "time": "09:00 AM", "reason": "b"},
				{"date": "2026-03-17", "time": "09:00 AM", "reason": "c"}
			]}`,
		},
		{
			"non-string date",
			`{"explanation": "x", "suggestions": [
				{"date": 20260315, "time": "09:00 AM", "reason": "a"},
				{"date": "2026-03-16", "time": "09:00 AM", "reason": "b"},
				{"date": "2026-03-17", "time": "09:00 AM", "reason": "c"}
			]}`,
		},
		{
			"duplicate date and time",
			`{"explanation": "x", "suggestions": [
				{"date": "2026-03-15", "time": "09:00 AM", "reason": "a"},
				{"date": "2026-03-15", "time": "09:00 AM", "reason": "b"},
				{"date": "2026-03-17", "time": "09:00 AM", "reason": "c"}
			]}`,
		},
	}

	for _, tt := range rejects {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ValidateSuggestionPayload([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, types.IsParse(err))
		})
	}

	t.Run("same date with different times is allowed", func(t *testing.T) {
		got, err := ValidateSuggestionPayload([]byte(validPayload()))
		require.NoError(t, err)
		assert.Equal(t, got.Suggestions[0].Date, got.Suggestions[1].Date)
	})
}

type stubGenerator struct {
	payload []byte
	err     error
	calls   int
}

func (s *stubGenerator) Generate(_ context.Context, _ Request) ([]byte, error) {
	s.calls++
	return s.payload, s.err
}

type recordingHistory struct {
	entries []types.RescheduleEntry
}

func (r *recordingHistory) AppendReschedule(_ context.Context, _ string, entry types.RescheduleEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func TestServicePersistsOnlyValidGenerations(t *testing.T) {
	req := Request{
		BookingID:     "bk-1",
		StudentName:   "Ada",
		TrainingLevel: types.LevelStudent,
		ScheduledDate: "2026-03-14",
		ScheduledTime: "10:00 AM",
		LocationName:  "Downtown Airfield",
		Violations:    []string{"Wind: 15 kt (maximum: 10 kt for Student Pilot)"},
	}

	t.Run("valid generation is persisted with provenance", func(t *testing.T) {
		history := &recordingHistory{}
		svc := NewService(&stubGenerator{payload: []byte(validPayload())}, history, "gpt-4o-mini", nil)

		got, err := svc.GenerateSuggestions(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, got.Suggestions, 3)

		require.Len(t, history.entries, 1)
		entry := history.entries[0]
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "gpt-4o-mini", entry.Model)
		assert.Equal(t, PromptVersion, entry.PromptVersion)
		assert.Equal(t, types.LevelStudent, entry.TrainingLevel)
		assert.Equal(t, req.Violations, entry.Violations)
	})

	t.Run("invalid payload persists nothing", func(t *testing.T) {
		history := &recordingHistory{}
		svc := NewService(&stubGenerator{payload: []byte(`{"explanation": "x", "suggestions": []}`)}, history, "", nil)

		_, err := svc.GenerateSuggestions(context.Background(), req)
		require.Error(t, err)
		assert.True(t, types.IsParse(err))
		assert.Empty(t, history.entries)
	})

	t.Run("transport failure persists nothing", func(t *testing.T) {
		history := &recordingHistory{}
		gen := &stubGenerator{err: &types.TransportError{Provider: "openai", Attempts: 1, Err: fmt.Errorf("boom")}}
		svc := NewService(gen, history, "", nil)

		_, err := svc.GenerateSuggestions(context.Background(), req)
		require.Error(t, err)
		assert.True(t, types.IsTransport(err))
		assert.Empty(t, history.entries)
	})
}

func TestBuildPromptIncludesViolations(t *testing.T) {
	prompt := buildPrompt(Request{
		StudentName:   "Ada",
		TrainingLevel: types.LevelInstrument,
		ScheduledDate: "2026-03-14",
		ScheduledTime: "10:00 AM",
		LocationName:  "Downtown Airfield",
		Violations:    []string{"Icing risk detected (not permitted for Instrument Rated)"},
	})

	assert.Contains(t, prompt, "Ada (Instrument Rated Pilot)")
	assert.Contains(t, prompt, "- Icing risk detected")
	assert.Contains(t, prompt, "2026-03-14 at 10:00 AM")
}

func TestBuildPromptWithoutViolations(t *testing.T) {
	prompt := buildPrompt(Request{StudentName: "Ada", TrainingLevel: types.LevelStudent})
	assert.Contains(t, prompt, "- No specific violation details were provided.")
}
