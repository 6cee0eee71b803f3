package reschedule

import (
	"fmt"
	"strings"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// PromptVersion tags persisted generations so output from older prompt
// wordings can be told apart.
const PromptVersion = "v1"

const systemPrompt = "You are an aviation scheduling assistant that produces concise, JSON-only responses."

// promptLabel returns the pilot label used in prompt copy. The instrument
// wording differs from the violation-string label on purpose.
func promptLabel(level types.TrainingLevel) string {
	if level == types.LevelInstrument {
		return "Instrument Rated Pilot"
	}
	return level.Label()
}

// Request carries the booking facts the prompt is built from.
type Request struct {
	BookingID     string
	StudentName   string
	TrainingLevel types.TrainingLevel
	ScheduledDate string
	ScheduledTime string
	LocationName  string
	Violations    []string
}

func buildPrompt(req Request) string {
	violationLines := "- No specific violation details were provided."
	if len(req.Violations) > 0 {
		var b strings.Builder
		for i, v := range req.Violations {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- ")
			b.WriteString(v)
		}
		violationLines = b.String()
	}

	return strings.Join([]string{
		"You are a flight scheduling assistant for ClearSkies.",
		"",
		"Flight Details:",
		fmt.Sprintf("- Student: %s (%s)", req.StudentName, promptLabel(req.TrainingLevel)),
		fmt.Sprintf("- Original Date: %s at %s", req.ScheduledDate, req.ScheduledTime),
		fmt.Sprintf("- Location: %s", req.LocationName),
		"",
		"Weather Violations (determined by deterministic safety logic):",
		violationLines,
		"",
		"Task:",
		"1. Provide a brief, professional explanation (2-3 sentences) for why the original flight is unsafe for this pilot level.",
		"2. Suggest exactly 3 alternative date/time options within the next 7 days that would likely offer safer conditions for this training level.",
		"3. For each option, include a concise reason referencing typical weather improvements, mitigation of cited violations, or safer time of day.",
		"",
		"Constraints:",
		"- Return strictly in JSON format without additional commentary.",
		"- Suggestions must have unique combinations of date and time.",
		"- Dates must be in YYYY-MM-DD format. Times must be in HH:MM AM/PM format.",
		"- Keep the explanation and reasons professional, positive, and student-friendly.",
		"",
		"Respond in the following JSON schema:",
		"{",
		`  "explanation": "string",`,
		`  "suggestions": [`,
		`    { "date": "YYYY-MM-DD", "time": "HH:MM AM/PM", "reason": "string" },`,
		`    { "date": "YYYY-MM-DD", "time": "HH:MM AM/PM", "reason": "string" },`,
		`    { "date": "YYYY-MM-DD", "time": "HH:MM AM/PM", "reason": "string" }`,
		"  ]",
		"}",
	}, "\n")
}
