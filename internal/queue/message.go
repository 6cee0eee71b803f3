package queue

import (
	"fmt"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// formatFlightLabel renders the booking date and time as "2026-03-14 at
// 10:00 AM", falling back to "upcoming date" when the payload has no date.
func formatFlightLabel(payload types.EmailContext) string {
	date := payload.ScheduledDate
	if date == "" {
		date = "upcoming date"
	}
	if payload.ScheduledTime != "" {
		return date + " at " + payload.ScheduledTime
	}
	return date
}

// BuildMessage produces the short in-app notification text for one recipient.
// The instructor copy leads with the student's name so a busy CFI can scan
// the dropdown without opening each event.
func BuildMessage(notifType types.NotificationType, payload types.EmailContext, audience types.Audience, studentName string) string {
	label := formatFlightLabel(payload)
	name := payload.StudentName
	if name == "" {
		name = studentName
	}
	if name == "" {
		name = "Student"
	}
	instructor := audience == types.AudienceInstructor

	switch notifType {
	case types.NotifyWeatherAlert:
		if instructor {
			return fmt.Sprintf("%s's flight %s requires weather attention.", name, label)
		}
		return fmt.Sprintf("Weather alert for your flight %s. Conditions require attention.", label)
	case types.NotifyReschedule:
		if instructor {
			return fmt.Sprintf("%s's flight has been rescheduled to %s.", name, label)
		}
		return fmt.Sprintf("Flight rescheduled to %s.", label)
	case types.NotifyCancellation:
		if instructor {
			return fmt.Sprintf("%s's flight %s was cancelled.", name, label)
		}
		return fmt.Sprintf("Flight %s was cancelled.", label)
	case types.NotifyWeatherCleared:
		if instructor {
			return fmt.Sprintf("%s's flight %s is now cleared by weather.", name, label)
		}
		return fmt.Sprintf("Weather has improved for your flight %s.", label)
	default:
		if instructor {
			return fmt.Sprintf("%s has an update for flight %s.", name, label)
		}
		return fmt.Sprintf("Update available for your flight %s.", label)
	}
}
