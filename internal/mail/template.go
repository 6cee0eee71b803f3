package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// Email is a rendered subject and HTML body pair.
type Email struct {
	Subject string
	HTML    string
}

// bodyTemplate is shared by all notification types; empty sections collapse.
var bodyTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<title>ClearSkies Notification</title>
</head>
<body style="margin: 0; padding: 0; background-color: #EDF2F7;">
<table role="presentation" style="width: 100%; max-width: 600px; margin: 32px auto; background: #FFFFFF; border-radius: 16px;">
<tbody>
<tr><td style="padding: 24px 24px 16px 24px;">
<h1 style="margin: 0; font-size: 20px; color: #1B4965;">{{.Title}}</h1>
</td></tr>
<tr><td style="padding: 0 24px 16px 24px; font-size: 14px; color: #2C3E50;">
<p style="margin: 0 0 12px 0;">Hi {{.RecipientName}},</p>
<p style="margin: 0 0 12px 0;">{{.Intro}}</p>
</td></tr>
<tr><td style="padding: 0 24px 16px 24px;">
<p style="margin: 0; font-size: 14px; color: #2C3E50;"><strong>Date:</strong> {{.Date}}</p>
{{if .Time}}<p style="margin: 8px 0 0 0; font-size: 14px; color: #2C3E50;"><strong>Time:</strong> {{.Time}}</p>{{end}}
<p style="margin: 8px 0 0 0; font-size: 14px; color: #2C3E50;"><strong>Location:</strong> {{.Location}}</p>
</td></tr>
{{if .Violations}}<tr><td style="padding: 0 24px 16px 24px;">
<h3 style="margin: 0 0 8px 0; font-size: 14px; color: #C0392B;">Current Conditions</h3>
<ul style="padding-left: 18px; margin: 0; font-size: 14px; color: #2C3E50;">
{{range .Violations}}<li style="margin-bottom: 6px; color: #C0392B;">{{.}}</li>
{{end}}</ul>
</td></tr>{{end}}
{{if .Explanation}}<tr><td style="padding: 0 24px 16px 24px;">
<h3 style="margin: 0 0 8px 0; font-size: 14px; color: #1B4965;">AI Recommendation</h3>
<p style="margin: 0; font-size: 14px; color: #2C3E50;">{{.Explanation}}</p>
</td></tr>{{end}}
{{if .Options}}<tr><td style="padding: 0 24px 16px 24px;">
<h3 style="margin: 0 0 8px 0; font-size: 14px; color: #1B4965;">Recommended Alternatives</h3>
<ol style="padding-left: 18px; margin: 0; font-size: 14px; color: #2C3E50;">
{{range .Options}}<li style="margin-bottom: 8px;"><strong>{{.Date}} at {{.Time}}</strong><br /><span style="color: #566573;">{{.Reason}}</span></li>
{{end}}</ol>
</td></tr>{{end}}
{{if .ActionURL}}<tr><td style="padding: 0 24px 24px 24px;">
<a href="{{.ActionURL}}" style="display: inline-block; padding: 12px 20px; background: #2C82C9; color: #FFFFFF; text-decoration: none; border-radius: 999px; font-size: 14px;">{{.ActionLabel}}</a>
</td></tr>{{end}}
{{if .Closing}}<tr><td style="padding: 0 24px 24px 24px;">
<p style="margin: 0; font-size: 14px; color: #2C3E50;">{{.Closing}}</p>
</td></tr>{{end}}
<tr><td style="padding: 24px; color: #7F8C8D; font-size: 12px; text-align: center;">
ClearSkies © 2025 · AI-powered weather intelligence for safer flight training
</td></tr>
</tbody>
</table>
</body>
</html>
`))

type templateData struct {
	Title         string
	RecipientName string
	Intro         string
	Date          string
	Time          string
	Location      string
	Violations    []string
	Explanation   string
	Options       []types.Suggestion
	ActionURL     string
	ActionLabel   string
	Closing       string
}

// Render produces the subject and HTML body for one notification.
func Render(notifType types.NotificationType, ctx types.EmailContext) (Email, error) {
	instructor := ctx.Audience == types.AudienceInstructor
	studentName := ctx.StudentName
	if studentName == "" {
		studentName = "Student Pilot"
	}
	dateLabel := ctx.ScheduledDate
	if dateLabel == "" {
		dateLabel = "upcoming date"
	}

	data := templateData{
		RecipientName: resolveRecipientName(ctx, instructor),
		Date:          dateLabel,
		Time:          ctx.ScheduledTime,
		Location:      ctx.LocationName,
	}
	if data.Location == "" {
		data.Location = "Scheduled location"
	}

	var subject string
	switch notifType {
	case types.NotifyWeatherAlert:
		data.Title = "Weather Alert"
		data.Violations = ctx.Violations
		data.Explanation = ctx.AIExplanation
		data.Options = ctx.Options
		data.ActionURL = ctx.ActionURL
		if instructor {
			subject = fmt.Sprintf("⚠️ Weather Alert — %s's Flight on %s", studentName, dateLabel)
			data.Intro = fmt.Sprintf("%s's scheduled flight has been flagged due to weather conditions below the required minimums. Review the details below to determine next steps with your student.", studentName)
			data.ActionLabel = "Review Flight Status"
		} else {
			subject = fmt.Sprintf("⚠️ Weather Alert — Flight on %s Requires Attention", dateLabel)
			data.Intro = "Your scheduled flight has been flagged due to unsafe weather conditions. Please review the details below and explore alternative scheduling options."
			data.ActionLabel = "View Reschedule Options"
		}

	case types.NotifyReschedule:
		data.Title = "Flight Rescheduled"
		data.Explanation = ctx.AIExplanation
		if instructor {
			subject = fmt.Sprintf("✅ %s's Flight Rescheduled — %s", studentName, dateLabel)
			data.Intro = fmt.Sprintf("%s's lesson has been successfully rescheduled. Here are the updated details so you can prepare for the session.", studentName)
			data.Closing = "Coordinate with your student if any further adjustments are needed."
		} else {
			subject = fmt.Sprintf("✅ Flight Rescheduled — Confirmed for %s", dateLabel)
			data.Intro = "Your flight has been successfully rescheduled. Here are your updated details:"
			data.Closing = "Add this flight to your calendar to stay prepared."
		}

	case types.NotifyWeatherCleared:
		data.Title = "All Clear"
		data.Violations = ctx.Violations
		if instructor {
			subject = fmt.Sprintf("☀️ Weather Improved — %s's Flight on %s is Clear", studentName, dateLabel)
			data.Intro = fmt.Sprintf("Good news! Weather conditions for %s's upcoming lesson now meet the required minimums.", studentName)
		} else {
			subject = fmt.Sprintf("☀️ Weather Improved — Flight on %s is Clear", dateLabel)
			data.Intro = "Great news! Weather conditions for your upcoming flight have improved and it is now safe to proceed."
		}

	default:
		data.Title = "Notification"
		if instructor {
			subject = fmt.Sprintf("ClearSkies Update — %s's Flight", studentName)
			data.Intro = fmt.Sprintf("%s has an update on their upcoming flight.", studentName)
		} else {
			subject = "ClearSkies Notification"
			data.Intro = "A new update is available for your ClearSkies account."
		}
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("rendering %s email: %w", notifType, err)
	}
	return Email{Subject: subject, HTML: buf.String()}, nil
}

func resolveRecipientName(ctx types.EmailContext, instructor bool) string {
	if ctx.RecipientName != "" {
		return ctx.RecipientName
	}
	if instructor {
		return "Instructor"
	}
	if ctx.StudentName != "" {
		return ctx.StudentName
	}
	return "Pilot"
}
