// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	WeatherChecksTotal    = expvar.NewInt("weather_checks_total")
	WeatherCheckErrors    = expvar.NewInt("weather_check_errors")
	UnsafeVerdicts        = expvar.NewInt("unsafe_verdicts")
	CautionVerdicts       = expvar.NewInt("caution_verdicts")
	NotificationsEnqueued = expvar.NewInt("notifications_enqueued")
	NotificationsSent     = expvar.NewInt("notifications_sent")
	NotificationsFailed   = expvar.NewInt("notifications_failed")
	NotificationsRetried  = expvar.NewInt("notifications_retried")
	SuggestionsGenerated  = expvar.NewInt("suggestions_generated")
	SuggestionsRejected   = expvar.NewInt("suggestions_rejected")
	AlertsDispatched      = expvar.NewInt("alerts_dispatched")
	AlertsFailed          = expvar.NewInt("alerts_failed")
)
