package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

func TestStatusLabelUnchecked(t *testing.T) {
	assert.Equal(t, "unchecked", statusLabel(""))
}

func TestFormatBookingLine(t *testing.T) {
	line := formatBookingLine(types.Booking{
		ID:            "bk-1",
		ScheduledDate: "2026-03-14",
		ScheduledTime: "10:00 AM",
		StudentName:   "Ada Moreno",
		Departure:     &types.Location{Name: "Downtown Airfield"},
	})
	assert.Contains(t, line, "bk-1")
	assert.Contains(t, line, "2026-03-14")
	assert.Contains(t, line, "Downtown Airfield")
	assert.Contains(t, line, "unchecked")
}

func TestFormatBookingLineMissingDeparture(t *testing.T) {
	line := formatBookingLine(types.Booking{ID: "bk-2", ScheduledDate: "2026-03-15"})
	assert.Contains(t, line, "unknown location")
}
