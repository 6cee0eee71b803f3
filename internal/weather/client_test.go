package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

const samplePayload = `{
	"location": {"localtime": "2026-03-14 09:30"},
	"current": {
		"last_updated": "2026-03-14 09:15",
		"temp_c": -2.0,
		"vis_miles": 6.0,
		"wind_mph": 10.0,
		"gust_mph": 0,
		"cloud": 60,
		"condition": {"text": "Light snow"}
	}
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRetryDelays([]time.Duration{0, 0, 0}),
	)
}

func TestFetchNormalizes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "51.5,-0.12", r.URL.Query().Get("q"))
		w.Write([]byte(samplePayload))
	}))

	obs, err := c.Fetch(context.Background(), 51.5, -0.12)
	require.NoError(t, err)

	assert.Equal(t, 6.0, obs.VisibilityMiles)
	assert.Equal(t, 8.7, obs.WindKts) // 10 mph
	assert.Equal(t, 8.7, obs.GustKts) // gust 0 falls back to wind
	assert.Equal(t, 60.0, obs.CloudPercent)
	assert.Equal(t, -2.0, obs.TempC)
	assert.True(t, obs.Hazards.Precipitation) // "snow"
	assert.False(t, obs.Hazards.Thunderstorm)
	assert.True(t, obs.Hazards.IcingRisk) // temp <= 0 and cloud > 50
	assert.Equal(t, types.ProviderWeatherAPI, obs.Provider)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 15, 0, 0, time.UTC), obs.ObservedAt)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(samplePayload))
	}))

	_, err := c.Fetch(context.Background(), 40.0, -75.0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Fetch(context.Background(), 40.0, -75.0)
	require.Error(t, err)

	var te *types.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 4, te.Attempts)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetchRejectsBadCoordinates(t *testing.T) {
	c := NewClient("test-key")

	_, err := c.Fetch(context.Background(), 91, 0)
	assert.True(t, types.IsValidation(err))

	_, err = c.Fetch(context.Background(), 0, 181)
	assert.True(t, types.IsValidation(err))
}

func TestFetchRequiresAPIKey(t *testing.T) {
	c := NewClient("")

	_, err := c.Fetch(context.Background(), 40.0, -75.0)
	assert.True(t, types.IsValidation(err))
}

func TestDetectHazards(t *testing.T) {
	tests := []struct {
		condition string
		want      types.Hazards
	}{
		{"Thundery outbreaks possible", types.Hazards{Thunderstorm: true}},
		{"Moderate or heavy rain with thunder", types.Hazards{Thunderstorm: true, Precipitation: true}},
		{"Freezing fog", types.Hazards{Fog: true}},
		{"Mist", types.Hazards{Fog: true}},
		{"Patchy light drizzle", types.Hazards{Precipitation: true}},
		{"Ice pellets", types.Hazards{}},
		{"Sunny", types.Hazards{}},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHazards(tt.condition, false))
		})
	}
}
