package attrkind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coords(lat, lng float64) Location {
	return Location{Latitude: &lat, Longitude: &lng}
}

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	taipei := coords(25.0330, 121.5654)
	taichung := coords(24.1477, 120.6736)

	d, ok := DistanceKm(taipei, taichung)
	require.True(t, ok)
	assert.InDelta(t, 133.6, d, 1.0)

	_, ok = DistanceKm(taipei, Location{City: "Nowhere"})
	assert.False(t, ok)
}

func TestSearchBound(t *testing.T) {
	t.Parallel()

	taipei := coords(25.0330, 121.5654)
	bound, ok := SearchBound(taipei, 10)
	require.True(t, ok)

	p, _ := taipei.Point()
	assert.True(t, bound.Contains(p))
	assert.Less(t, bound.Min.Lat(), 25.0330)
	assert.Greater(t, bound.Max.Lon(), 121.5654)

	_, ok = SearchBound(Location{}, 10)
	assert.False(t, ok)
}

func TestLocationFromValue(t *testing.T) {
	t.Parallel()

	loc, ok := LocationFromValue(map[string]any{"city": "Kaohsiung", "lat": "22.6273", "lon": 120.3014})
	require.True(t, ok)
	assert.Equal(t, "Kaohsiung", loc.City)
	require.True(t, loc.HasCoordinates())
	assert.InDelta(t, 22.6273, *loc.Latitude, 1e-9)

	_, ok = LocationFromValue([]any{1, 2})
	assert.False(t, ok)
}

func TestZodiacSign(t *testing.T) {
	t.Parallel()

	tests := []struct {
		date string
		sign string
	}{
		{"2000-01-10", "capricorn"},
		{"2000-01-20", "aquarius"},
		{"2000-03-21", "aries"},
		{"2000-07-22", "cancer"},
		{"2000-07-23", "leo"},
		{"2000-12-21", "sagittarius"},
		{"2000-12-31", "capricorn"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			t.Parallel()

			d, err := time.Parse(DateLayout, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.sign, ZodiacSign(d))
		})
	}
}

// The min_age check reads the package clock, so this test does not run in parallel.
func TestDate_MinAge(t *testing.T) {
	original := now
	now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = original })

	def := definition("date", withOptions("min_age", 18))
	r := NewDefaultRegistry()

	assert.True(t, r.Validate(def, "2008-03-01").Valid(), "turns 18 today")
	assert.Equal(t, []string{CodeBelowMin}, r.Validate(def, "2008-03-02").Codes())

	def = definition("date", withOptions("max_date", "today"))
	assert.Equal(t, []string{CodeAboveMax}, r.Validate(def, "2026-03-02").Codes())
}
