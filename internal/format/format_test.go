package format

import (
	"strings"
	"testing"

	"github.com/infracollect/wallboard/internal/engine"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func ok(name string, data engine.Payload) engine.WidgetResult {
	return engine.WidgetResult{Name: name, Title: name, Data: data, OK: true}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		result   engine.WidgetResult
		expected []string
	}{
		{
			name:     "failure",
			result:   engine.Failed("weather", "Weather", "weather.zip_code not set"),
			expected: []string{"ERROR", "weather.zip_code not set"},
		},
		{
			name:     "failure message truncated",
			result:   engine.Failed("weather", "Weather", strings.Repeat("x", 200)),
			expected: []string{"ERROR", strings.Repeat("x", 80)},
		},
		{
			name:     "clock",
			result:   ok("clock", engine.ClockData{Time: "09:05", Date: "Fri Mar 07, 2025"}),
			expected: []string{"09:05", "Fri Mar 07, 2025"},
		},
		{
			name: "weather",
			result: ok("weather", engine.WeatherData{
				Location:  "New York City, NY",
				Temp:      lo.ToPtr(71.2),
				FeelsLike: lo.ToPtr(70.0),
				Wind:      lo.ToPtr(5.4),
				Hourly: []engine.HourlyData{
					{Time: "2025-06-01T14:00", Temp: lo.ToPtr(72.0), PrecipProb: lo.ToPtr(10.0)},
					{Time: "2025-06-01T15:00", Temp: lo.ToPtr(73.5)},
				},
			}),
			expected: []string{
				"New York City, NY",
				"Temp: 71.2  Feels: 70",
				"Wind: 5.4",
				"Next hours:",
				"14:00  72  POP 10%",
				"15:00  73.5  POP n/a%",
			},
		},
		{
			name:     "weather with missing fields",
			result:   ok("weather", engine.WeatherData{Location: "Springfield, IL"}),
			expected: []string{"Springfield, IL"},
		},
		{
			name:     "calendar empty",
			result:   ok("calendar", engine.CalendarData{}),
			expected: []string{"No upcoming events"},
		},
		{
			name: "calendar summaries truncated",
			result: ok("calendar", engine.CalendarData{Events: []engine.EventData{
				{Time: "09:00", Summary: "Standup"},
				{Time: "13:00", Summary: strings.Repeat("é", 50)},
			}}),
			expected: []string{"09:00  Standup", "13:00  " + strings.Repeat("é", 40)},
		},
		{
			name: "system",
			result: ok("system", engine.SystemData{
				CPUPercent: 12.3,
				MemPercent: 37.5,
				MemUsedGB:  6,
				MemTotalGB: 15.6,
				Disks:      []engine.DiskData{{Mount: "/", UsedGB: 25, FreeGB: 75.2, Percent: 25}},
			}),
			expected: []string{"CPU: 12.3%", "Mem: 37.5% (6 / 15.6 GB)", "Disk /: 25% (free 75.2 GB)"},
		},
		{
			name:     "raw payload dumped",
			result:   ok("stocks", engine.RawData{"AAPL": 190.5}),
			expected: []string{`{"AAPL":190.5}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Lines(tt.result))
		})
	}
}

func TestLines_Caps(t *testing.T) {
	t.Run("hourly strip has at most six entries", func(t *testing.T) {
		hourly := make([]engine.HourlyData, 10)
		for i := range hourly {
			hourly[i] = engine.HourlyData{Time: "2025-06-01T00:00", Temp: lo.ToPtr(1.0), PrecipProb: lo.ToPtr(0.0)}
		}
		lines := Lines(ok("weather", engine.WeatherData{Hourly: hourly}))
		assert.Len(t, lines, 7)
	})

	t.Run("at most eighteen lines", func(t *testing.T) {
		disks := make([]engine.DiskData, 30)
		for i := range disks {
			disks[i] = engine.DiskData{Mount: "/mnt"}
		}
		lines := Lines(ok("system", engine.SystemData{Disks: disks}))
		assert.Len(t, lines, MaxLines)
	})

	t.Run("generic dump truncated", func(t *testing.T) {
		lines := Lines(ok("stocks", engine.RawData{"blob": strings.Repeat("a", 500)}))
		assert.Len(t, lines, 1)
		assert.Len(t, lines[0], 120)
	})
}

func TestLines_FailedResultsAlwaysHaveTwoLines(t *testing.T) {
	for _, msg := range []string{"", "x", "Unknown widget"} {
		lines := Lines(engine.Failed("n", "n", msg))
		assert.Len(t, lines, 2)
		assert.Equal(t, "ERROR", lines[0])
		assert.NotEmpty(t, lines[1])
	}
}
