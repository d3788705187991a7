// Package format turns widget results into the text lines shown in a panel.
// Every renderer uses these lines so that backends agree on content.
package format

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/infracollect/wallboard/internal/engine"
	"github.com/samber/lo"
)

const (
	MaxLines = 18

	errorWidth   = 80
	summaryWidth = 40
	genericWidth = 120
	hourlySlots  = 6

	ErrorHeading = "ERROR"
	NoEvents     = "No upcoming events"
	missingValue = "n/a"
)

// Lines returns the body lines of a panel, at most MaxLines.
func Lines(result engine.WidgetResult) []string {
	var lines []string
	if !result.OK {
		lines = []string{ErrorHeading, truncate(result.Error, errorWidth)}
	} else {
		lines = payloadLines(result.Data)
	}

	if len(lines) > MaxLines {
		lines = lines[:MaxLines]
	}
	return lines
}

func payloadLines(payload engine.Payload) []string {
	switch data := payload.(type) {
	case engine.ClockData:
		return []string{data.Time, data.Date}
	case engine.WeatherData:
		return weatherLines(data)
	case engine.CalendarData:
		return calendarLines(data)
	case engine.SystemData:
		return systemLines(data)
	default:
		return []string{genericLine(payload)}
	}
}

func weatherLines(data engine.WeatherData) []string {
	var lines []string
	if data.Location != "" {
		lines = append(lines, data.Location)
	}
	if data.Temp != nil {
		lines = append(lines, fmt.Sprintf("Temp: %s  Feels: %s", number(data.Temp), number(data.FeelsLike)))
	}
	if data.Wind != nil {
		lines = append(lines, fmt.Sprintf("Wind: %s", number(data.Wind)))
	}

	if len(data.Hourly) > 0 {
		lines = append(lines, "Next hours:")
		for _, h := range lo.Slice(data.Hourly, 0, hourlySlots) {
			lines = append(lines, fmt.Sprintf("%s  %s  POP %s%%", hourMinute(h.Time), number(h.Temp), number(h.PrecipProb)))
		}
	}
	return lines
}

func calendarLines(data engine.CalendarData) []string {
	if len(data.Events) == 0 {
		return []string{NoEvents}
	}
	return lo.Map(data.Events, func(e engine.EventData, _ int) string {
		return fmt.Sprintf("%s  %s", e.Time, truncate(e.Summary, summaryWidth))
	})
}

func systemLines(data engine.SystemData) []string {
	lines := []string{
		fmt.Sprintf("CPU: %s%%", formatFloat(data.CPUPercent)),
		fmt.Sprintf("Mem: %s%% (%s / %s GB)", formatFloat(data.MemPercent), formatFloat(data.MemUsedGB), formatFloat(data.MemTotalGB)),
	}
	for _, d := range data.Disks {
		lines = append(lines, fmt.Sprintf("Disk %s: %s%% (free %s GB)", d.Mount, formatFloat(d.Percent), formatFloat(d.FreeGB)))
	}
	return lines
}

func genericLine(payload engine.Payload) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return truncate(fmt.Sprintf("%v", payload), genericWidth)
	}
	return truncate(string(raw), genericWidth)
}

// hourMinute extracts HH:MM from an ISO-8601 local timestamp.
func hourMinute(ts string) string {
	if len(ts) >= 16 {
		return ts[11:16]
	}
	return ts
}

func number(v *float64) string {
	if v == nil {
		return missingValue
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, width int) string {
	return lo.Substring(s, 0, uint(width))
}
