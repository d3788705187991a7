package engine

import (
	"time"
)

// WidgetResult is the outcome of collecting one widget. OK is false exactly
// when Error is set; Data is only meaningful when OK is true.
type WidgetResult struct {
	Name  string  `json:"name"`
	Title string  `json:"title"`
	Data  Payload `json:"data"`
	OK    bool    `json:"ok"`
	Error string  `json:"error"`
}

// Failed builds a failed result. An empty message is replaced so that a failed
// result always carries an error.
func Failed(name, title, message string) WidgetResult {
	if message == "" {
		message = "unknown error"
	}
	return WidgetResult{
		Name:  name,
		Title: title,
		OK:    false,
		Error: message,
	}
}

// Dashboard is the ordered list of results for one collection cycle.
type Dashboard struct {
	Results     []WidgetResult `json:"results"`
	CollectedAt time.Time      `json:"-"`
}

// FailedCount returns how many widgets failed.
func (d Dashboard) FailedCount() int {
	n := 0
	for _, r := range d.Results {
		if !r.OK {
			n++
		}
	}
	return n
}
