package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/afero"
)

// Event is a calendar entry with a resolved start time. All-day entries start
// at local midnight.
type Event struct {
	Summary string
	Start   time.Time
}

// EventSource loads the events that may fall between from and to. Sources are
// allowed to return events outside the window; the collector filters them.
type EventSource interface {
	Events(ctx context.Context, from, to time.Time) ([]Event, error)
}

// ICSSource reads events from an iCalendar file. A missing file has no events.
type ICSSource struct {
	fs   afero.Fs
	path string
}

func NewICSSource(fs afero.Fs, path string) *ICSSource {
	return &ICSSource{fs: fs, path: path}
}

func (s *ICSSource) Events(_ context.Context, _, _ time.Time) ([]Event, error) {
	if s.path == "" {
		return nil, nil
	}

	f, err := s.fs.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open calendar file %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	events, err := DecodeEvents(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar file %s: %w", s.path, err)
	}
	return events, nil
}

// DecodeEvents parses every VCALENDAR in r and returns their VEVENTs.
func DecodeEvents(r io.Reader) ([]Event, error) {
	dec := ical.NewDecoder(r)

	var events []Event
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		events = append(events, calendarEvents(cal)...)
	}
	return events, nil
}

// calendarEvents extracts events with both a start and a summary; others are
// skipped.
func calendarEvents(cal *ical.Calendar) []Event {
	var events []Event
	for _, ev := range cal.Events() {
		if ev.Props.Get(ical.PropDateTimeStart) == nil {
			continue
		}
		summary, err := ev.Props.Text(ical.PropSummary)
		if err != nil || summary == "" {
			continue
		}
		start, err := ev.DateTimeStart(time.Local)
		if err != nil || start.IsZero() {
			continue
		}
		events = append(events, Event{Summary: summary, Start: start})
	}
	return events
}

// CalDAVSource queries the first calendar of the authenticated principal.
type CalDAVSource struct {
	url      string
	username string
	password string
	client   webdav.HTTPClient
}

func NewCalDAVSource(url, username, password string, timeout time.Duration) *CalDAVSource {
	return &CalDAVSource{
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   timeout,
		},
	}
}

func (s *CalDAVSource) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(s.client, s.username, s.password), s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find caldav principal: %w", err)
	}

	home, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := client.FindCalendars(ctx, home)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	if len(calendars) == 0 {
		return nil, nil
	}

	objects, err := client.QueryCalendar(ctx, calendars[0].Path, &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar %s: %w", calendars[0].Path, err)
	}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		events = append(events, calendarEvents(obj.Data)...)
	}
	return events, nil
}
