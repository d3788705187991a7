package engine

// Kind identifies one of the widgets the dashboard knows how to collect.
// The set is closed: only the constants below are valid.
type Kind string

const (
	KindClock    Kind = "clock"
	KindSystem   Kind = "system"
	KindWeather  Kind = "weather"
	KindCalendar Kind = "calendar"
)

var kinds = []Kind{KindClock, KindSystem, KindWeather, KindCalendar}

// Kinds returns every known widget kind.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind maps a configured widget name to its Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range kinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

type Named interface {
	Kind() Kind
	Title() string
}

const (
	// UnknownWidgetMessage is the error text for widget names with no collector.
	UnknownWidgetMessage = "Unknown widget"
)
