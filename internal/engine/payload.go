package engine

// Payload is the widget-specific data of a successful result. Each widget kind
// has exactly one payload shape; RawData covers anything else.
type Payload interface {
	PayloadKind() Kind
}

type ClockData struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

func (ClockData) PayloadKind() Kind { return KindClock }

type SystemData struct {
	CPUPercent float64    `json:"cpu_pct"`
	MemPercent float64    `json:"mem_pct"`
	MemUsedGB  float64    `json:"mem_used_gb"`
	MemTotalGB float64    `json:"mem_total_gb"`
	Disks      []DiskData `json:"disks"`
}

func (SystemData) PayloadKind() Kind { return KindSystem }

type DiskData struct {
	Mount   string  `json:"mount"`
	UsedGB  float64 `json:"used_gb"`
	FreeGB  float64 `json:"free_gb"`
	Percent float64 `json:"pct"`
}

// WeatherData carries the current conditions. Pointer fields are nil when the
// upstream response did not include them.
type WeatherData struct {
	Location  string       `json:"location"`
	Temp      *float64     `json:"temp"`
	FeelsLike *float64     `json:"feels_like"`
	Wind      *float64     `json:"wind"`
	Precip    *float64     `json:"precip"`
	Hourly    []HourlyData `json:"hourly"`
}

func (WeatherData) PayloadKind() Kind { return KindWeather }

type HourlyData struct {
	Time       string   `json:"time"`
	Temp       *float64 `json:"temp"`
	PrecipProb *float64 `json:"pop"`
}

type CalendarData struct {
	Events []EventData `json:"events"`
}

func (CalendarData) PayloadKind() Kind { return KindCalendar }

type EventData struct {
	Time    string `json:"time"`
	Summary string `json:"summary"`
}

// RawData is an untyped payload, formatted as a truncated structured dump.
type RawData map[string]any

func (RawData) PayloadKind() Kind { return "" }
