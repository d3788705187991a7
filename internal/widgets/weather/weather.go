package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/cache"
	"github.com/infracollect/wallboard/internal/engine"
	httpclient "github.com/infracollect/wallboard/internal/integrations/http"
	"go.uber.org/zap"
)

const (
	Title = "Weather"

	DefaultGeocodeURL  = "https://api.zippopotam.us"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	UnitsImperial = "imperial"
	UnitsMetric   = "metric"

	defaultCacheExpire = time.Hour
	defaultTimeout     = 10 * time.Second
	hourlySlots        = 6
)

var ErrZipCodeNotSet = errors.New("weather.zip_code not set")

// location is the geocoded zip code. It never changes, so it is cached
// without expiry.
type location struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}

type zippopotamResponse struct {
	Places []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state abbreviation"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

// forecastResponse is the subset of the open-meteo forecast the widget reads.
// Every field is optional.
type forecastResponse struct {
	Current struct {
		Temperature         *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		Precipitation       *float64 `json:"precipitation"`
		WindSpeed           *float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature              []*float64 `json:"temperature_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

type Collector struct {
	store      *cache.Store
	logger     *zap.Logger
	clientOpts []httpclient.ClientOption
}

type Option func(*Collector)

// WithClientOptions configures the HTTP client used for upstream requests.
func WithClientOptions(opts ...httpclient.ClientOption) Option {
	return func(c *Collector) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

func New(store *cache.Store, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Register(registry *engine.Registry, store *cache.Store, logger *zap.Logger, opts ...Option) error {
	return registry.Register(New(store, logger, opts...))
}

func (c *Collector) Kind() engine.Kind {
	return engine.KindWeather
}

func (c *Collector) Title() string {
	return Title
}

func (c *Collector) Collect(ctx context.Context, cfg v1.Config) (engine.Payload, error) {
	spec := cfg.Weather

	zip := strings.TrimSpace(string(spec.ZipCode))
	if zip == "" {
		return nil, ErrZipCodeNotSet
	}

	units, err := parseUnits(spec.Units)
	if err != nil {
		return nil, err
	}

	timeout := defaultTimeout
	if spec.TimeoutSeconds != nil {
		timeout = time.Duration(*spec.TimeoutSeconds) * time.Second
	}
	ttl := defaultCacheExpire
	if spec.CacheExpireSeconds != nil {
		ttl = time.Duration(*spec.CacheExpireSeconds) * time.Second
	}

	client := httpclient.NewClient(httpclient.Config{Timeout: timeout}, c.clientOpts...)

	loc, err := c.geocode(ctx, client, orDefault(spec.GeocodeURL, DefaultGeocodeURL), zip)
	if err != nil {
		return nil, err
	}

	forecast, err := c.forecast(ctx, client, orDefault(spec.ForecastURL, DefaultForecastURL), loc, units, ttl)
	if err != nil {
		return nil, err
	}

	return toWeatherData(loc.Label, forecast), nil
}

func (c *Collector) geocode(ctx context.Context, client *httpclient.Client, baseURL, zip string) (location, error) {
	key := cache.Key(baseURL, map[string]string{"zip": zip})
	if entry, ok := c.store.GetFresh(key, cache.NoExpiry); ok {
		var loc location
		if err := entry.Decode(&loc); err == nil && loc.Label != "" {
			return loc, nil
		}
		c.logger.Debug("ignoring unusable geocode cache entry", zap.String("zip", zip))
	}

	endpoint, err := url.JoinPath(baseURL, "us", zip)
	if err != nil {
		return location{}, fmt.Errorf("failed to build geocode url: %w", err)
	}

	var resp zippopotamResponse
	if err := client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return location{}, fmt.Errorf("failed to geocode zip %s: %w", zip, err)
	}
	if len(resp.Places) == 0 {
		return location{}, fmt.Errorf("failed to geocode zip %s: no places in response", zip)
	}

	place := resp.Places[0]
	lat, err := strconv.ParseFloat(place.Latitude, 64)
	if err != nil {
		return location{}, fmt.Errorf("failed to parse latitude %q: %w", place.Latitude, err)
	}
	lon, err := strconv.ParseFloat(place.Longitude, 64)
	if err != nil {
		return location{}, fmt.Errorf("failed to parse longitude %q: %w", place.Longitude, err)
	}

	loc := location{Lat: lat, Lon: lon, Label: fmt.Sprintf("%s, %s", place.PlaceName, place.State)}
	c.store.Put(key, loc)
	return loc, nil
}

func (c *Collector) forecast(ctx context.Context, client *httpclient.Client, endpoint string, loc location, units string, ttl time.Duration) (forecastResponse, error) {
	params := forecastParams(loc, units)
	key := cache.Key(endpoint, params)

	if entry, ok := c.store.GetFresh(key, ttl); ok {
		var resp forecastResponse
		if err := entry.Decode(&resp); err == nil {
			c.logger.Debug("using cached forecast", zap.Time("stored_at", entry.StoredAt))
			return resp, nil
		}
		c.logger.Debug("ignoring unusable forecast cache entry")
	}

	var resp forecastResponse
	if err := client.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return forecastResponse{}, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	c.store.Put(key, resp)
	return resp, nil
}

func forecastParams(loc location, units string) map[string]string {
	params := map[string]string{
		"latitude":      strconv.FormatFloat(loc.Lat, 'f', -1, 64),
		"longitude":     strconv.FormatFloat(loc.Lon, 'f', -1, 64),
		"current":       "temperature_2m,apparent_temperature,precipitation,weather_code,wind_speed_10m",
		"hourly":        "temperature_2m,precipitation_probability,precipitation",
		"forecast_days": "1",
		"timezone":      "auto",
	}
	if units == UnitsImperial {
		params["temperature_unit"] = "fahrenheit"
		params["wind_speed_unit"] = "mph"
		params["precipitation_unit"] = "inch"
	}
	return params
}

func toWeatherData(label string, resp forecastResponse) engine.WeatherData {
	data := engine.WeatherData{
		Location:  label,
		Temp:      resp.Current.Temperature,
		FeelsLike: resp.Current.ApparentTemperature,
		Wind:      resp.Current.WindSpeed,
		Precip:    resp.Current.Precipitation,
	}

	n := min(hourlySlots, len(resp.Hourly.Time), len(resp.Hourly.Temperature))
	for i := range n {
		hour := engine.HourlyData{
			Time: resp.Hourly.Time[i],
			Temp: resp.Hourly.Temperature[i],
		}
		if i < len(resp.Hourly.PrecipitationProbability) {
			hour.PrecipProb = resp.Hourly.PrecipitationProbability[i]
		}
		data.Hourly = append(data.Hourly, hour)
	}

	return data
}

func parseUnits(units string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "", UnitsImperial:
		return UnitsImperial, nil
	case UnitsMetric:
		return UnitsMetric, nil
	default:
		return "", fmt.Errorf("unsupported weather.units %q (expected %s or %s)", units, UnitsImperial, UnitsMetric)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
