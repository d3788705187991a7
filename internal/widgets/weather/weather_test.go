package weather

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/cache"
	"github.com/infracollect/wallboard/internal/engine"
	httpclient "github.com/infracollect/wallboard/internal/integrations/http"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	cacheDir = "/cache"

	zippoBody = `{"post code": "10001", "places": [{"place name": "New York City", "longitude": "-73.9967", "state abbreviation": "NY", "latitude": "40.7484"}]}`

	forecastBody = `{
		"current": {"temperature_2m": 71.2, "apparent_temperature": 70.1, "precipitation": 0, "wind_speed_10m": 5.4},
		"hourly": {
			"time": ["2025-06-01T00:00", "2025-06-01T01:00", "2025-06-01T02:00", "2025-06-01T03:00", "2025-06-01T04:00", "2025-06-01T05:00", "2025-06-01T06:00"],
			"temperature_2m": [70, 69.5, 69, 68, 67, 66, 65],
			"precipitation_probability": [0, 5, 10, 20, 30, 40, 50]
		}
	}`
)

type upstream struct {
	server        *httptest.Server
	geocodeHits   atomic.Int32
	forecastHits  atomic.Int32
	forecastBody  atomic.Value // string
	lastForecastQ atomic.Value // url.Values
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.forecastBody.Store(forecastBody)

	mux := http.NewServeMux()
	mux.HandleFunc("/us/10001", func(w http.ResponseWriter, _ *http.Request) {
		u.geocodeHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(zippoBody))
	})
	mux.HandleFunc("/us/00000", func(w http.ResponseWriter, _ *http.Request) {
		u.geocodeHits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		u.forecastHits.Add(1)
		u.lastForecastQ.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(u.forecastBody.Load().(string)))
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) config(zip string) v1.Config {
	return v1.Config{
		Weather: v1.WeatherSpec{
			ZipCode:     v1.ZipCode(zip),
			GeocodeURL:  u.server.URL,
			ForecastURL: u.server.URL + "/v1/forecast",
		},
	}
}

type harness struct {
	collector *Collector
	store     *cache.Store
	fs        afero.Fs
	clock     *clockwork.FakeClock
}

func newHarness(t *testing.T, u *upstream) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC))
	store := cache.NewStore(fs, cacheDir, cache.WithClock(clock))
	var opts []Option
	if u != nil {
		opts = append(opts, WithClientOptions(httpclient.WithHttpClient(u.server.Client())))
	}
	return &harness{
		collector: New(store, zap.NewNop(), opts...),
		store:     store,
		fs:        fs,
		clock:     clock,
	}
}

func TestCollect_MissingZipCode(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.collector.Collect(t.Context(), v1.Config{Weather: v1.WeatherSpec{ZipCode: "   "}})
	require.ErrorIs(t, err, ErrZipCodeNotSet)
	assert.Equal(t, "weather.zip_code not set", err.Error())

	files, err := afero.Glob(h.fs, filepath.Join(cacheDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollect_UnsupportedUnits(t *testing.T) {
	u := newUpstream(t)
	h := newHarness(t, u)

	cfg := u.config("10001")
	cfg.Weather.Units = "kelvin"

	_, err := h.collector.Collect(t.Context(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kelvin")
	assert.Zero(t, u.geocodeHits.Load())
}

func TestCollect_Success(t *testing.T) {
	u := newUpstream(t)
	h := newHarness(t, u)

	payload, err := h.collector.Collect(t.Context(), u.config("10001"))
	require.NoError(t, err)

	data, ok := payload.(engine.WeatherData)
	require.True(t, ok)
	assert.Equal(t, "New York City, NY", data.Location)
	assert.Equal(t, lo.ToPtr(71.2), data.Temp)
	assert.Equal(t, lo.ToPtr(70.1), data.FeelsLike)
	assert.Equal(t, lo.ToPtr(5.4), data.Wind)
	assert.Equal(t, lo.ToPtr(0.0), data.Precip)
	require.Len(t, data.Hourly, 6)
	assert.Equal(t, engine.HourlyData{Time: "2025-06-01T01:00", Temp: lo.ToPtr(69.5), PrecipProb: lo.ToPtr(5.0)}, data.Hourly[1])

	query := u.lastForecastQ.Load().(url.Values)
	assert.Equal(t, []string{"40.7484"}, query["latitude"])
	assert.Equal(t, []string{"-73.9967"}, query["longitude"])
	assert.Equal(t, []string{"fahrenheit"}, query["temperature_unit"])
	assert.Equal(t, []string{"mph"}, query["wind_speed_unit"])
	assert.Equal(t, []string{"inch"}, query["precipitation_unit"])
	assert.Equal(t, []string{"auto"}, query["timezone"])
}

func TestCollect_MetricUnits(t *testing.T) {
	u := newUpstream(t)
	h := newHarness(t, u)

	cfg := u.config("10001")
	cfg.Weather.Units = "Metric"

	_, err := h.collector.Collect(t.Context(), cfg)
	require.NoError(t, err)

	query := u.lastForecastQ.Load().(url.Values)
	assert.NotContains(t, query, "temperature_unit")
	assert.NotContains(t, query, "wind_speed_unit")
}

func TestCollect_Caching(t *testing.T) {
	t.Run("fresh forecast and geocode make no request", func(t *testing.T) {
		u := newUpstream(t)
		h := newHarness(t, u)
		cfg := u.config("10001")

		_, err := h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)

		h.clock.Advance(30 * time.Minute)
		second, err := h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)

		assert.Equal(t, int32(1), u.geocodeHits.Load())
		assert.Equal(t, int32(1), u.forecastHits.Load())
		assert.Equal(t, lo.ToPtr(71.2), second.(engine.WeatherData).Temp)
	})

	t.Run("stale forecast is refetched and overwritten", func(t *testing.T) {
		u := newUpstream(t)
		h := newHarness(t, u)
		cfg := u.config("10001")
		cfg.Weather.CacheExpireSeconds = lo.ToPtr(600)

		_, err := h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)

		u.forecastBody.Store(`{"current": {"temperature_2m": 50}}`)
		h.clock.Advance(11 * time.Minute)

		second, err := h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)
		assert.Equal(t, lo.ToPtr(50.0), second.(engine.WeatherData).Temp)
		assert.Equal(t, int32(2), u.forecastHits.Load())
		assert.Equal(t, int32(1), u.geocodeHits.Load(), "geocode is cached without expiry")

		third, err := h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)
		assert.Equal(t, lo.ToPtr(50.0), third.(engine.WeatherData).Temp)
		assert.Equal(t, int32(2), u.forecastHits.Load())
	})

	t.Run("corrupted cache records are refetched", func(t *testing.T) {
		u := newUpstream(t)
		h := newHarness(t, u)
		cfg := u.config("10001")

		_, err := h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)

		files, err := afero.Glob(h.fs, filepath.Join(cacheDir, "*.json"))
		require.NoError(t, err)
		require.Len(t, files, 2)
		for _, f := range files {
			require.NoError(t, afero.WriteFile(h.fs, f, []byte("garbage"), 0o644))
		}

		_, err = h.collector.Collect(t.Context(), cfg)
		require.NoError(t, err)
		assert.Equal(t, int32(2), u.geocodeHits.Load())
		assert.Equal(t, int32(2), u.forecastHits.Load())
	})

	t.Run("zero ttl always refetches", func(t *testing.T) {
		u := newUpstream(t)
		h := newHarness(t, u)
		cfg := u.config("10001")
		cfg.Weather.CacheExpireSeconds = lo.ToPtr(0)

		for range 3 {
			_, err := h.collector.Collect(t.Context(), cfg)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), u.forecastHits.Load())
	})
}

func TestCollect_MissingFields(t *testing.T) {
	u := newUpstream(t)
	u.forecastBody.Store(`{"hourly": {"time": ["2025-06-01T00:00", "2025-06-01T01:00"], "temperature_2m": [60]}}`)
	h := newHarness(t, u)

	payload, err := h.collector.Collect(t.Context(), u.config("10001"))
	require.NoError(t, err)

	data := payload.(engine.WeatherData)
	assert.Nil(t, data.Temp)
	assert.Nil(t, data.Wind)
	require.Len(t, data.Hourly, 1)
	assert.Nil(t, data.Hourly[0].PrecipProb)
}

func TestCollect_GeocodeFailure(t *testing.T) {
	u := newUpstream(t)
	h := newHarness(t, u)

	_, err := h.collector.Collect(t.Context(), u.config("00000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to geocode zip 00000")
	assert.Zero(t, u.forecastHits.Load())
}

func TestRegister(t *testing.T) {
	registry := engine.NewRegistry(zap.NewNop())
	require.NoError(t, Register(registry, cache.NewStore(afero.NewMemMapFs(), cacheDir), zap.NewNop()))

	c, err := registry.Get("weather")
	require.NoError(t, err)
	assert.Equal(t, Title, c.Title())
}
