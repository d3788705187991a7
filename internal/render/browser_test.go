package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"image"
	"image/png"
	"regexp"
	"testing"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/infracollect/wallboard/internal/format"
	"github.com/infracollect/wallboard/internal/sinks"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScreenshotter struct {
	err      error
	document string
	scale    float64
	calls    int
}

func (f *fakeScreenshotter) Screenshot(_ context.Context, document string, width, height int, scale float64) ([]byte, error) {
	f.calls++
	f.document = document
	f.scale = scale
	if f.err != nil {
		return nil, f.err
	}

	img := image.NewRGBA(image.Rect(0, 0, int(float64(width)*scale), int(float64(height)*scale)))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func browserRequest() Request {
	return Request{
		Dashboard:  sampleDashboard(),
		Width:      1920,
		Height:     1080,
		Columns:    3,
		Theme:      DefaultTheme(),
		OutputPath: "/out/wallpaper.png",
	}
}

func TestBrowserRenderer_Render(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
	}{
		{name: "native scale", scale: 1},
		{name: "high dpi is resampled", scale: 2},
		{name: "unset scale defaults to one", scale: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			shooter := &fakeScreenshotter{}
			renderer, err := New("web", sinks.NewFilesystemSink(fs),
				WithWebConfig(v1.WebRendererSpec{DeviceScaleFactor: tt.scale}),
				WithScreenshotter(shooter),
			)
			require.NoError(t, err)

			path, err := renderer.Render(t.Context(), browserRequest())
			require.NoError(t, err)
			assert.Equal(t, "/out/wallpaper.png", path)
			assert.Equal(t, 1, shooter.calls)
			assert.Equal(t, max(1, tt.scale), shooter.scale)

			img := decodePNG(t, fs, path)
			assert.Equal(t, image.Rect(0, 0, 1920, 1080), img.Bounds())

			doc, err := afero.ReadFile(fs, "/out/wallpaper.html")
			require.NoError(t, err)
			assert.Equal(t, shooter.document, string(doc))
		})
	}
}

func TestBrowserRenderer_ScreenshotFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	renderer, err := NewBrowserRenderer(sinks.NewFilesystemSink(fs), v1.WebRendererSpec{}, &fakeScreenshotter{err: errors.New("chrome not found")}, zap.NewNop())
	require.NoError(t, err)

	_, err = renderer.Render(t.Context(), browserRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")

	exists, err := afero.Exists(fs, "/out/wallpaper.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewBrowserRenderer_Browsers(t *testing.T) {
	tests := []struct {
		browser   string
		expectErr bool
	}{
		{browser: ""},
		{browser: "chromium"},
		{browser: "Chrome"},
		{browser: "firefox", expectErr: true},
		{browser: "webkit", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.browser, func(t *testing.T) {
			_, err := NewBrowserRenderer(sinks.NewFilesystemSink(afero.NewMemMapFs()), v1.WebRendererSpec{Browser: tt.browser}, nil, zap.NewNop())
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewBrowserRenderer_DefaultScreenshotter(t *testing.T) {
	renderer, err := NewBrowserRenderer(sinks.NewFilesystemSink(afero.NewMemMapFs()), v1.WebRendererSpec{
		Headless:     lo.ToPtr(false),
		ExecPath:     "/usr/bin/chromium",
		SettleMillis: 500,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	chrome, ok := renderer.screenshotter.(*ChromeScreenshotter)
	require.True(t, ok)
	assert.False(t, chrome.Headless)
	assert.Equal(t, "/usr/bin/chromium", chrome.ExecPath)
	assert.Equal(t, int64(500), chrome.Settle.Milliseconds())
}

var scriptData = regexp.MustCompile(`(?s)<script id="dashboard-data" type="application/json">(.*?)</script>`)

func TestBuildDocument(t *testing.T) {
	req := browserRequest()
	doc, err := BuildDocument(req)
	require.NoError(t, err)

	t.Run("panels carry formatter lines", func(t *testing.T) {
		for _, res := range req.Dashboard.Results {
			for _, line := range format.Lines(res) {
				assert.Contains(t, doc, html.EscapeString(line))
			}
		}
	})

	t.Run("failed panels are marked", func(t *testing.T) {
		assert.Contains(t, doc, `class="title bad">Weather</div>`)
		assert.Contains(t, doc, `class="title">Time</div>`)
	})

	t.Run("panels use the shared layout", func(t *testing.T) {
		assert.Contains(t, doc, "left: 24px; top: 24px; width: 612px; height: 507px;")
		assert.Contains(t, doc, "left: 654px; top: 549px; width: 612px; height: 507px;")
	})

	t.Run("theme variables", func(t *testing.T) {
		assert.Contains(t, doc, "--bg: #020402;")
		assert.Contains(t, doc, "--alert: #ff3355;")
		assert.Contains(t, doc, "--glow: rgba(0, 255, 102, 0.35);")
		assert.NotContains(t, doc, "ZgotmplZ")
	})

	t.Run("embedded payload", func(t *testing.T) {
		m := scriptData.FindStringSubmatch(doc)
		require.Len(t, m, 2)

		var payload struct {
			Results []struct {
				Name  string          `json:"name"`
				Title string          `json:"title"`
				OK    bool            `json:"ok"`
				Error string          `json:"error"`
				Data  json.RawMessage `json:"data"`
				Lines []string        `json:"lines"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(m[1]), &payload))
		require.Len(t, payload.Results, len(req.Dashboard.Results))

		for i, res := range req.Dashboard.Results {
			got := payload.Results[i]
			assert.Equal(t, res.Name, got.Name)
			assert.Equal(t, res.OK, got.OK)
			assert.Equal(t, res.Error, got.Error)
			assert.Equal(t, format.Lines(res), got.Lines)
		}
		assert.JSONEq(t, `{"time":"09:05","date":"Fri Mar 07, 2025"}`, string(payload.Results[0].Data))
	})
}

func TestBuildDocument_EscapesContent(t *testing.T) {
	req := browserRequest()
	req.Dashboard = engine.Dashboard{Results: []engine.WidgetResult{
		{Name: "calendar", Title: "Today", OK: true, Data: engine.CalendarData{Events: []engine.EventData{
			{Time: "10:00", Summary: "<script>alert(1)</script>"},
		}}},
	}}

	doc, err := BuildDocument(req)
	require.NoError(t, err)
	assert.NotContains(t, doc, "<script>alert(1)</script>")
	assert.Contains(t, doc, "&lt;script&gt;alert(1)&lt;/script&gt;")
}
