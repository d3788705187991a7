package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/infracollect/wallboard/internal/format"
	"github.com/infracollect/wallboard/internal/layout"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultSettle         = 250 * time.Millisecond
	defaultBrowserTimeout = 60 * time.Second
	browserPanelRadius    = 22
)

var supportedBrowsers = []string{"", "chromium", "chrome", "google-chrome"}

//go:embed templates/dashboard.html.tmpl
var documentTemplateText string

var documentTemplate = template.Must(template.New("dashboard").Parse(documentTemplateText))

// Screenshotter loads an HTML document in a browser and captures the viewport
// as PNG bytes.
type Screenshotter interface {
	Screenshot(ctx context.Context, document string, width, height int, scale float64) ([]byte, error)
}

// BrowserRenderer renders the dashboard as an HTML document and screenshots it
// with a headless browser.
type BrowserRenderer struct {
	sink          Sink
	screenshotter Screenshotter
	scale         float64
	timeout       time.Duration
	logger        *zap.Logger
}

func NewBrowserRenderer(sink Sink, spec v1.WebRendererSpec, screenshotter Screenshotter, logger *zap.Logger) (*BrowserRenderer, error) {
	browser := strings.ToLower(strings.TrimSpace(spec.Browser))
	if !lo.Contains(supportedBrowsers, browser) {
		return nil, fmt.Errorf("unsupported web_renderer.browser %q: only chromium-based browsers are supported", spec.Browser)
	}

	scale := spec.DeviceScaleFactor
	if scale <= 0 {
		scale = 1
	}
	timeout := defaultBrowserTimeout
	if spec.TimeoutSeconds > 0 {
		timeout = time.Duration(spec.TimeoutSeconds) * time.Second
	}

	if screenshotter == nil {
		settle := defaultSettle
		if spec.SettleMillis > 0 {
			settle = time.Duration(spec.SettleMillis) * time.Millisecond
		}
		screenshotter = &ChromeScreenshotter{
			Headless: lo.FromPtrOr(spec.Headless, true),
			ExecPath: spec.ExecPath,
			Settle:   settle,
			Logger:   logger,
		}
	}

	return &BrowserRenderer{
		sink:          sink,
		screenshotter: screenshotter,
		scale:         scale,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

func (r *BrowserRenderer) Kind() Kind {
	return KindBrowser
}

func (r *BrowserRenderer) Render(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	document, err := BuildDocument(req)
	if err != nil {
		return "", err
	}

	htmlPath := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + ".html"
	if err := r.sink.Write(ctx, htmlPath, strings.NewReader(document)); err != nil {
		return "", fmt.Errorf("failed to write html document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	shot, err := r.screenshotter.Screenshot(ctx, document, req.Width, req.Height, r.scale)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return "", fmt.Errorf("failed to decode screenshot: %w", err)
	}
	if b := img.Bounds(); b.Dx() != req.Width || b.Dy() != req.Height {
		r.logger.Debug("resampling screenshot",
			zap.Int("captured_width", b.Dx()),
			zap.Int("captured_height", b.Dy()),
		)
		img = fitImage(img, req.Width, req.Height)
	}

	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		return "", err
	}
	if err := r.sink.Write(ctx, req.OutputPath, &buf); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	r.logger.Info("rendered dashboard",
		zap.String("renderer", string(KindBrowser)),
		zap.String("path", req.OutputPath),
		zap.String("document", htmlPath),
		zap.Int("width", req.Width),
		zap.Int("height", req.Height),
	)
	return req.OutputPath, nil
}

type documentTheme struct {
	Background    string
	Foreground    string
	ForegroundDim string
	Border        string
	Alert         string
	Glow          template.CSS
	AlertGlow     template.CSS
	FontFamily    string
}

type documentPanel struct {
	Left   int
	Top    int
	Width  int
	Height int
	Title  string
	OK     bool
	Lines  []string
}

// documentResult is the JSON form of a result embedded in the document.
type documentResult struct {
	Name  string         `json:"name"`
	Title string         `json:"title"`
	OK    bool           `json:"ok"`
	Error string         `json:"error"`
	Data  engine.Payload `json:"data"`
	Lines []string       `json:"lines"`
}

type documentPayload struct {
	Results []documentResult `json:"results"`
}

type documentData struct {
	Width      int
	Height     int
	Radius     int
	HeaderSize int
	BodySize   int
	Theme      documentTheme
	Panels     []documentPanel
	Payload    documentPayload
}

// BuildDocument renders the HTML document for req. Panels are positioned
// with the shared grid layout and carry the shared formatter's lines.
func BuildDocument(req Request) (string, error) {
	results := req.Dashboard.Results
	grid := layout.Compute(req.Width, req.Height, req.Columns, max(1, len(results)))

	data := documentData{
		Width:      req.Width,
		Height:     req.Height,
		Radius:     browserPanelRadius,
		HeaderSize: max(20, req.Width/90),
		BodySize:   max(16, req.Width/120),
		Theme: documentTheme{
			Background:    req.Theme.Background.Hex(),
			Foreground:    req.Theme.Foreground.Hex(),
			ForegroundDim: req.Theme.ForegroundDim.Hex(),
			Border:        req.Theme.PanelBorder.Hex(),
			Alert:         req.Theme.Alert.Hex(),
			Glow:          template.CSS(glow(req.Theme.Foreground, 0.35)),
			AlertGlow:     template.CSS(glow(req.Theme.Alert, 0.35)),
			FontFamily:    req.Theme.FontFamily,
		},
		Payload: documentPayload{Results: make([]documentResult, 0, len(results))},
	}

	for i, res := range results {
		lines := format.Lines(res)
		cell := grid.Cell(i)

		title := res.Title
		if title == "" {
			title = res.Name
		}

		data.Panels = append(data.Panels, documentPanel{
			Left:   cell.X,
			Top:    cell.Y,
			Width:  cell.W,
			Height: cell.H,
			Title:  title,
			OK:     res.OK,
			Lines:  lines,
		})
		data.Payload.Results = append(data.Payload.Results, documentResult{
			Name:  res.Name,
			Title: res.Title,
			OK:    res.OK,
			Error: res.Error,
			Data:  res.Data,
			Lines: lines,
		})
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render html document: %w", err)
	}
	return buf.String(), nil
}

// ChromeScreenshotter drives a Chromium process through the DevTools
// protocol. Each call starts and tears down its own browser.
type ChromeScreenshotter struct {
	Headless bool
	ExecPath string
	Settle   time.Duration
	Logger   *zap.Logger
}

func (s *ChromeScreenshotter) Screenshot(ctx context.Context, document string, width, height int, scale float64) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Headless),
		chromedp.WindowSize(width, height),
	)
	if s.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(s.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithErrorf(logger.Sugar().Errorf))
	defer cancelBrowser()

	var shot []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(width), int64(height), chromedp.EmulateScale(scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.Sleep(s.Settle),
		chromedp.CaptureScreenshot(&shot),
	)
	if err != nil {
		return nil, fmt.Errorf("browser run failed: %w", err)
	}
	return shot, nil
}
