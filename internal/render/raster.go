package render

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/infracollect/wallboard/internal/format"
	"github.com/infracollect/wallboard/internal/layout"
	"go.uber.org/zap"
	"golang.org/x/image/font"
)

const (
	panelRadius      = 18
	panelBorderWidth = 2
	panelPadding     = 16
	headerTop        = 12
	glowRadius       = 2
	glowAlpha        = 0.06
	scanlineStep     = 4
	scanlineAlpha    = 18
)

// RasterRenderer draws the dashboard with a 2D vector canvas.
type RasterRenderer struct {
	sink   Sink
	fonts  *FontLoader
	logger *zap.Logger
}

func NewRasterRenderer(sink Sink, fonts *FontLoader, logger *zap.Logger) *RasterRenderer {
	return &RasterRenderer{sink: sink, fonts: fonts, logger: logger}
}

func (r *RasterRenderer) Kind() Kind {
	return KindRaster
}

func (r *RasterRenderer) Render(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	img := r.Draw(req)

	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		return "", err
	}
	if err := r.sink.Write(ctx, req.OutputPath, &buf); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	r.logger.Info("rendered dashboard",
		zap.String("renderer", string(KindRaster)),
		zap.String("path", req.OutputPath),
		zap.Int("width", req.Width),
		zap.Int("height", req.Height),
	)
	return req.OutputPath, nil
}

// Draw paints the dashboard into an image of exactly req.Width x req.Height.
func (r *RasterRenderer) Draw(req Request) image.Image {
	w, h := req.Width, req.Height
	theme := req.Theme
	results := req.Dashboard.Results

	dc := gg.NewContext(w, h)
	dc.SetColor(theme.Background)
	dc.Clear()

	headerSize := max(20, w/90)
	bodySize := max(16, w/120)
	headerFace := r.fonts.Face(theme, headerSize)
	bodyFace := r.fonts.Face(theme, bodySize)
	defer closeFaces(headerFace, bodyFace)

	lineHeight := max(22, bodySize*135/100)
	bodyTop := max(58, headerTop+headerSize+26)

	grid := layout.Compute(w, h, req.Columns, max(1, len(results)))
	for i, res := range results {
		cell := grid.Cell(i)
		x, y := float64(cell.X), float64(cell.Y)

		dc.SetColor(theme.PanelBorder)
		dc.SetLineWidth(panelBorderWidth)
		dc.DrawRoundedRectangle(x, y, float64(cell.W), float64(cell.H), panelRadius)
		dc.Stroke()

		dc.Push()
		dc.DrawRectangle(x, y, float64(cell.W), float64(cell.H))
		dc.Clip()

		headerColor := theme.Foreground
		if !res.OK {
			headerColor = theme.Alert
		}
		hx, hy := x+panelPadding, y+headerTop
		dc.SetFontFace(headerFace)
		dc.SetRGBA(theme.Foreground.R, theme.Foreground.G, theme.Foreground.B, glowAlpha)
		for dx := -glowRadius; dx <= glowRadius; dx++ {
			for dy := -glowRadius; dy <= glowRadius; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				dc.DrawStringAnchored(res.Title, hx+float64(dx), hy+float64(dy), 0, 1)
			}
		}
		dc.SetColor(headerColor)
		dc.DrawStringAnchored(res.Title, hx, hy, 0, 1)

		dc.SetFontFace(bodyFace)
		dc.SetColor(theme.ForegroundDim)
		ly := y + float64(bodyTop)
		for _, line := range format.Lines(res) {
			dc.DrawStringAnchored(line, x+panelPadding, ly, 0, 1)
			ly += float64(lineHeight)
		}

		dc.Pop()
	}

	for sy := 0; sy < h; sy += scanlineStep {
		dc.DrawRectangle(0, float64(sy), float64(w), 2)
	}
	dc.SetRGBA255(0, 0, 0, scanlineAlpha)
	dc.Fill()

	return dc.Image()
}

func closeFaces(faces ...font.Face) {
	for _, f := range faces {
		_ = f.Close()
	}
}
