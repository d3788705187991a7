package render

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// DefaultFontDirs returns the usual Linux font directories.
func DefaultFontDirs() []string {
	dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
	}
	return dirs
}

// FontLoader resolves the theme font. Lookup order is the explicit font path,
// then a font file named after the family in the font directories, then the
// embedded Go Mono font. Loading never fails.
type FontLoader struct {
	fs     afero.Fs
	dirs   []string
	logger *zap.Logger

	mu     sync.Mutex
	parsed map[string]*opentype.Font
}

func NewFontLoader(fs afero.Fs, dirs []string, logger *zap.Logger) *FontLoader {
	return &FontLoader{
		fs:     fs,
		dirs:   dirs,
		logger: logger,
		parsed: make(map[string]*opentype.Font),
	}
}

// Face returns a face of the theme font at size pixels.
func (l *FontLoader) Face(theme Theme, size int) font.Face {
	f := l.font(theme)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		l.logger.Warn("failed to create font face, using fallback", zap.Error(err))
		face, _ = opentype.NewFace(l.fallback(), &opentype.FaceOptions{Size: float64(size), DPI: 72})
	}
	return face
}

func (l *FontLoader) font(theme Theme) *opentype.Font {
	if theme.FontPath != "" {
		f, err := l.load(theme.FontPath)
		if err == nil {
			return f
		}
		l.logger.Warn("failed to load theme.font_path, trying font family", zap.String("path", theme.FontPath), zap.Error(err))
	}

	if theme.FontFamily != "" {
		if path, ok := l.find(theme.FontFamily); ok {
			f, err := l.load(path)
			if err == nil {
				return f
			}
			l.logger.Warn("failed to load font family", zap.String("family", theme.FontFamily), zap.Error(err))
		} else {
			l.logger.Debug("font family not found, using embedded font", zap.String("family", theme.FontFamily))
		}
	}

	return l.fallback()
}

// find looks for <family>.ttf or <family>.otf in the font directories.
func (l *FontLoader) find(family string) (string, bool) {
	wanted := map[string]bool{
		strings.ToLower(family + ".ttf"): true,
		strings.ToLower(family + ".otf"): true,
	}

	var found string
	for _, dir := range l.dirs {
		_ = afero.Walk(l.fs, dir, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() && wanted[strings.ToLower(info.Name())] {
				found = path
				return filepath.SkipAll
			}
			return nil
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func (l *FontLoader) load(path string) (*opentype.Font, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.parsed[path]; ok {
		return f, nil
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}

	l.parsed[path] = f
	return f, nil
}

func (l *FontLoader) fallback() *opentype.Font {
	l.mu.Lock()
	defer l.mu.Unlock()

	const key = "embedded:gomono"
	if f, ok := l.parsed[key]; ok {
		return f
	}
	// The embedded font is known to be valid.
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		panic(fmt.Sprintf("render: embedded font is invalid: %v", err))
	}
	l.parsed[key] = f
	return f
}
