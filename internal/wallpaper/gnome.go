// Package wallpaper installs a rendered image as the desktop background.
package wallpaper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	gsettingsSchema = "org.gnome.desktop.background"
	defaultProgram  = "gsettings"
	defaultTimeout  = 10 * time.Second
)

// GnomeSetter sets the GNOME background with gsettings. The light variant
// must succeed; the dark variant is best-effort since older GNOME versions do
// not have the key.
type GnomeSetter struct {
	program string
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*GnomeSetter)

// WithProgram replaces the gsettings executable.
func WithProgram(program string) Option {
	return func(s *GnomeSetter) {
		s.program = program
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *GnomeSetter) {
		s.timeout = timeout
	}
}

func NewGnomeSetter(logger *zap.Logger, opts ...Option) *GnomeSetter {
	s := &GnomeSetter{
		program: defaultProgram,
		timeout: defaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileURI returns the file:// URI of path, made absolute.
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (s *GnomeSetter) Set(ctx context.Context, imagePath string) error {
	uri, err := FileURI(imagePath)
	if err != nil {
		return err
	}

	if err := s.run(ctx, "set", gsettingsSchema, "picture-uri", uri); err != nil {
		return fmt.Errorf("failed to set wallpaper: %w", err)
	}

	if err := s.run(ctx, "set", gsettingsSchema, "picture-uri-dark", uri); err != nil {
		s.logger.Warn("failed to set dark wallpaper", zap.Error(err))
	}

	s.logger.Info("wallpaper set", zap.String("uri", uri))
	return nil
}

func (s *GnomeSetter) run(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.program, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Debug("invoking gsettings", zap.String("program", s.program), zap.Strings("args", args))
	err := cmd.Run()
	if err == nil {
		return nil
	}

	stderrStr := strings.TrimSpace(stderr.String())
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s: %s", s.program, s.timeout, stderrStr)
	}
	if stderrStr != "" {
		return fmt.Errorf("%s failed: %w: %s", s.program, err, stderrStr)
	}
	return fmt.Errorf("%s failed: %w", s.program, err)
}
