// Package config loads the YAML configuration that selects the render backend and tunes the
// window, renderer, scene traversal and logging.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("config: invalid value")

// Config is the root of the YAML document.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Scene    SceneConfig    `yaml:"scene"`
	Log      LogConfig      `yaml:"log"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type RendererConfig struct {
	// Backend is "software" or "wgpu".
	Backend string `yaml:"backend"`

	// TransparentSort is "depth" or "order".
	TransparentSort string `yaml:"transparent_sort"`

	MaxBatchVertices int `yaml:"max_batch_vertices,omitempty"`

	// PresentMode is "vsync" or "uncapped".
	PresentMode string `yaml:"present_mode"`

	// MSAA is the sample count: 1, 4, 8 or 16.
	MSAA int `yaml:"msaa"`

	// ClearColor is "#rrggbb" or "#rrggbbaa".
	ClearColor string `yaml:"clear_color"`
}

type SceneConfig struct {
	ParallelTraversal bool `yaml:"parallel_traversal"`
	Workers           int  `yaml:"workers,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-render",
			Width:  960,
			Height: 640,
		},
		Renderer: RendererConfig{
			Backend:          "software",
			TransparentSort:  "depth",
			MaxBatchVertices: renderer.DefaultMaxBatchVertices,
			PresentMode:      "vsync",
			MSAA:             1,
			ClearColor:       "#000000ff",
		},
		Scene: SceneConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level: "notice",
		},
	}
}

// Load reads and parses the YAML file at path.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - *Config: the validated configuration, defaults filled in
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document on top of Default and validates the result. Keys missing from
// the document keep their default values.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the validated configuration
//   - error: error if decoding or validation fails
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value. The returned error wraps ErrInvalid and joins one error per
// bad field.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field string, format string, v ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, v...)))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		bad("window", "size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := c.BackendType(); err != nil {
		bad("renderer.backend", "%v", err)
	}
	if _, err := c.SortMode(); err != nil {
		bad("renderer.transparent_sort", "%v", err)
	}
	if c.Renderer.MaxBatchVertices < 0 || c.Renderer.MaxBatchVertices > renderer.DefaultMaxBatchVertices {
		bad("renderer.max_batch_vertices", "%d outside [0, %d]", c.Renderer.MaxBatchVertices, renderer.DefaultMaxBatchVertices)
	}
	if _, err := c.PresentMode(); err != nil {
		bad("renderer.present_mode", "%v", err)
	}
	if _, err := c.MSAA(); err != nil {
		bad("renderer.msaa", "%v", err)
	}
	if _, err := c.ClearColor(); err != nil {
		bad("renderer.clear_color", "%v", err)
	}
	if c.Scene.Workers < 0 {
		bad("scene.workers", "%d must not be negative", c.Scene.Workers)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		bad("log.level", "%v", err)
	}
	return errors.Join(errs...)
}

// BackendType maps renderer.backend to a renderer.BackendType.
func (c *Config) BackendType() (renderer.BackendType, error) {
	switch strings.ToLower(c.Renderer.Backend) {
	case "", "software":
		return renderer.BackendTypeSoftware, nil
	case "wgpu", "webgpu":
		return renderer.BackendTypeWGPU, nil
	}
	return renderer.BackendTypeSoftware, fmt.Errorf("unknown backend %q", c.Renderer.Backend)
}

// SortMode maps renderer.transparent_sort to a renderer.TransparentSortMode.
func (c *Config) SortMode() (renderer.TransparentSortMode, error) {
	switch strings.ToLower(c.Renderer.TransparentSort) {
	case "", "depth":
		return renderer.SortDepthFirst, nil
	case "order":
		return renderer.SortOrderFirst, nil
	}
	return renderer.SortDepthFirst, fmt.Errorf("unknown transparent sort mode %q", c.Renderer.TransparentSort)
}

// PresentMode maps renderer.present_mode to a renderer.PresentMode.
func (c *Config) PresentMode() (renderer.PresentMode, error) {
	switch strings.ToLower(c.Renderer.PresentMode) {
	case "", "vsync":
		return renderer.PresentModeVSync, nil
	case "uncapped", "immediate":
		return renderer.PresentModeUncapped, nil
	}
	return renderer.PresentModeVSync, fmt.Errorf("unknown present mode %q", c.Renderer.PresentMode)
}

// MSAA maps renderer.msaa to a renderer.MSAASampleCount. Zero means off.
func (c *Config) MSAA() (renderer.MSAASampleCount, error) {
	switch c.Renderer.MSAA {
	case 0, 1:
		return renderer.MSAAOff, nil
	case 4:
		return renderer.MSAA4x, nil
	case 8:
		return renderer.MSAA8x, nil
	case 16:
		return renderer.MSAA16x, nil
	}
	return renderer.MSAAOff, fmt.Errorf("unsupported sample count %d", c.Renderer.MSAA)
}

// ClearColor parses renderer.clear_color. An empty value is opaque black.
func (c *Config) ClearColor() (color.RGBA, error) {
	return parseHexColor(c.Renderer.ClearColor)
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (log.Level, error) {
	return log.ParseLevel(c.Log.Level)
}

// RendererOptions returns the renderer options the configuration selects. Call it only on a
// validated configuration.
func (c *Config) RendererOptions() []renderer.RendererBuilderOption {
	mode, _ := c.SortMode()
	opts := []renderer.RendererBuilderOption{renderer.WithTransparentSortMode(mode)}
	if c.Renderer.MaxBatchVertices > 0 {
		opts = append(opts, renderer.WithMaxBatchVertices(c.Renderer.MaxBatchVertices))
	}
	return opts
}

// TraversalWorkers returns the scene traversal worker count, zero for serial traversal.
func (c *Config) TraversalWorkers() int {
	if !c.Scene.ParallelTraversal {
		return 0
	}
	return c.Scene.Workers
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 0:
		return color.RGBA{A: 255}, nil
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("color %q must be #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
