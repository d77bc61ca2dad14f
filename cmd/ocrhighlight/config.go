package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrhighlight/pkg/highlight"
	"github.com/gardar/ocrhighlight/pkg/match"
	"github.com/gardar/ocrhighlight/pkg/pdfmark"
	"github.com/gardar/ocrhighlight/pkg/retry"
	"github.com/gardar/ocrhighlight/pkg/viewer"
)

// Environment variables, also read from a .env file in the working directory
const (
	envConfig   = "OCRHIGHLIGHT_CONFIG"
	envLogLevel = "OCRHIGHLIGHT_LOG_LEVEL"
)

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type resolverConfig struct {
	Threshold   float64 `yaml:"threshold"`
	MaxWindow   int     `yaml:"max_window"`
	PhraseSlack int     `yaml:"phrase_slack"`
}

type highlightConfig struct {
	Color           string        `yaml:"color"`
	FadeInOpacity   float64       `yaml:"fade_in_opacity"`
	PreviousOpacity float64       `yaml:"previous_opacity"`
	FadingOpacity   float64       `yaml:"fading_opacity"`
	SteadyOpacity   float64       `yaml:"steady_opacity"`
	FadeDelay       time.Duration `yaml:"fade_delay"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
}

type retryConfig struct {
	Attempts int           `yaml:"attempts"`
	Step     time.Duration `yaml:"step"`
}

type viewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Gap    float64 `yaml:"gap"`
	Zoom   float64 `yaml:"zoom"`
}

type exportConfig struct {
	LayerName string  `yaml:"layer_name"`
	Color     string  `yaml:"color"`
	Opacity   float64 `yaml:"opacity"`
	BlendMode string  `yaml:"blend_mode"`
}

// Config is the YAML configuration file
//
//	log:
//	  level: info
//	  format: json
//	resolver:
//	  threshold: 40
//	highlight:
//	  color: "#ffd400"
//	  fade_delay: 50ms
//	retry:
//	  attempts: 6
//	  step: 200ms
//	viewport:
//	  width: 1024
//	  height: 768
//	export:
//	  layer_name: Highlights
type Config struct {
	Log       logConfig       `yaml:"log"`
	Resolver  resolverConfig  `yaml:"resolver"`
	Highlight highlightConfig `yaml:"highlight"`
	Retry     retryConfig     `yaml:"retry"`
	Viewport  viewportConfig  `yaml:"viewport"`
	Export    exportConfig    `yaml:"export"`
}

// defaultConfig mirrors the defaults of each package
func defaultConfig() Config {
	ro := match.DefaultOptions()
	ho := highlight.DefaultOptions()
	vo := viewer.DefaultOptions()
	xo := pdfmark.DefaultConfig()

	return Config{
		Log: logConfig{Level: "warn", Format: "text"},
		Resolver: resolverConfig{
			Threshold:   ro.Threshold,
			MaxWindow:   ro.MaxWindow,
			PhraseSlack: ro.PhraseSlack,
		},
		Highlight: highlightConfig{
			Color:           ho.Color,
			FadeInOpacity:   ho.FadeInOpacity,
			PreviousOpacity: ho.PreviousOpacity,
			FadingOpacity:   ho.FadingOpacity,
			SteadyOpacity:   ho.SteadyOpacity,
			FadeDelay:       ho.FadeDelay,
			SettleDelay:     ho.SettleDelay,
		},
		Retry: retryConfig{Attempts: retry.DefaultPolicy().MaxAttempts, Step: 200 * time.Millisecond},
		Viewport: viewportConfig{
			Width:  vo.ViewportWidth,
			Height: vo.ViewportHeight,
			Gap:    vo.PageGap,
			Zoom:   vo.Zoom,
		},
		Export: exportConfig{
			LayerName: xo.LayerName,
			Color:     xo.Color,
			Opacity:   xo.Opacity,
			BlendMode: xo.BlendMode,
		},
	}
}

// loadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger builds the CLI logger. Output goes to w so stdout stays clean
// for results.
func newLogger(level, format string, w io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return log, nil
}

func (c Config) resolverOptions(log logrus.FieldLogger) match.Options {
	return match.Options{
		Threshold:   c.Resolver.Threshold,
		MaxWindow:   c.Resolver.MaxWindow,
		PhraseSlack: c.Resolver.PhraseSlack,
		Logger:      log,
	}
}

func (c Config) viewerOptions(log logrus.FieldLogger) viewer.Options {
	opts := viewer.DefaultOptions()
	opts.Zoom = c.Viewport.Zoom
	opts.ViewportWidth = c.Viewport.Width
	opts.ViewportHeight = c.Viewport.Height
	opts.PageGap = c.Viewport.Gap
	opts.Retry = retry.Linear(c.Retry.Attempts, c.Retry.Step)
	opts.Resolver = c.resolverOptions(log)
	opts.Highlight.Color = c.Highlight.Color
	opts.Highlight.FadeInOpacity = c.Highlight.FadeInOpacity
	opts.Highlight.PreviousOpacity = c.Highlight.PreviousOpacity
	opts.Highlight.FadingOpacity = c.Highlight.FadingOpacity
	opts.Highlight.SteadyOpacity = c.Highlight.SteadyOpacity
	opts.Highlight.FadeDelay = c.Highlight.FadeDelay
	opts.Highlight.SettleDelay = c.Highlight.SettleDelay
	opts.Highlight.Logger = log
	opts.Logger = log
	return opts
}

func (c Config) exportConfig(log logrus.FieldLogger) pdfmark.Config {
	cfg := pdfmark.DefaultConfig()
	cfg.LayerName = c.Export.LayerName
	cfg.Color = c.Export.Color
	cfg.Opacity = c.Export.Opacity
	cfg.BlendMode = c.Export.BlendMode
	cfg.Logger = log
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
