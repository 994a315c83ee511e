package weaver

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk form of Options. Zero values keep the option they
// would override.
type Config struct {
	Contract           string              `yaml:"contract"`
	Event              string              `yaml:"event"`
	NotifyMarker       string              `yaml:"notifyMarker"`
	DependsOnMarker    string              `yaml:"dependsOnMarker"`
	Helper             string              `yaml:"helper"`
	MarkerReference    string              `yaml:"markerReference"`
	Clean              *bool               `yaml:"clean"`
	Workers            int                 `yaml:"workers"`
	ResolvedReferences []ResolvedReference `yaml:"resolvedReferences"`
}

// LoadConfig decodes a YAML config.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("decoding weaver config: %w", err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("weaver config: workers must not be negative, got %d", cfg.Workers)
	}
	for i, ref := range cfg.ResolvedReferences {
		if ref.Name == "" {
			return nil, fmt.Errorf("weaver config: resolved reference %d has no name", i)
		}
	}
	return &cfg, nil
}

// LoadConfigFile reads a config from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Apply overlays the config on opts.
func (c *Config) Apply(opts Options) Options {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&opts.Contract, c.Contract)
	set(&opts.EventName, c.Event)
	set(&opts.NotifyMarker, c.NotifyMarker)
	set(&opts.DependsOnMarker, c.DependsOnMarker)
	set(&opts.HelperName, c.Helper)
	set(&opts.MarkerReference, c.MarkerReference)
	if c.Clean != nil {
		opts.Clean = *c.Clean
	}
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	if len(c.ResolvedReferences) > 0 {
		opts.ResolvedReferences = c.ResolvedReferences
	}
	return opts
}
