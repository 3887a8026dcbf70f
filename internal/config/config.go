// Package config loads the graphview.json project configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glimmerlab/graphview/pkg/layout"
)

// FileName is the configuration file looked up in the project directory.
const FileName = "graphview.json"

// Config represents the graphview.json configuration.
type Config struct {
	// Server configuration
	Server *ServerConfig `json:"server,omitempty"`

	// View configuration
	View *ViewConfig `json:"view,omitempty"`

	// Physics overrides for the force simulation
	Physics *PhysicsConfig `json:"physics,omitempty"`

	// Watch re-renders connected sessions when the graph file changes
	Watch bool `json:"watch,omitempty"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// AssetsDir holds the wasm client build, served under /assets/
	AssetsDir string `json:"assetsDir,omitempty"`
}

// ViewConfig contains the drawing surface settings.
type ViewConfig struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Title  string  `json:"title,omitempty"`
}

// PhysicsConfig overrides individual force simulation parameters. Zero values
// keep the simulation defaults.
type PhysicsConfig struct {
	ChargeStrength float64 `json:"chargeStrength,omitempty"`
	LinkDistance   float64 `json:"linkDistance,omitempty"`
	VelocityDecay  float64 `json:"velocityDecay,omitempty"`
	InitialRadius  float64 `json:"initialRadius,omitempty"`
}

// Load loads configuration from graphview.json in the project directory,
// falling back to defaults when the file does not exist.
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, FileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}

	applyDefaults(&config)
	return &config, nil
}

// Save writes the configuration to graphview.json.
func Save(config *Config, projectPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0644)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		View: &ViewConfig{
			Width:  500,
			Height: 500,
		},
		Watch: true,
	}
}

func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Server == nil {
		config.Server = defaults.Server
	} else {
		if config.Server.Host == "" {
			config.Server.Host = defaults.Server.Host
		}
		if config.Server.Port == 0 {
			config.Server.Port = defaults.Server.Port
		}
	}

	if config.View == nil {
		config.View = defaults.View
	} else {
		if config.View.Width == 0 {
			config.View.Width = defaults.View.Width
		}
		if config.View.Height == 0 {
			config.View.Height = defaults.View.Height
		}
	}
}

// LayoutConfig merges the physics overrides into the simulation defaults.
func (c *Config) LayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	if c.Physics == nil {
		return cfg
	}
	if c.Physics.ChargeStrength != 0 {
		cfg.ChargeStrength = c.Physics.ChargeStrength
	}
	if c.Physics.LinkDistance != 0 {
		cfg.LinkDistance = c.Physics.LinkDistance
	}
	if c.Physics.VelocityDecay != 0 {
		cfg.VelocityDecay = c.Physics.VelocityDecay
	}
	if c.Physics.InitialRadius != 0 {
		cfg.InitialRadius = c.Physics.InitialRadius
	}
	return cfg
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return fmt.Errorf("view size %gx%g must be positive", c.View.Width, c.View.Height)
	}
	return nil
}
