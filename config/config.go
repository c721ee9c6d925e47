package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete playerdebug configuration.
type Config struct {
	UI         UIConfig        `yaml:"ui"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Logging    LoggingConfig   `yaml:"logging"`
	LoadedFrom string          `yaml:"-"`
}

// UIConfig selects and tunes the display surface.
type UIConfig struct {
	// Mode is one of tview, ansi or headless.
	Mode        string `yaml:"mode"`
	Color       bool   `yaml:"color"`
	ClearScreen bool   `yaml:"clear_screen"`
	// LogLines bounds the system log pane in tview and ansi modes.
	LogLines int `yaml:"log_lines"`
	// TargetFPS caps how often the tview log pane is redrawn.
	TargetFPS int `yaml:"target_fps"`
}

// TelemetryConfig selects where playback telemetry comes from.
type TelemetryConfig struct {
	// Source is one of synthetic, trace or mqtt.
	Source    string     `yaml:"source"`
	TraceFile string     `yaml:"trace_file"`
	Loop      bool       `yaml:"loop"`
	Speed     float64    `yaml:"speed"`
	MQTT      MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig describes the broker publishing player events.
type MQTTConfig struct {
	Broker       string `yaml:"broker"`
	Port         int    `yaml:"port"`
	Topic        string `yaml:"topic"`
	ClientPrefix string `yaml:"client_prefix"`
}

// LoggingConfig controls the optional daily log file.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		UI:        UIConfig{Mode: "tview", Color: true, ClearScreen: true},
		Telemetry: TelemetryConfig{Source: "synthetic"},
	}
	cfg.normalize()
	return cfg
}

// Load reads a single YAML file, or every *.yaml/*.yml file in a directory
// merged in lexical order, and applies defaults.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	files := []string{path}
	if info.IsDir() {
		files, err = yamlFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no yaml files in %s: %w", path, os.ErrNotExist)
		}
	}

	cfg := Default()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = path
	return cfg, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (c *Config) normalize() {
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	if c.UI.LogLines <= 0 {
		c.UI.LogLines = 8
	}
	if c.UI.TargetFPS <= 0 {
		c.UI.TargetFPS = 30
	}

	c.Telemetry.Source = strings.ToLower(strings.TrimSpace(c.Telemetry.Source))
	if c.Telemetry.Source == "" {
		c.Telemetry.Source = "synthetic"
	}
	if c.Telemetry.Speed <= 0 {
		c.Telemetry.Speed = 1
	}
	if c.Telemetry.MQTT.Port <= 0 {
		c.Telemetry.MQTT.Port = 1883
	}
	if strings.TrimSpace(c.Telemetry.MQTT.ClientPrefix) == "" {
		c.Telemetry.MQTT.ClientPrefix = "playerdebug"
	}

	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 7
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = "data/logs"
	}
}

func (c *Config) validate() error {
	switch c.Telemetry.Source {
	case "synthetic":
	case "trace":
		if strings.TrimSpace(c.Telemetry.TraceFile) == "" {
			return fmt.Errorf("telemetry.trace_file is required when telemetry.source=trace")
		}
	case "mqtt":
		if strings.TrimSpace(c.Telemetry.MQTT.Broker) == "" || strings.TrimSpace(c.Telemetry.MQTT.Topic) == "" {
			return fmt.Errorf("telemetry.mqtt.broker and telemetry.mqtt.topic are required when telemetry.source=mqtt")
		}
	default:
		return fmt.Errorf("telemetry.source %q not recognized (want synthetic, trace or mqtt)", c.Telemetry.Source)
	}
	return nil
}

// Print displays the configuration summary on stdout.
func (c *Config) Print() {
	fmt.Printf("UI: mode=%s color=%v log_lines=%d\n", c.UI.Mode, c.UI.Color, c.UI.LogLines)
	switch c.Telemetry.Source {
	case "trace":
		fmt.Printf("Telemetry: trace %s (speed=%.2fx loop=%v)\n", c.Telemetry.TraceFile, c.Telemetry.Speed, c.Telemetry.Loop)
	case "mqtt":
		fmt.Printf("Telemetry: mqtt %s:%d (topic: %s)\n", c.Telemetry.MQTT.Broker, c.Telemetry.MQTT.Port, c.Telemetry.MQTT.Topic)
	default:
		fmt.Printf("Telemetry: %s (speed=%.2fx)\n", c.Telemetry.Source, c.Telemetry.Speed)
	}
	if c.Logging.Enabled {
		fmt.Printf("Logging: %s (retention %d days)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
}
