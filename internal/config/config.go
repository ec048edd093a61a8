package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lainwm/lainwm/internal/hotkeys"
)

// WindowSize is the size given to newly mapped windows. Zero keeps the size
// the client asked for.
type WindowSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LauncherConfig selects the helper started by the launch chord.
type LauncherConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Wait    bool     `yaml:"wait"`
}

// Config holds the application configuration.
type Config struct {
	Display                  string            `yaml:"display,omitempty"`
	LogLevel                 string            `yaml:"log_level"`
	MouseModifier            string            `yaml:"mouse_modifier"`
	MoveButton               int               `yaml:"move_button"`
	ResizeButton             int               `yaml:"resize_button"`
	WarpPointer              bool              `yaml:"warp_pointer"`
	NewWindow                WindowSize        `yaml:"new_window"`
	Keys                     map[string]string `yaml:"keys"`
	Launcher                 LauncherConfig    `yaml:"launcher"`
	ReconcileIntervalSeconds int               `yaml:"reconcile_interval_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		MouseModifier: "Mod1",
		MoveButton:    1,
		ResizeButton:  3,
		WarpPointer:   true,
		NewWindow:     WindowSize{Width: 200, Height: 200},
		Keys: map[string]string{
			string(hotkeys.ActionSnapLeft):    "Mod4-w",
			string(hotkeys.ActionSnapRight):   "Mod4-e",
			string(hotkeys.ActionLaunch):      "Mod4-p",
			string(hotkeys.ActionNextMonitor): "Mod4-period",
			string(hotkeys.ActionHeadMonitor): "Mod4-comma",
		},
		Launcher:                 LauncherConfig{Command: "auto"},
		ReconcileIntervalSeconds: 30,
	}
}

// Bindings parses the keys map.
func (c *Config) Bindings() ([]hotkeys.Binding, error) {
	return hotkeys.ParseBindings(c.Keys)
}

// ButtonBindings returns the grab strings for the move and resize buttons,
// e.g. "Mod1-1".
func (c *Config) ButtonBindings() []string {
	prefix := ""
	if m := strings.TrimSpace(c.MouseModifier); m != "" {
		prefix = m + "-"
	}
	return []string{
		fmt.Sprintf("%s%d", prefix, c.MoveButton),
		fmt.Sprintf("%s%d", prefix, c.ResizeButton),
	}
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ReconcileInterval returns zero when reconciliation is disabled.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if _, err := hotkeys.ParseModifiers(c.MouseModifier); err != nil {
		return &ValidationError{Path: "mouse_modifier", Err: err}
	}
	if c.MoveButton < 1 || c.MoveButton > 5 {
		return &ValidationError{Path: "move_button", Err: fmt.Errorf("move_button must be between 1 and 5")}
	}
	if c.ResizeButton < 1 || c.ResizeButton > 5 {
		return &ValidationError{Path: "resize_button", Err: fmt.Errorf("resize_button must be between 1 and 5")}
	}
	if c.MoveButton == c.ResizeButton {
		return &ValidationError{Path: "resize_button", Err: fmt.Errorf("resize_button must differ from move_button")}
	}
	if c.NewWindow.Width < 0 || c.NewWindow.Height < 0 {
		return &ValidationError{Path: "new_window", Err: fmt.Errorf("new_window values must be >= 0")}
	}
	if (c.NewWindow.Width == 0) != (c.NewWindow.Height == 0) {
		return &ValidationError{Path: "new_window", Err: fmt.Errorf("new_window width and height must both be set or both be 0")}
	}
	if c.Keys == nil {
		return &ValidationError{Path: "keys", Err: fmt.Errorf("keys must not be null")}
	}
	for _, action := range sortedKeys(c.Keys) {
		if !hotkeys.Action(action).Valid() {
			return &ValidationError{Path: "keys." + action, Err: fmt.Errorf("unknown action %q", action)}
		}
		if chord := strings.TrimSpace(c.Keys[action]); chord != "" {
			if _, err := hotkeys.ParseChord(chord); err != nil {
				return &ValidationError{Path: "keys." + action, Err: err}
			}
		}
	}
	if _, err := c.Bindings(); err != nil {
		return &ValidationError{Path: "keys", Err: err}
	}
	if strings.TrimSpace(c.Launcher.Command) == "" {
		return &ValidationError{Path: "launcher.command", Err: fmt.Errorf("launcher.command is required (use \"auto\" to detect)")}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}
	return nil
}
