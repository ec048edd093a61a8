package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWindowSize struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawLauncher struct {
	Command *string  `yaml:"command"`
	Args    []string `yaml:"args"`
	Wait    *bool    `yaml:"wait"`
}

type RawConfig struct {
	Include                  IncludeList       `yaml:"include"`
	Display                  *string           `yaml:"display"`
	LogLevel                 *string           `yaml:"log_level"`
	MouseModifier            *string           `yaml:"mouse_modifier"`
	MoveButton               *int              `yaml:"move_button"`
	ResizeButton             *int              `yaml:"resize_button"`
	WarpPointer              *bool             `yaml:"warp_pointer"`
	NewWindow                *RawWindowSize    `yaml:"new_window"`
	Keys                     map[string]string `yaml:"keys"`
	Launcher                 *RawLauncher      `yaml:"launcher"`
	ReconcileIntervalSeconds *int              `yaml:"reconcile_interval_seconds"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.MouseModifier != nil {
		out.MouseModifier = overlay.MouseModifier
	}
	if overlay.MoveButton != nil {
		out.MoveButton = overlay.MoveButton
	}
	if overlay.ResizeButton != nil {
		out.ResizeButton = overlay.ResizeButton
	}
	if overlay.WarpPointer != nil {
		out.WarpPointer = overlay.WarpPointer
	}
	if overlay.NewWindow != nil {
		merged := RawWindowSize{}
		if out.NewWindow != nil {
			merged = *out.NewWindow
		}
		if overlay.NewWindow.Width != nil {
			merged.Width = overlay.NewWindow.Width
		}
		if overlay.NewWindow.Height != nil {
			merged.Height = overlay.NewWindow.Height
		}
		out.NewWindow = &merged
	}
	if overlay.Keys != nil {
		keys := make(map[string]string, len(out.Keys)+len(overlay.Keys))
		for k, v := range out.Keys {
			keys[k] = v
		}
		for k, v := range overlay.Keys {
			keys[k] = v
		}
		out.Keys = keys
	}
	if overlay.Launcher != nil {
		merged := RawLauncher{}
		if out.Launcher != nil {
			merged = *out.Launcher
		}
		if overlay.Launcher.Command != nil {
			merged.Command = overlay.Launcher.Command
		}
		if overlay.Launcher.Args != nil {
			merged.Args = overlay.Launcher.Args
		}
		if overlay.Launcher.Wait != nil {
			merged.Wait = overlay.Launcher.Wait
		}
		out.Launcher = &merged
	}
	if overlay.ReconcileIntervalSeconds != nil {
		out.ReconcileIntervalSeconds = overlay.ReconcileIntervalSeconds
	}

	return out
}
