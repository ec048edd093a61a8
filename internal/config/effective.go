package config

import (
	"fmt"
	"sort"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies the raw overrides on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.MouseModifier != nil {
		cfg.MouseModifier = strings.TrimSpace(*raw.MouseModifier)
	}
	cfg.MoveButton = derefInt(raw.MoveButton, cfg.MoveButton)
	cfg.ResizeButton = derefInt(raw.ResizeButton, cfg.ResizeButton)
	if raw.WarpPointer != nil {
		cfg.WarpPointer = *raw.WarpPointer
	}
	if raw.NewWindow != nil {
		cfg.NewWindow.Width = derefInt(raw.NewWindow.Width, cfg.NewWindow.Width)
		cfg.NewWindow.Height = derefInt(raw.NewWindow.Height, cfg.NewWindow.Height)
	}
	for _, action := range sortedKeys(raw.Keys) {
		key := strings.TrimSpace(action)
		if key == "" {
			return nil, &ValidationError{Path: "keys", Err: fmt.Errorf("keys contains an empty action name")}
		}
		cfg.Keys[key] = strings.TrimSpace(raw.Keys[action])
	}
	if raw.Launcher != nil {
		if raw.Launcher.Command != nil {
			cfg.Launcher.Command = strings.TrimSpace(*raw.Launcher.Command)
		}
		if raw.Launcher.Args != nil {
			cfg.Launcher.Args = append([]string(nil), raw.Launcher.Args...)
		}
		if raw.Launcher.Wait != nil {
			cfg.Launcher.Wait = *raw.Launcher.Wait
		}
	}
	cfg.ReconcileIntervalSeconds = derefInt(raw.ReconcileIntervalSeconds, cfg.ReconcileIntervalSeconds)

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
