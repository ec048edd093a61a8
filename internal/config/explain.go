package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	display
//	log_level
//	mouse_modifier
//	move_button
//	resize_button
//	warp_pointer
//	new_window.width
//	new_window.height
//	keys
//	keys.<action>
//	launcher.command
//	launcher.args
//	launcher.wait
//	reconcile_interval_seconds
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	single := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	switch parts[0] {
	case "display":
		return single(cfg.Display)
	case "log_level":
		return single(cfg.LogLevel)
	case "mouse_modifier":
		return single(cfg.MouseModifier)
	case "move_button":
		return single(cfg.MoveButton)
	case "resize_button":
		return single(cfg.ResizeButton)
	case "warp_pointer":
		return single(cfg.WarpPointer)
	case "reconcile_interval_seconds":
		return single(cfg.ReconcileIntervalSeconds)
	case "new_window":
		if len(parts) == 1 {
			return cfg.NewWindow, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "width":
			return cfg.NewWindow.Width, nil
		case "height":
			return cfg.NewWindow.Height, nil
		}
	case "keys":
		if len(parts) == 1 {
			return cfg.Keys, nil
		}
		action := strings.Join(parts[1:], ".")
		chord, ok := cfg.Keys[action]
		if !ok {
			return nil, fmt.Errorf("no key binding for action %q", action)
		}
		return chord, nil
	case "launcher":
		if len(parts) == 1 {
			return cfg.Launcher, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "command":
			return cfg.Launcher.Command, nil
		case "args":
			return cfg.Launcher.Args, nil
		case "wait":
			return cfg.Launcher.Wait, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
