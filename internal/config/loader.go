package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source says where a setting came from. Name is only set for defaults.
type Source struct {
	Kind   SourceKind
	Name   string
	File   string
	Line   int
	Column int
}

func fileSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

type LoadResult struct {
	Config *Config
	// Sources maps a dotted YAML path to the file position that last set it.
	Sources map[string]Source
	// Files lists every loaded file, includes first.
	Files []string
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "lainwm", "config.yaml"), nil
}

// LoadWithSources loads the config at DefaultConfigPath.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	var (
		raw RawConfig
		l   = loader{loaded: make(map[string]bool)}
	)
	sources := map[string]Source{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		raw, sources, err = l.load(path)
		if err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, sources)
	}
	return &LoadResult{Config: cfg, Sources: sources, Files: l.files}, nil
}

// loader walks a file and its includes depth first. Includes merge before
// the including file, so the includer wins. A file reached twice through
// different includes is merged once.
type loader struct {
	chain  []string
	loaded map[string]bool
	files  []string
}

func (l *loader) load(path string) (RawConfig, map[string]Source, error) {
	file := canonicalPath(path)
	if slices.Contains(l.chain, file) {
		return RawConfig{}, nil, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.chain, " -> "), file)
	}
	if l.loaded[file] {
		return RawConfig{}, nil, nil
	}
	l.loaded[file] = true
	l.chain = append(l.chain, file)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	data, err := os.ReadFile(file)
	if err != nil {
		return RawConfig{}, nil, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, nil, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var own RawConfig
	if err := decodeStrict(data, &own); err != nil {
		return RawConfig{}, nil, fmt.Errorf("%s: %w", file, err)
	}
	root := topMapping(&doc)

	var merged RawConfig
	sources := make(map[string]Source)
	for _, n := range includeNodes(root) {
		paths, err := expandInclude(file, n.Value)
		if err != nil {
			return RawConfig{}, nil, fmt.Errorf("%s:%d:%d: include %q: %w", file, n.Line, n.Column, n.Value, err)
		}
		for _, p := range paths {
			inc, incSources, err := l.load(p)
			if err != nil {
				return RawConfig{}, nil, err
			}
			merged = merged.merge(inc)
			maps.Copy(sources, incSources)
		}
	}

	merged = merged.merge(own)
	recordSources(root, file, "", sources)
	l.files = append(l.files, file)
	return merged, sources, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// canonicalPath resolves symlinks when it can so cycles are caught through
// links too.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// expandInclude resolves an include relative to the including file. A
// directory expands to its *.yaml and *.yml files in name order.
func expandInclude(from, include string) ([]string, error) {
	switch {
	case include == "":
		return nil, errors.New("path is empty")
	case include == "~" || strings.HasPrefix(include, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		include = filepath.Join(home, strings.TrimPrefix(include, "~"))
	case !filepath.IsAbs(include):
		include = filepath.Join(filepath.Dir(from), include)
	}

	info, err := os.Stat(include)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{include}, nil
	}
	entries, err := os.ReadDir(include)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(include, ent.Name()))
			}
		}
	}
	return files, nil
}

func topMapping(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	return doc
}

// includeNodes returns the scalar nodes under the top-level include key,
// which may hold a single path or a list.
func includeNodes(root *yaml.Node) []*yaml.Node {
	if root == nil {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		var out []*yaml.Node
		for _, n := range items {
			if n.Kind == yaml.ScalarNode {
				out = append(out, n)
			}
		}
		return out
	}
	return nil
}

// recordSources stores the position of every mapping value under its
// dotted path, e.g. "keys.launch".
func recordSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = fileSource(file, val)
		recordSources(val, file, key, out)
	}
}

func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}
