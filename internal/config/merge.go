package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML keys.
const (
	keyRequires = "requires"
	keyRun      = "run"
	keyLogging  = "logging"
	keyMetrics  = "metrics"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. A section present in the overlay replaces the whole section in
// target, starting from the built-in defaults; absent sections are left
// unchanged. Unknown keys are rejected.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = mergeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q from %s: %w", key, overlayPath, err)
		}
	}
	return nil
}

// mergeSection decodes node into a fresh default section and stores it on
// target.
func mergeSection(target *Config, key string, node *yaml.Node) error {
	defaults := Default()
	switch key {
	case keyRequires:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Requires = v
	case keyRun:
		v := defaults.Run
		if err := decodeStrict(node, &v); err != nil {
			return err
		}
		target.Run = v
	case keyLogging:
		v := defaults.Logging
		if err := decodeStrict(node, &v); err != nil {
			return err
		}
		target.Logging = v
	case keyMetrics:
		v := defaults.Metrics
		if err := decodeStrict(node, &v); err != nil {
			return err
		}
		target.Metrics = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// decodeStrict decodes node into out, rejecting unknown fields.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
