// Package rrconfig is the ambient, process-wide configuration layer:
// logging parameters read from an optional YAML file and overridable
// by REDEDUP_-prefixed environment variables. Repository-level
// configuration (the hash algorithm) is not part of this layer; it
// lives in the index itself and is owned by package recindex.
package rrconfig

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v2"
)

// Configuration is the top-level process configuration, parsed from an
// optional YAML file and optionally overridden by REDEDUP_-prefixed
// environment variables.
//
// Note that yaml field names should never include _ characters, since
// this is the separator used in environment variable names.
type Configuration struct {
	// Log configures the logging subsystem.
	Log Log `yaml:"log"`
}

// Log supports setting various parameters related to the logging
// subsystem.
type Log struct {
	// Level is the granularity at which operations are logged.
	Level string `yaml:"level,omitempty"`

	// Formatter overrides the default formatter with another. Options
	// include "text" and "json".
	Formatter string `yaml:"formatter,omitempty"`

	// Fields allows users to specify static string fields to include
	// in the logger context.
	Fields map[string]interface{} `yaml:"fields,omitempty"`
}

const envPrefix = "REDEDUP"

// Default returns a Configuration with the defaults used when no file
// and no environment overrides are present.
func Default() Configuration {
	return Configuration{Log: Log{Level: "info", Formatter: "text"}}
}

// Parse reads in from an optional configuration file (pass nil content
// to skip the file and use Default as the base) and applies
// REDEDUP_-prefixed environment variable overrides on top.
func Parse(in []byte) (Configuration, error) {
	c := Default()
	if len(in) > 0 {
		if err := yaml.Unmarshal(in, &c); err != nil {
			return Configuration{}, fmt.Errorf("rrconfig: parse: %w", err)
		}
	}

	p := newEnvOverrider()
	if err := p.overwriteFields(reflect.ValueOf(&c), envPrefix); err != nil {
		return Configuration{}, fmt.Errorf("rrconfig: apply environment overrides: %w", err)
	}
	return c, nil
}

// ParseFile reads and parses the YAML configuration file at path, or
// returns Default with environment overrides applied if path does not
// exist.
func ParseFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return Configuration{}, fmt.Errorf("rrconfig: read %q: %w", path, err)
	}
	return Parse(data)
}
