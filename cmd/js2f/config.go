package main

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// configName is looked up in the working directory when --config is not given
const configName = "js2f.yaml"

// projectConfig holds per-project compiler settings
type projectConfig struct {
	// Out routes compiled output under a directory instead of writing
	// sibling .fasm files.
	Out string `yaml:"out,omitempty"`
	// Annotate toggles stack simulator annotations (default on).
	Annotate *bool `yaml:"annotate,omitempty"`
	// EchoSource toggles source echo comments.
	EchoSource bool `yaml:"echo_source,omitempty"`
	// Exclude lists glob patterns of files to skip during directory walks.
	Exclude []string `yaml:"exclude,omitempty"`
}

// loadConfig reads a config file. A missing default config is not an
// error; a missing explicit path is.
func loadConfig(path string, explicit bool) (*projectConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return &projectConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := new(projectConfig)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// annotate resolves the tri-state annotate setting
func (c *projectConfig) annotate() bool {
	if c.Annotate == nil {
		return true
	}
	return *c.Annotate
}
