package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadedCase pairs a test case with the file it came from
type LoadedCase struct {
	File  string
	Suite string
	Case  Case
}

// LoadAllSuites walks a directory and loads every YAML suite in it
func LoadAllSuites(dir string) ([]LoadedCase, error) {
	var loaded []LoadedCase

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		suite, err := loadSuiteFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		rel, _ := filepath.Rel(dir, path)
		for _, tc := range suite.Tests {
			loaded = append(loaded, LoadedCase{File: rel, Suite: suite.Name, Case: tc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// loadSuiteFile parses a single YAML suite
func loadSuiteFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	if suite.Name == "" {
		return nil, fmt.Errorf("suite has no name")
	}
	for i, tc := range suite.Tests {
		if tc.Name == "" {
			return nil, fmt.Errorf("test %d has no name", i)
		}
		if tc.Expect == "" && tc.Error == "" {
			return nil, fmt.Errorf("test %q expects nothing", tc.Name)
		}
	}
	return &suite, nil
}
