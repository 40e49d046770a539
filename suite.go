package cram

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SuiteManifest groups test files into named suites (§4.5, §9), parsed
// from cram-suite.yaml.
type SuiteManifest struct {
	Suites map[string]Suite `yaml:"suites"`
}

// Suite is one named group of test files.
type Suite struct {
	Files []string          `yaml:"files"`
	Tags  []string          `yaml:"tags"`
	Env   map[string]string `yaml:"env"`
}

// LoadSuiteManifest reads cram-suite.yaml from dir, if present. A missing
// manifest is not an error: it returns a nil manifest and a nil error.
func LoadSuiteManifest(dir string) (*SuiteManifest, error) {
	path := filepath.Join(dir, "cram-suite.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cram-suite.yaml: %w", err)
	}
	var m SuiteManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse cram-suite.yaml: %w", err)
	}
	return &m, nil
}

// Files resolves a named suite's file list to absolute paths rooted at dir.
// It returns an error naming the suite if it doesn't exist in the manifest.
func (m *SuiteManifest) Files(dir, name string) ([]string, error) {
	s, ok := m.Suites[name]
	if !ok {
		return nil, fmt.Errorf("no such suite %q", name)
	}
	out := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		out = append(out, filepath.Join(dir, f))
	}
	return out, nil
}

// EnvOverrides renders a suite's env map as "KEY=VALUE" pairs suitable for
// EnvSpec.Overrides.
func (s Suite) EnvOverrides() []string {
	out := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		out = append(out, k+"="+v)
	}
	return out
}
