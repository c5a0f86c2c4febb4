package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flockwork-sim/flockwork-sim/sim/epidemic"
)

// RunFile is the --config YAML: the run parameters plus how to build the initial network.
// Unknown keys are rejected so that typos fail loudly.
type RunFile struct {
	epidemic.Config `yaml:",inline"`

	Edges       string  `yaml:"edges"`       // path to an "i j" edge list
	ERP         float64 `yaml:"er_p"`        // Erdos-Renyi edge probability when no edge list is given
	Replicas    int     `yaml:"replicas"`    // independent runs
	Parallelism int     `yaml:"parallelism"` // concurrent replicas; 0 uses GOMAXPROCS
}

// loadRunFile parses path with strict field checking.
func loadRunFile(path string) (RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunFile{}, fmt.Errorf("read config: %w", err)
	}
	return parseRunFile(data)
}

func parseRunFile(data []byte) (RunFile, error) {
	var rf RunFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rf); err != nil {
		return RunFile{}, fmt.Errorf("parse config YAML: %w", err)
	}
	return rf, nil
}
