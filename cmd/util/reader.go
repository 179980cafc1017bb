package util

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/labfleet/labfleet/fleet"
)

// LoadJob reads a YAML job document from the given path.
func LoadJob(path string) (*fleet.Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %v", err)
	}
	job := &fleet.Job{}
	if err := yaml.Unmarshal(raw, job); err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %v", path, err)
	}
	if len(job.Requirements) == 0 {
		return nil, fmt.Errorf("job file %s declares no device requirements", path)
	}
	return job, nil
}

// LoadLabs reads a YAML list of labs with their device snapshots from the
// given path.
func LoadLabs(path string) ([]*fleet.Lab, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labs file: %v", err)
	}
	var labs []*fleet.Lab
	if err := yaml.Unmarshal(raw, &labs); err != nil {
		return nil, fmt.Errorf("failed to parse labs file %s: %v", path, err)
	}
	return labs, nil
}
