package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/logger"
)

func TestMergeConfigFileWithFlags(t *testing.T) {
	flagConf := config.Config{Logger: &logger.LoggerConfig{}}
	flagConf.Registry.Address = "registry:9999"

	result, err := MergeConfigFileWithFlags("", flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if result.Registry.Address != "registry:9999" {
		t.Fatal("unexpected registry address", result.Registry.Address)
	}
	// Untouched values keep their defaults.
	if result.Matcher.Strategy != config.StrategyBipartite {
		t.Fatal("unexpected matcher strategy", result.Matcher.Strategy)
	}

	fileConf := config.DefaultConfig()
	fileConf.Registry.Address = "from-file:1111"
	fileConf.Matcher.Shuffle = true
	y, err := config.ToYaml(fileConf)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, y, 0600); err != nil {
		t.Fatal(err)
	}

	result, err = MergeConfigFileWithFlags(path, flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	// Flag values override file values.
	if result.Registry.Address != "registry:9999" {
		t.Fatal("flag should override file", result.Registry.Address)
	}
	if !result.Matcher.Shuffle {
		t.Fatal("file value should survive the merge")
	}
}

func TestLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	doc := `
ID: job-1
User: alice
Driver: AndroidInstrumentation
Requirements:
  - Type: AndroidRealDevice
    Dimensions:
      sdk_version: "33"
    Decorators:
      - ScreenRecorderDecorator
  - Type: AndroidRealDevice
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	job, err := LoadJob(path)
	if err != nil {
		t.Fatal(err)
	}
	if job.User != "alice" || len(job.Requirements) != 2 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Requirements[0].Dimensions["sdk_version"] != "33" {
		t.Fatal("unexpected dimensions", job.Requirements[0].Dimensions)
	}
}

func TestLoadJobEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("ID: job-1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJob(path); err == nil {
		t.Fatal("expected an error for a job without requirements")
	}
}

func TestLoadLabs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labs.yaml")
	doc := `
- Hostname: lab1.example.com
  Devices:
    - Serial: s1
      Status: IDLE
      Types: [AndroidRealDevice]
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	labs, err := LoadLabs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(labs) != 1 || labs[0].Hostname != "lab1.example.com" || len(labs[0].Devices) != 1 {
		t.Fatalf("unexpected labs: %+v", labs)
	}
}
