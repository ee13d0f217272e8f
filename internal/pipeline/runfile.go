// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// RunFile is the on-disk snapshot of one collection pass: the deduplicated
// records plus run statistics. Useful for previewing a digest without
// sending it, and for inspecting what a scheduled run saw.
type RunFile struct {
	Since       time.Time            `yaml:"since"`
	RanAt       time.Time            `yaml:"ran_at"`
	Counts      map[types.Source]int `yaml:"counts"`
	Warnings    []string             `yaml:"warnings,omitempty"`
	DupsRemoved int                  `yaml:"dups_removed"`
	Records     []types.PaperRecord  `yaml:"records"`
}

// WriteRunFile saves a collection pass to a YAML file.
func WriteRunFile(path string, records []types.PaperRecord, report Report) error {
	rf := RunFile{
		Since:       report.Since,
		RanAt:       report.RanAt,
		Counts:      report.Counts,
		Warnings:    report.Warnings,
		DupsRemoved: report.DupsRemoved,
		Records:     records,
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a previously saved run file from disk.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}
