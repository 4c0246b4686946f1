// Copyright 2025 The condastack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package report maintains the YAML run summary. The summary is rewritten
// after every recipe so a crashed run still leaves a usable record.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/condastackdev/condastack/internal/errors"
	"gopkg.in/yaml.v3"
)

const timestampFormat = "2006-01-02T15:04:05"

// PackageInfo records a package that was found on the destination channel or
// built during the run.
type PackageInfo struct {
	Name          string `yaml:"name"`
	Version       string `yaml:"version"`
	BuildString   string `yaml:"build-string"`
	BuildDuration string `yaml:"build-duration,omitempty"`
}

// SkippedInfo records a recipe that was not processed on this platform.
type SkippedInfo struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
}

// ErrorInfo records a recipe that failed.
type ErrorInfo struct {
	Name  string `yaml:"name"`
	Error string `yaml:"error"`
}

// Summary is the YAML document written as the run log.
type Summary struct {
	Version     string            `yaml:"version"`
	Args        map[string]string `yaml:"args"`
	Found       []PackageInfo     `yaml:"found"`
	Built       []PackageInfo     `yaml:"built"`
	Skipped     []SkippedInfo     `yaml:"skipped"`
	Errors      []ErrorInfo       `yaml:"errors"`
	StartTime   string            `yaml:"start_time"`
	EndTime     string            `yaml:"end_time,omitempty"`
	Duration    string            `yaml:"duration,omitempty"`
	LastUpdated string            `yaml:"last_updated"`
}

// New returns a Summary for a run starting now. args holds the run's
// flags and arguments for the record; secrets must already be redacted by
// the caller.
func New(toolVersion string, args map[string]string, start time.Time) *Summary {
	return &Summary{
		Version:   toolVersion,
		Args:      args,
		StartTime: start.Format(timestampFormat),
	}
}

func (s *Summary) RecordFound(info PackageInfo) {
	s.Found = append(s.Found, info)
}

func (s *Summary) RecordBuilt(info PackageInfo) {
	s.Built = append(s.Built, info)
}

func (s *Summary) RecordSkipped(name, reason string) {
	s.Skipped = append(s.Skipped, SkippedInfo{Name: name, Reason: reason})
}

func (s *Summary) RecordError(name string, err error) {
	s.Errors = append(s.Errors, ErrorInfo{Name: name, Error: err.Error()})
}

// Finish stamps the end time and duration.
func (s *Summary) Finish(start, end time.Time) {
	s.EndTime = end.Format(timestampFormat)
	s.Duration = end.Sub(start).Round(time.Second).String()
}

// WriteFile writes the summary to path, refreshing the last-updated stamp.
func (s *Summary) WriteFile(path string) error {
	const op errors.Op = "report.WriteFile"
	s.LastUpdated = time.Now().Format(timestampFormat)
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.E(op, errors.YAML, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.E(op, errors.IO, err)
	}
	return nil
}

// String renders the summary as YAML for display at the end of a run.
func (s *Summary) String() string {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("error rendering summary: %v", err)
	}
	return string(data)
}

// OutputPath resolves the summary file location. logfile may be empty (a
// timestamped name in the working directory), an existing directory (a
// timestamped name inside it), or a file path.
func OutputPath(logfile string, start time.Time) (string, error) {
	const op errors.Op = "report.OutputPath"
	defaultName := start.Format("20060102-150405") + "_build_out.yaml"

	if logfile == "" {
		abs, err := filepath.Abs(defaultName)
		if err != nil {
			return "", errors.E(op, errors.IO, err)
		}
		return abs, nil
	}

	abs, err := filepath.Abs(logfile)
	if err != nil {
		return "", errors.E(op, errors.IO, err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return filepath.Join(abs, defaultName), nil
	}
	return abs, nil
}
