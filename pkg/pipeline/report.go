package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/japaniel/namelex/pkg/lexicon"
)

// Report is the YAML record written next to the artifacts.
type Report struct {
	RunID     string           `yaml:"run_id"`
	Started   time.Time        `yaml:"started"`
	Finished  time.Time        `yaml:"finished"`
	TopN      int              `yaml:"top_n"`
	Countries []string         `yaml:"countries"`
	Rejected  []string         `yaml:"rejected,omitempty"`
	Empty     []string         `yaml:"empty,omitempty"`
	Stats     lexicon.Stats    `yaml:"stats"`
	Artifacts []ArtifactReport `yaml:"artifacts"`
}

type ArtifactReport struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
	Bytes  int64  `yaml:"bytes"`
	Error  string `yaml:"error,omitempty"`
}

// NewReport converts a Result into its report form.
func NewReport(res *Result) Report {
	rep := Report{
		RunID:     res.RunID,
		Started:   res.Started.UTC(),
		Finished:  res.Finished.UTC(),
		TopN:      res.TopN,
		Countries: res.Countries,
		Rejected:  res.Rejected,
		Empty:     res.Empty,
		Stats:     res.Stats,
	}
	for _, a := range res.Artifacts {
		ar := ArtifactReport{Format: string(a.Format), Path: a.Path, Bytes: a.Bytes}
		if a.Err != nil {
			ar.Error = a.Err.Error()
		}
		rep.Artifacts = append(rep.Artifacts, ar)
	}
	return rep
}

// WriteReport writes the report for res to path.
func WriteReport(path string, res *Result) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(res)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := yaml.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &rep, nil
}
