package migrate

import (
	"encoding/json"
	"time"
)

// Report describes one upgrade pass.
type Report struct {
	RunID string       `json:"run_id"`
	From  int          `json:"from"`
	To    int          `json:"to"`
	Steps []StepRecord `json:"steps,omitempty"`
}

// StepRecord describes what a single migration did to the tree. Paths are
// dotted leaf paths.
type StepRecord struct {
	Version  int           `json:"version"`
	Name     string        `json:"name,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Added    []string      `json:"added,omitempty"`
	Changed  []string      `json:"changed,omitempty"`
	Removed  []string      `json:"removed,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Applied returns the versions of the steps that ran, in order.
func (r Report) Applied() []int {
	var versions []int
	for _, step := range r.Steps {
		if !step.Skipped {
			versions = append(versions, step.Version)
		}
	}
	return versions
}

// Changed reports whether the pass moved the version or ran any step.
func (r Report) Changed() bool {
	return r.To != r.From || len(r.Applied()) > 0
}

// ToJSON serialises the report for logging or persistence next to the state.
func (r Report) ToJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(alias(r))
}

// ReportFromJSON deserialises a payload produced by ToJSON.
func ReportFromJSON(payload []byte) (Report, error) {
	type alias Report
	var report alias
	if err := json.Unmarshal(payload, &report); err != nil {
		return Report{}, err
	}
	return Report(report), nil
}
