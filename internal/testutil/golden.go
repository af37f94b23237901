// Package testutil provides shared test helpers for dscript tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// ScenariosDir is the conformance scenario root, relative to the module root.
const ScenariosDir = "testdata/conformance"

// ScriptFile is the script every scenario directory contains.
const ScriptFile = "script.ds"

// Scenario is one conformance case loaded from scenario.json.
type Scenario struct {
	Mode          string            `json:"mode,omitempty"`
	MaxCallDepth  int               `json:"maxCallDepth,omitempty"`
	ErrorCallback string            `json:"errorCallback,omitempty"`
	Entry         string            `json:"entry,omitempty"`
	Args          []json.RawMessage `json:"args,omitempty"`
	Initial       json.RawMessage   `json:"initial,omitempty"`
	Meta          *ScenarioMeta     `json:"meta,omitempty"`
	Expect        ExpectedResult    `json:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Tags []string `json:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of a scenario. Snapshot is
// compared byte for byte after compaction, so key order matters; Bindings is
// a subset match on the decoded snapshot.
type ExpectedResult struct {
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	Bindings  json.RawMessage `json:"bindings,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
	ErrorLine int             `json:"errorLine,omitempty"`
	Message   string          `json:"messageContains,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under root in name order.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.json")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ReadScript reads the scenario's script file.
func ReadScript(scenarioDir string) (string, error) {
	source, err := os.ReadFile(filepath.Join(scenarioDir, ScriptFile))
	if err != nil {
		return "", err
	}
	return string(source), nil
}

// IsSubset reports whether expected is contained in actual. Maps match when
// every expected key matches; arrays match element-wise on a prefix.
func IsSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists || !IsSubset(ev, av) {
				return false
			}
		}
		return true
	case []any:
		a, ok := actual.([]any)
		if !ok || len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !IsSubset(ev, a[i]) {
				return false
			}
		}
		return true
	case nil:
		return actual == nil
	default:
		return expected == actual
	}
}
