package harness

import (
	"os"
	"path/filepath"
	"slices"
)

// SuiteResult summarizes a run over many scenario files.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that failed to load, run or pass.
type ScenarioFailure struct {
	Name         string   `json:"name,omitempty"`
	ScenarioPath string   `json:"scenario_path"`
	Errors       []string `json:"errors"`
}

// FindScenarios walks dir and returns all .yaml and .yml files, sorted.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if !info.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// RunFiles loads and runs every scenario file. A file that fails to load
// counts as a failed scenario; the run continues with the next file.
func RunFiles(paths []string) *SuiteResult {
	suite := &SuiteResult{}
	for _, path := range paths {
		suite.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(ScenarioFailure{ScenarioPath: path, Errors: []string{err.Error()}})
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.fail(ScenarioFailure{Name: scenario.Name, ScenarioPath: path, Errors: []string{err.Error()}})
			continue
		}
		if !result.Pass {
			suite.fail(ScenarioFailure{Name: scenario.Name, ScenarioPath: path, Errors: result.Errors})
			continue
		}
		suite.Passed++
	}
	return suite
}

func (s *SuiteResult) fail(f ScenarioFailure) {
	s.Failed++
	s.Failures = append(s.Failures, f)
}
