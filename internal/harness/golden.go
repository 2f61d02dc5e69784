package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// SQLSnapshot renders the compiled SQL of every store run in result, in run
// order. Each entry is the query label, the fragment, then one "<type>
// <value>" line per parameter.
func SQLSnapshot(result *Result) []byte {
	var b strings.Builder
	for _, o := range result.Outcomes {
		if o.SQL == "" {
			continue
		}
		fmt.Fprintf(&b, "# %s\n%s\n", o.Name, o.SQL)
		for _, p := range o.Params {
			fmt.Fprintf(&b, "%T %v\n", p, p)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares the compiled SQL against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Query mismatches fail t, and
// so does a snapshot that differs from the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, SQLSnapshot(result))

	return result, nil
}
