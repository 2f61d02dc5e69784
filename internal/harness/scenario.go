package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/engine"
)

// Scenario defines a conformance test scenario: a catalog, the nodes to
// store, and the queries to run against them.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the CUE catalog directory.
	// Relative paths are resolved against the scenario file location.
	Catalog string `yaml:"catalog"`

	// Nodes are saved in one batch before any query runs.
	Nodes []NodeStep `yaml:"nodes"`

	// Queries run in order against the saved nodes.
	Queries []QueryStep `yaml:"queries"`
}

// NodeStep describes one node to store.
type NodeStep struct {
	// ID is "<graph>.<Type>/<uuid>".
	ID string `yaml:"id"`

	Code   string `yaml:"code"`
	URI    string `yaml:"uri,omitempty"`
	Number int64  `yaml:"number,omitempty"`

	// Created and Modified default to the next deterministic clock tick.
	Created  *time.Time `yaml:"created,omitempty"`
	Modified *time.Time `yaml:"modified,omitempty"`

	Properties map[string][]domain.LangValue `yaml:"properties,omitempty"`

	// References map attribute ids to target ids in the ID format.
	References map[string][]string `yaml:"references,omitempty"`
}

// QueryStep is one query with its expected outcome.
type QueryStep struct {
	// Name labels the query in errors and golden files. Defaults to Where.
	Name string `yaml:"name,omitempty"`

	// Type is the viewing type as "<graph>.<Type>". Required unless Search.
	Type string `yaml:"type,omitempty"`

	// Where is the query text.
	Where string `yaml:"where"`

	// Search applies Where across all types through the index.
	Search bool `yaml:"search,omitempty"`

	// Backends restricts the backends a typed query runs on.
	Backends []string `yaml:"backends,omitempty"`

	// Expect lists node codes in key order.
	Expect []string `yaml:"expect,omitempty"`

	// Unordered compares Expect ignoring order.
	Unordered bool `yaml:"unordered,omitempty"`

	// Count is the expected number of matches.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected QueryError code.
	Error string `yaml:"error,omitempty"`
}

// Label returns the query name, falling back to its text.
func (q QueryStep) Label() string {
	if q.Name != "" {
		return q.Name
	}
	return q.Where
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving the catalog path relative
// to baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "querys:" vs "queries:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the catalog path BEFORE validation
	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && baseDir != "" {
		scenario.Catalog = filepath.Join(baseDir, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if info, err := os.Stat(s.Catalog); err != nil || !info.IsDir() {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("nodes[%d]: id is required", i)
		}
	}

	for i, q := range s.Queries {
		if err := validateQuery(i, &q); err != nil {
			return err
		}
	}

	return nil
}

// validateQuery validates a single query step.
func validateQuery(index int, q *QueryStep) error {
	if q.Search && q.Type != "" {
		return fmt.Errorf("queries[%d]: search queries take no type", index)
	}
	if !q.Search && q.Type == "" {
		return fmt.Errorf("queries[%d]: type is required", index)
	}

	expectations := 0
	if q.Expect != nil {
		expectations++
	}
	if q.Count != nil {
		expectations++
	}
	if q.Error != "" {
		expectations++
	}
	if expectations != 1 {
		return fmt.Errorf("queries[%d]: exactly one of expect, count or error is required", index)
	}

	for _, b := range q.Backends {
		backend, err := engine.ParseBackend(b)
		if err != nil || backend == engine.BackendAuto {
			return fmt.Errorf("queries[%d]: unknown backend %q", index, b)
		}
	}
	if q.Search && len(q.Backends) > 0 {
		return fmt.Errorf("queries[%d]: search queries always run on the index", index)
	}

	return nil
}
