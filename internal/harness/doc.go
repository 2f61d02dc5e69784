// Package harness provides conformance testing for nodeql queries.
//
// The harness loads a CUE catalog, stores a fixed set of nodes, and runs
// where-clause queries through every backend that can execute them. A
// scenario passes when each backend returns the expected node codes.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: ../catalog          # CUE directory, relative to this file
//	nodes:
//	  - id: acme.Person/00000000-0000-0000-0000-000000000001
//	    code: PERSON-1
//	    properties:
//	      name: [{lang: en, value: John Smith}]
//	    references:
//	      knows: [acme.Person/00000000-0000-0000-0000-000000000002]
//	queries:
//	  - type: acme.Person
//	    where: "p.name:john"
//	    expect: [PERSON-1]
//	  - type: acme.Person
//	    where: "p.name:john smith"
//	    error: PARSE
//	  - search: true
//	    where: "p.name:john"
//	    expect: [PERSON-1]
//	    unordered: true
//
// # Expectations
//
// Each query states exactly one of:
//
//   - expect: node codes in key order (any order with unordered: true)
//   - count: the number of matches
//   - error: the QueryError code the query fails with
//
// Without a backends list, a typed query runs on the index and, when its
// resolved tree compiles to SQL, also on the store. Search queries always run
// on the index.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite database and an
// in-memory index. Node audit dates default to a deterministic clock
// (testutil.DeterministicClock), so compiled SQL is stable across runs and
// can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
