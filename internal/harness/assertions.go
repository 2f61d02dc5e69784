package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when a query outcome does not match its
// expectation. It includes detailed context to help debug the failure.
type AssertionError struct {
	Query    string // Query label
	Backend  string // Backend the query ran on, empty if it never ran
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "query %q", e.Query)
	if e.Backend != "" {
		fmt.Fprintf(&buf, " on %s", e.Backend)
	}
	fmt.Fprintf(&buf, ": expected %s, got %s", e.Expected, e.Actual)

	return buf.String()
}

// checkOutcome compares one outcome with the query's expectation.
func checkOutcome(q QueryStep, o QueryOutcome) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Query: o.Name, Backend: o.Backend, Expected: expected, Actual: actual}
	}

	if q.Error != "" {
		if o.Error != q.Error {
			return fail("error "+q.Error, describe(o))
		}
		return nil
	}
	if o.Error != "" {
		return fail("success", "error "+o.Error)
	}

	if q.Count != nil && o.Count != *q.Count {
		return fail(fmt.Sprintf("count %d", *q.Count), fmt.Sprintf("count %d", o.Count))
	}

	if q.Expect != nil {
		want, got := q.Expect, o.Codes
		if q.Unordered {
			want, got = sorted(want), sorted(got)
		}
		if !slices.Equal(want, got) {
			return fail(fmt.Sprintf("%v", q.Expect), fmt.Sprintf("%v", o.Codes))
		}
	}
	return nil
}

func describe(o QueryOutcome) string {
	if o.Error != "" {
		return "error " + o.Error
	}
	return fmt.Sprintf("codes %v", o.Codes)
}

func sorted(codes []string) []string {
	out := slices.Clone(codes)
	slices.Sort(out)
	return out
}
