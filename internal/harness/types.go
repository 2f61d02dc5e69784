package harness

// QueryOutcome is what one query returned on one backend.
type QueryOutcome struct {
	Name    string   `json:"name"`
	Backend string   `json:"backend"`
	Codes   []string `json:"codes"`
	Count   int      `json:"count"`
	Error   string   `json:"error,omitempty"`

	// SQL and Params hold the compiled fragment for store runs.
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every query outcome matched its expectation.
	Pass bool `json:"pass"`

	// Outcomes holds one entry per query and backend, in run order.
	Outcomes []QueryOutcome `json:"outcomes"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []QueryOutcome{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
