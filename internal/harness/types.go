package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion matched.
	Pass bool `json:"pass"`

	// Definition is the name of the definition the scenario ran against.
	Definition string `json:"definition"`

	// Cells are the collected labels, in collection order.
	Cells []string `json:"cells"`

	// Paths are the label paths of the collected cells.
	Paths []string `json:"paths"`

	// Key is the index key of the collected cells. Empty on error.
	Key string `json:"key,omitempty"`

	// Visited counts the skeleton cells the traversal visited.
	Visited int `json:"visited"`

	// ErrorCode is the indexing error code if collection failed.
	ErrorCode string `json:"error_code,omitempty"`

	// RunID identifies the stored run. Empty on error.
	RunID string `json:"run_id,omitempty"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cells:  []string{},
		Paths:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
