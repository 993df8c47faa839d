package harness

// Trace operation names.
const (
	OpRegister   = "register"
	OpUnregister = "unregister"
	OpSearch     = "search"
)

// TraceEvent records one directory operation performed by a scenario.
type TraceEvent struct {
	Op          string   `json:"op"`
	Kind        string   `json:"kind"`
	Key         string   `json:"key,omitempty"`
	Description string   `json:"description,omitempty"`
	Query       string   `json:"query,omitempty"`
	SearchID    string   `json:"search_id,omitempty"`
	Seq         int64    `json:"seq,omitempty"`
	Keys        []string `json:"keys,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every search returned its expected keys and the
	// final counts matched.
	Pass bool `json:"pass"`

	// Trace contains every operation in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
