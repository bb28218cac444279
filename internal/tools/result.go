package tools

// Result is the unified return type from tool execution.
type Result struct {
	ForLLM  string `json:"for_llm"`            // content sent to the LLM
	ForUser string `json:"for_user,omitempty"` // content shown to the user
	Silent  bool   `json:"silent"`             // suppress user message
	IsError bool   `json:"is_error"`           // execution failure
	Blocked bool   `json:"blocked"`            // rejected by sandbox policy
	Err     error  `json:"-"`                  // internal error (not serialized)
}

func NewResult(forLLM string) *Result {
	return &Result{ForLLM: forLLM}
}

func SilentResult(forLLM string) *Result {
	return &Result{ForLLM: forLLM, Silent: true}
}

// ErrorResult marks an execution failure. The model sees the message and is
// expected to adapt; the loop keeps running.
func ErrorResult(message string) *Result {
	return &Result{ForLLM: "Error: " + message, IsError: true}
}

// BlockedResult marks a policy rejection. Not an execution error: the model
// receives the reason as an ordinary tool result.
func BlockedResult(reason string) *Result {
	return &Result{ForLLM: "Blocked: " + reason, Blocked: true}
}

func (r *Result) WithError(err error) *Result {
	r.Err = err
	return r
}

// OK reports whether the call succeeded (neither failed nor blocked).
func (r *Result) OK() bool {
	return !r.IsError && !r.Blocked
}
