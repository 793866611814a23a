package pipeline

import "time"

// Status represents the lifecycle state of a step execution.
type Status string

const (
	// StatusPending marks a step not yet dispatched.
	StatusPending Status = "pending"
	// StatusRunning marks a step currently executing.
	StatusRunning Status = "running"
	// StatusSuccess marks a completed step.
	StatusSuccess Status = "success"
	// StatusFailed marks a step whose attempts were exhausted.
	StatusFailed Status = "failed"
	// StatusSkipped marks an optional step whose validation failed or a
	// conditional with no branch to run.
	StatusSkipped Status = "skipped"
	// StatusRetry marks an attempt that failed with retries remaining.
	StatusRetry Status = "retry"
)

// Result is the immutable outcome of one step invocation. Retry attempts
// happen inside the execution wrapper; only the final outcome is returned.
type Result struct {
	StepName string         `json:"stepName"`
	Status   Status         `json:"status"`
	Err      error          `json:"-"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration"`
	Metadata map[string]any `json:"metadata,omitempty"`
	// Children holds sub-results for composite steps.
	Children []*Result `json:"children,omitempty"`
	// Required records the executed unit's policy so parents know whether
	// a failure escalates.
	Required bool `json:"required"`
}

// IsSuccess reports whether the step completed.
func (r *Result) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}

// IsFailed reports whether the step failed.
func (r *Result) IsFailed() bool {
	return r != nil && r.Status == StatusFailed
}

// IsSkipped reports whether the step was skipped.
func (r *Result) IsSkipped() bool {
	return r != nil && r.Status == StatusSkipped
}

func newSuccess(name, message string) *Result {
	return &Result{StepName: name, Status: StatusSuccess, Message: message}
}

func newSkipped(name, message string) *Result {
	return &Result{StepName: name, Status: StatusSkipped, Message: message}
}

func newFailed(name string, err error) *Result {
	message := ""
	if err != nil {
		message = err.Error()
	}

	return &Result{StepName: name, Status: StatusFailed, Err: err, Message: message}
}
