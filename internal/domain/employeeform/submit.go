package employeeform

import (
	"context"
	"log/slog"
	"time"

	"hrconsole/internal/hrapi"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateBlocked    State = "blocked"
	StateAssembling State = "assembling"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

func (s State) inFlight() bool {
	return s == StateValidating || s == StateAssembling || s == StateSubmitting
}

// Result is the outcome of one submit cycle.
type Result struct {
	State       State             `json:"state"`
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	EmployeeID  string            `json:"employeeId,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Issues      Issues            `json:"issues,omitempty"`
}

// Submit runs one submit cycle. Pending duplicate-field errors or constraint
// issues block it without a network call; otherwise exactly one write is made
// and never retried. The draft survives every outcome, but after a success it
// cannot be submitted again until Reset.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if err := f.checkOpen(); err != nil {
		f.mu.Unlock()
		return Result{}, err
	}
	if f.state.inFlight() {
		f.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	if f.submitted {
		f.mu.Unlock()
		return Result{}, ErrAlreadySubmitted
	}
	f.state = StateValidating
	personal, employment := f.personal, f.employment
	f.mu.Unlock()

	// Let checks for values typed just before submit land first.
	if err := personal.Flush(ctx); err != nil {
		return f.abort(err)
	}
	if err := employment.Flush(ctx); err != nil {
		return f.abort(err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Result{}, ErrClosed
	}
	if fieldErrors := f.fieldErrors.Snapshot(); len(fieldErrors) > 0 {
		return f.finishLocked(Result{State: StateBlocked, Message: "Please fix the highlighted fields before saving.", FieldErrors: fieldErrors}), nil
	}
	if issues := ValidateDraft(f.draft); len(issues) > 0 {
		return f.finishLocked(Result{State: StateBlocked, Message: "Please fix the highlighted fields before saving.", Issues: issues}), nil
	}

	f.state = StateAssembling
	sub, err := BuildSubmission(f.draft)
	if err != nil {
		f.state = StateIdle
		f.mu.Unlock()
		return Result{}, err
	}
	sub.EmployeeID = f.employeeID
	sub.ActorID = f.session.UserID
	f.state = StateSubmitting
	f.mu.Unlock()

	slog.Info("employee submit started", "employeeId", sub.EmployeeID, "userId", sub.ActorID, "documents", len(sub.Documents), "files", len(sub.Files))
	callCtx := ctx
	if timeout := f.deps.Options.RemoteTimeout; timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	written, err := f.deps.Gateway.SaveEmployee(callCtx, sub.EmployeeID, sub)

	f.mu.Lock()
	if err != nil || !written.Success {
		message := hrapi.ServerMessage(err)
		if err == nil {
			message = written.Message
		}
		if message == "" {
			message = FallbackFailureMessage
		}
		slog.Warn("employee submit failed", "employeeId", sub.EmployeeID, "err", err, "durationMs", time.Since(start).Milliseconds())
		return f.finishLocked(Result{State: StateFailed, Message: message}), nil
	}

	employeeID := written.ID.String()
	if employeeID == "" {
		employeeID = sub.EmployeeID
	}
	slog.Info("employee submit succeeded", "employeeId", employeeID, "durationMs", time.Since(start).Milliseconds())
	f.submitted = true
	return f.finishLocked(Result{State: StateSucceeded, Success: true, Message: written.Message, EmployeeID: employeeID}), nil
}

// finishLocked records the terminal result and returns the form to idle. It
// releases the lock.
func (f *Form) finishLocked(result Result) Result {
	f.state = StateIdle
	f.lastResult = &result
	f.mu.Unlock()
	f.deps.recorder().Submission(string(result.State))
	return result
}

func (f *Form) abort(err error) (Result, error) {
	f.mu.Lock()
	f.state = StateIdle
	f.mu.Unlock()
	return Result{}, err
}

// State reports whether a submit cycle is running.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
