package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentpool/internal/util"
)

// Run validates the arguments, executes the wrapped function (with a
// deadline when configured) and stringifies the result for the transcript.
//
// Error semantics:
//
//	validation failure -> *ValidationError
//	function error     -> *ExecError
//	deadline exceeded  -> *TimeoutError
//
// With PolicyReturnError any of the above is converted into a sentinel
// output string returned with a nil error, so the agent loop continues
// instead of aborting.
func (t *Tool) Run(ctx context.Context, args map[string]any) (string, error) {
	spec := make(map[string]string, len(t.params))
	for k, v := range t.params {
		spec[k] = string(v)
	}
	if err := util.ValidateArgs(args, spec); err != nil {
		return t.fail(err)
	}

	result, err := t.execute(ctx, args)
	if err != nil {
		return t.fail(err)
	}
	return util.Stringify(result), nil
}

// execute invokes the wrapped function, bounding it with the configured
// timeout. The call runs in its own goroutine so Run can abandon it at the
// deadline; the function receives the deadline-carrying context and is
// expected to stop once it observes cancellation.
func (t *Tool) execute(ctx context.Context, args map[string]any) (any, error) {
	if t.timeout <= 0 {
		result, err := t.fn(ctx, args)
		if err != nil {
			return nil, &ExecError{Tool: t.name, Err: err}
		}
		return result, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := t.fn(callCtx, args)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if callCtx.Err() == context.DeadlineExceeded {
				return nil, &TimeoutError{Tool: t.name, Timeout: t.timeout}
			}
			return nil, &ExecError{Tool: t.name, Err: out.err}
		}
		return out.result, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// Caller cancellation, not a tool timeout.
			return nil, &ExecError{Tool: t.name, Err: ctx.Err()}
		}
		return nil, &TimeoutError{Tool: t.name, Timeout: t.timeout}
	}
}

// fail applies the error policy: raise the error, or degrade it to a
// sentinel output string describing the failure.
func (t *Tool) fail(err error) (string, error) {
	if t.onError != PolicyReturnError {
		return "", err
	}
	if tErr, ok := err.(*TimeoutError); ok {
		return fmt.Sprintf("Error: tool '%s' timed out after %s", t.name, tErr.Timeout), nil
	}
	return fmt.Sprintf("Error executing tool '%s': %v", t.name, err), nil
}
