// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side effects) with
// schema validated arguments, an optional execution deadline and a
// configurable error policy.
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentpool/internal/util"
)

// ParamType names the expected JSON type of a declared tool parameter.
type ParamType string

const (
	// String accepts JSON strings.
	String ParamType = "string"
	// Int accepts whole JSON numbers.
	Int ParamType = "int"
	// Float accepts any JSON number.
	Float ParamType = "float"
	// Bool accepts JSON booleans.
	Bool ParamType = "bool"
	// Array accepts JSON arrays.
	Array ParamType = "array"
	// Object accepts JSON objects.
	Object ParamType = "object"
	// Any disables type checking for the parameter.
	Any ParamType = "any"
)

// ErrorPolicy controls what Run does when validation, execution or the
// timeout fails.
type ErrorPolicy string

const (
	// PolicyRaise returns the failure as an error (the default).
	PolicyRaise ErrorPolicy = "raise"
	// PolicyReturnError converts the failure into a sentinel output string
	// returned with a nil error so the agent loop continues normally.
	PolicyReturnError ErrorPolicy = "return_error"
)

// Func is the signature of a tool implementation. Arguments arrive already
// validated against the declared parameter types. The returned value may be
// any JSON-serializable type; Run stringifies it for the transcript.
//
// Implementations should honor ctx cancellation: when a timeout is
// configured, Run abandons the call at the deadline but the function itself
// keeps running until it observes ctx.Done().
type Func func(ctx context.Context, args map[string]any) (any, error)

// ValidationError is returned when supplied arguments do not match the
// declared parameter types.
type ValidationError = util.ValidationError

// ExecError wraps a failure returned by the underlying tool function.
type ExecError struct {
	Tool string
	Err  error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("tool '%s' failed: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExecError) Unwrap() error { return e.Err }

// TimeoutError is returned when a tool call exceeds its configured deadline.
// It is distinct from ExecError so callers can tell a hung dependency apart
// from a genuine failure.
type TimeoutError struct {
	Tool    string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool '%s' timed out after %s", e.Tool, e.Timeout)
}

// Tool wraps a user function with a declared parameter schema, an optional
// timeout and an error policy. A Tool has no internal mutable state after
// construction and is safe for concurrent use.
type Tool struct {
	name        string
	description string
	params      map[string]ParamType
	fn          Func
	timeout     time.Duration
	onError     ErrorPolicy
}

// Option customizes a Tool at construction.
type Option func(*Tool)

// WithTimeout sets the execution deadline for the wrapped function. Zero
// (the default) means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) { t.timeout = d }
}

// WithErrorPolicy sets how Run reports failures. The default is PolicyRaise.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(t *Tool) { t.onError = p }
}

// New constructs a Tool from a name, a short description shown to models, a
// parameter type map and the implementation function.
func New(name, description string, params map[string]ParamType, fn Func, opts ...Option) *Tool {
	t := &Tool{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
		onError:     PolicyRaise,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name returns the unique tool identifier used in tool-call JSON.
func (t *Tool) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *Tool) Description() string { return t.description }

// Parameters returns a copy of the declared parameter type map.
func (t *Tool) Parameters() map[string]ParamType {
	out := make(map[string]ParamType, len(t.params))
	for k, v := range t.params {
		out[k] = v
	}
	return out
}

// Timeout returns the configured execution deadline (zero when unset).
func (t *Tool) Timeout() time.Duration { return t.timeout }

// ErrorPolicy returns the configured failure policy.
func (t *Tool) ErrorPolicy() ErrorPolicy { return t.onError }
