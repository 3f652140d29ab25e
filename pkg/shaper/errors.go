package shaper

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds; every typed error below matches one of them with errors.Is.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrStepValidation  = errors.New("step validation failed")
	ErrStepExecution   = errors.New("step execution failed")
	ErrPipelineAborted = errors.New("pipeline aborted")
)

// ConfigurationError reports malformed or missing settings.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration")
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
func (e *ConfigurationError) Unwrap() error        { return e.Err }

// UnknownTemplateError is returned when a registry lookup misses.
type UnknownTemplateError struct {
	Name  string
	Known []string
}

func (e *UnknownTemplateError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown template %q", e.Name)
	}
	return fmt.Sprintf("unknown template %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownTemplateError) Is(target error) bool { return target == ErrUnknownTemplate }

// StepValidationError is implemented by every error a step raises when one of
// its preconditions does not hold.
type StepValidationError interface {
	error
	StepKind() string
}

// MissingColumnError reports a referenced column that the frame does not have.
type MissingColumnError struct {
	Step   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %q", e.Step, e.Column)
}

func (e *MissingColumnError) StepKind() string     { return e.Step }
func (e *MissingColumnError) Is(target error) bool { return target == ErrStepValidation }

// InvalidParameterError reports a structurally invalid bound parameter.
type InvalidParameterError struct {
	Step   string
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: invalid parameter %s: %s", e.Step, e.Param, e.Reason)
}

func (e *InvalidParameterError) StepKind() string     { return e.Step }
func (e *InvalidParameterError) Is(target error) bool { return target == ErrStepValidation }

// ValidationError is raised by validating steps when cell values break a rule.
type ValidationError struct {
	Step   string
	Column string
	Count  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: column %s has %d %s", e.Step, e.Column, e.Count, e.Reason)
}

func (e *ValidationError) StepKind() string     { return e.Step }
func (e *ValidationError) Is(target error) bool { return target == ErrStepValidation }

// StepExecutionError wraps a step failure with its position in the pipeline.
type StepExecutionError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepExecutionError) Is(target error) bool { return target == ErrStepExecution }
func (e *StepExecutionError) Unwrap() error        { return e.Err }

// PipelineAbortedError is what a template surfaces when its run stops short.
type PipelineAbortedError struct {
	Template string
	Err      error
}

func (e *PipelineAbortedError) Error() string {
	return fmt.Sprintf("template %q aborted: %v", e.Template, e.Err)
}

func (e *PipelineAbortedError) Is(target error) bool { return target == ErrPipelineAborted }
func (e *PipelineAbortedError) Unwrap() error        { return e.Err }

// Missing is shorthand for a *MissingColumnError.
func Missing(step, column string) error {
	return &MissingColumnError{Step: step, Column: column}
}

// InvalidParam is shorthand for an *InvalidParameterError.
func InvalidParam(step, param, format string, args ...any) error {
	return &InvalidParameterError{Step: step, Param: param, Reason: fmt.Sprintf(format, args...)}
}

// RequireColumns returns a *MissingColumnError for the first name f lacks.
func RequireColumns(step string, f *Frame, names ...string) error {
	for _, n := range names {
		if !f.HasColumn(n) {
			return Missing(step, n)
		}
	}
	return nil
}
