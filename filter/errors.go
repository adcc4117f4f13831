package filter

import (
	"fmt"
)

type (
	// CompilationError indicates an expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates an expression failed against a record
	EvaluationError struct {
		Expression string
		Index      int // -1 for a single record
		Err        error
	}

	// QueryError indicates a JMESPath query could not be compiled or run
	QueryError struct {
		Query  string
		Reason string
		Err    error
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("evaluation error for '%s' on record %d: %v", e.Expression, e.Index, e.Err)
	}
	return fmt.Sprintf("evaluation error for '%s': %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query '%s': %s: %v", e.Query, e.Reason, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
