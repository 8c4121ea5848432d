package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks a fatal precondition failure: a required column is
	// absent or the input Dataset is empty.
	ErrPrecondition = errors.New("precondition failed")

	// ErrEmptyDataset is returned when a stage receives a Dataset with no rows.
	ErrEmptyDataset = fmt.Errorf("%w: dataset is empty", ErrPrecondition)

	// ErrContract is returned when a step's output does not match the columns
	// it declares to add or remove.
	ErrContract = errors.New("step contract violated")

	// ErrNotFound is returned by a Dataset source when the requested table does not exist.
	ErrNotFound = errors.New("not found")
)

// MissingColumnsError reports required columns absent at a stage or step entry.
type MissingColumnsError struct {
	Stage   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Stage, strings.Join(e.Columns, ", "))
}

// Is makes MissingColumnsError match ErrPrecondition.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrPrecondition
}

// StepError wraps an error returned by a pipeline step.
type StepError struct {
	Step     string
	Position int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Position, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
