package ogimage

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageInput  Stage = "input"
	StageFont   Stage = "font"
	StageLayout Stage = "layout"
	StageRender Stage = "render"
	StageEncode Stage = "encode"
)

// ErrNilRoot is returned for a request without a node tree.
var ErrNilRoot = errors.New("ogimage: request has no root node")

// StageError wraps the first failure of a render with the stage it came
// from. The cause stays reachable through errors.As and errors.Is.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ogimage: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: s, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err did not come
// from a render.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
