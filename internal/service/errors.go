package service

import (
	"errors"
	"fmt"
)

// Sync pipeline steps, used to tag errors with where a sync failed.
const (
	StepDownload  = "download"
	StepParse     = "parse"
	StepReconcile = "reconcile"
	StepMirror    = "mirror"
	StepWrite     = "write"
)

// SyncError wraps a sync pipeline failure with the step it occurred in.
type SyncError struct {
	Step string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// syncErr tags err with the pipeline step. An error already tagged by an
// inner stage keeps its original step.
func syncErr(step string, err error) *SyncError {
	var tagged *SyncError
	if errors.As(err, &tagged) {
		return tagged
	}
	return &SyncError{Step: step, Err: err}
}
