package models

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceNotFound reports that no catalog entry reached the match threshold.
	ErrServiceNotFound = errors.New("service not found")
	// ErrNotImplemented reports a recognised intent with no query path yet.
	ErrNotImplemented = errors.New("intent not implemented")
)

// ClassificationError reports classifier output that could not be turned into an intent.
type ClassificationError struct {
	Raw string
	Err error
}

func (e *ClassificationError) Error() string {
	if e.Err == nil {
		return "classification failed"
	}
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// TimeRangeError reports a time expression that no interpreter understood.
type TimeRangeError struct {
	Expression string
}

func (e *TimeRangeError) Error() string {
	return fmt.Sprintf("cannot interpret time range %q", e.Expression)
}

// AdapterError reports a failed external call for one directive.
type AdapterError struct {
	Source   DataSourceID
	Function string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Function, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
