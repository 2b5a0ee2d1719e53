package chart

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch classifies network and transport failures while loading a dataset.
	ErrFetch = errors.New("fetch failed")

	// ErrInvalidData classifies payloads or points that are present but malformed.
	ErrInvalidData = errors.New("invalid data")

	// ErrEmptyDataset is returned when an operation needs at least one point.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInvalidArgument classifies caller mistakes such as a negative count.
	ErrInvalidArgument = errors.New("invalid argument")
)

// FetchError reports a failed dataset retrieval.
type FetchError struct {
	URI    string
	Status int // HTTP status when the server answered, 0 otherwise
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URI, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// InvalidDataError reports a malformed payload or point.
// Index is -1 when the error concerns the payload as a whole.
type InvalidDataError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidDataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid data: %s", e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid data at point %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid data at point %d (%s): %s", e.Index, e.Field, e.Reason)
}

// Is matches ErrInvalidData.
func (e *InvalidDataError) Is(target error) bool { return target == ErrInvalidData }

// InvalidArgumentError reports a rejected argument.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Reason)
}

// Is matches ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
