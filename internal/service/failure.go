package service

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	UploadFailure     FailureKind = "upload_failure"
	GenerationFailure FailureKind = "generation_failure"
	LoadFailure       FailureKind = "load_failure"
	FilterFailure     FailureKind = "filter_failure"
	DeleteFailure     FailureKind = "delete_failure"
)

// Failure is a user-facing error of one dashboard action.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(kind FailureKind, message string, err error) error {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// AsFailure returns the Failure in err's chain, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
