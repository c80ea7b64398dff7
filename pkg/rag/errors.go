package rag

import (
	"errors"
	"fmt"
)

// Turn-level failure kinds. Blank input is not among them: it degrades to an
// empty context.
var (
	ErrEmbedding       = errors.New("embedding failed")
	ErrRetrieval       = errors.New("catalog retrieval failed")
	ErrModelInvocation = errors.New("language model invocation failed")
)

// Wrap tags err with a failure kind while keeping the cause reachable through
// errors.Is / errors.As.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// IsTurnFailure reports whether err is one of the known turn-level kinds.
func IsTurnFailure(err error) bool {
	return errors.Is(err, ErrEmbedding) ||
		errors.Is(err, ErrRetrieval) ||
		errors.Is(err, ErrModelInvocation)
}
