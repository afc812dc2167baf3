package model

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a chunk's slots are not declared by its type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrBufferBusy is returned when a buffer's module already has a pending request.
	ErrBufferBusy = errors.New("buffer busy")
	// ErrRetrievalFailure marks a retrieval whose best activation fell below threshold.
	ErrRetrievalFailure = errors.New("retrieval failure")
	// ErrEmptyQueue signals that the scheduler has no more work.
	ErrEmptyQueue = errors.New("empty queue")
	// ErrUnknownBuffer is returned for operations on a buffer that was never declared.
	ErrUnknownBuffer = errors.New("unknown buffer")
	// ErrWrongModule is returned when a module writes a buffer it is not bound to.
	ErrWrongModule = errors.New("buffer bound to another module")
	// ErrUnknownChunk is returned when a chunk handle does not exist in the store.
	ErrUnknownChunk = errors.New("unknown chunk")
)

// RuleParseError reports malformed production text.
type RuleParseError struct {
	Rule   string
	Clause string
	Line   int
	Reason string
}

func (e *RuleParseError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("rule %q: line %d: %s", e.Rule, e.Line, e.Reason)
	}
	return fmt.Sprintf("rule %q: clause %q (line %d): %s", e.Rule, e.Clause, e.Line, e.Reason)
}
