package cbt

import "errors"

var (
	// ErrInvalidStateTransition means the action is not allowed in the controller's current state.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrUnknownQuestionID means a ledger operation named a question outside the active session.
	ErrUnknownQuestionID = errors.New("unknown question id")
	// ErrEmptyQuestionSet means configure produced no usable questions; no session was created.
	ErrEmptyQuestionSet = errors.New("empty question set")
	ErrInvalidConfig    = errors.New("invalid session config")
	ErrInvalidOption    = errors.New("invalid answer option")
)
