package mpris

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by facade calls once the connection has
// released its remote handles.
var ErrNotConnected = errors.New("player not connected")

// PlayerNotFoundError indicates that a player doesn't exist on the bus
// or is not connected.
type PlayerNotFoundError struct {
	Name string
	Err  error
}

func (e *PlayerNotFoundError) Error() string {
	if e.Err != nil {
		return "player not found: " + e.Name + ": " + e.Err.Error()
	}
	return "player not found: " + e.Name
}

func (e *PlayerNotFoundError) Unwrap() error {
	return e.Err
}

// InvalidPlayerNameError indicates that a player name is invalid
type InvalidPlayerNameError struct {
	Name   string
	Reason string
}

func (e *InvalidPlayerNameError) Error() string {
	return "invalid player name: " + e.Reason
}

// ValidationError indicates that a parameter is invalid
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// PropertyTypeError indicates that a player returned a property of an
// unexpected type.
type PropertyTypeError struct {
	Property string
	Value    interface{}
}

func (e *PropertyTypeError) Error() string {
	return fmt.Sprintf("unexpected type %T for property %s", e.Value, e.Property)
}
