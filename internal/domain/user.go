// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxIDLen = 36

var (
	// ErrStoreUnavailable covers any directory call that could not reach
	// or complete against the backing store within its deadline.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrRoomNotFound     = errors.New("room not found")
)

// UserID is the opaque identity assigned to a connection at handshake.
// Immutable for the lifetime of that connection.
type UserID string
