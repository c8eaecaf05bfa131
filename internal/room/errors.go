// internal/room/errors.go
package room

import "errors"

// Rejection errors surfaced privately to the offending caller. They are
// never broadcast; the room state is unchanged whenever one is returned.
var (
	// ErrHostAlreadyClaimed is returned when a second, different identity
	// attempts to claim a room whose host binding is already set.
	ErrHostAlreadyClaimed = errors.New("host already claimed")

	// ErrRoomFull is returned when a brand-new player (or bot) would push
	// the roster past the room's capacity bound.
	ErrRoomFull = errors.New("room is full")

	// ErrNotHost is returned when a host-only command arrives from an
	// identity that does not hold the room's host binding.
	ErrNotHost = errors.New("caller is not the room host")

	// ErrUnknownCommand is returned by DecodeCommand for unrecognized or
	// malformed inbound actions.
	ErrUnknownCommand = errors.New("unknown command")
)
