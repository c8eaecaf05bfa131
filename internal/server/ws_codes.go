// internal/server/ws_codes.go
package server

// Custom WebSocket close codes used by the room endpoint. These give the
// client a more specific reason than the standard codes when a connection
// is rejected during the join handshake.
const (
	BadSubprotocolError    = 3000 // Client connected with an unsupported subprotocol.
	HostClaimConflictError = 3001 // Room's host binding is already held by another identity.
	RoomFullError          = 3002 // Roster is at capacity and the caller is a brand-new player.
	BadHandshakeError      = 3003 // First frame was not a valid join command.
)
