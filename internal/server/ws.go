// internal/server/ws.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/kwhittle/quizbuzz/internal/hub"
	"github.com/kwhittle/quizbuzz/internal/middleware"
	"github.com/kwhittle/quizbuzz/internal/room"
)

const (
	// Subprotocol all clients must speak.
	Subprotocol = "quizbuzz"

	handshakeTimeout = 30 * time.Second
	writeTimeout     = 5 * time.Second
	pingInterval     = 30 * time.Second
)

const (
	RoleHost   = "host"
	RolePlayer = "player"
)

// inboundFrame is the wire envelope: an action tag plus the payload fields
// at the top level. The raw frame is handed to room.DecodeCommand, which
// validates each action's fields explicitly.
type inboundFrame struct {
	Action string `json:"action"`
	Role   string `json:"role"`
}

// handleWS runs one client connection: resolve identity, upgrade, perform
// the join handshake, then pump commands in and snapshots out until the
// client goes away. Disconnects never mutate room state.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	code := room.NormalizeCode(p.ByName("code"))
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}
	remoteAddr := r.RemoteAddr

	// Identity must be resolved before the upgrade hijacks the response,
	// or a freshly minted cookie would never reach the client.
	callerID, err := s.idp.Ensure(w, r)
	if err != nil {
		s.log.Warnf("identity resolution failed for %s: %v", remoteAddr, err)
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the quizbuzz subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	role, err := s.handshake(ctx, c, code, callerID)
	if err != nil {
		// handshake already closed the socket with a specific code
		return
	}

	sub := hub.NewSubscriber(callerID, role)

	// One-time message telling the client who it is before any snapshot.
	sub.Write(map[string]interface{}{
		"type": "welcome",
		"role": role,
		"id":   callerID.String(),
		"room": code,
	})
	// The seed snapshot is read at subscribe time, not reused from the
	// handshake dispatch: another client may have mutated the room in
	// between, and the subscriber must start from the latest state.
	s.hub.Subscribe(code, sub, s.registry.GetOrCreate(code).Snapshot())
	middleware.LogWebSocketConnect(s.log, remoteAddr, code, role)

	go s.writePump(ctx, c, sub)
	readErr := s.readPump(ctx, c, code, callerID, sub)

	s.hub.Unsubscribe(code, sub)
	cancel()
	middleware.LogWebSocketDisconnect(s.log, remoteAddr, code, readErr)
}

// handshake reads the first client frame, which must be a join command
// naming a role. Hosts claim the room's host binding; players enter the
// roster. Claim conflicts and full rooms close the connection, so a
// rejected claimant never holds a live view of the room.
func (s *Server) handshake(ctx context.Context, c *websocket.Conn, code string, callerID uuid.UUID) (string, error) {
	hsCtx, hsCancel := context.WithTimeout(ctx, handshakeTimeout)
	defer hsCancel()

	typ, data, err := c.Read(hsCtx)
	if err != nil {
		return "", err
	}
	if typ != websocket.MessageText {
		c.Close(BadHandshakeError, "first frame must be a text join command")
		return "", errors.New("non-text handshake frame")
	}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Action != "join" {
		c.Close(BadHandshakeError, "first frame must be a join command")
		return "", errors.New("invalid handshake frame")
	}

	role := frame.Role
	if role == "" {
		role = RolePlayer
	}

	switch role {
	case RoleHost:
		if _, err := s.router.Dispatch(code, callerID, room.ClaimHost{}); err != nil {
			if errors.Is(err, room.ErrHostAlreadyClaimed) {
				c.Close(HostClaimConflictError, "host already claimed")
			} else {
				c.Close(websocket.StatusPolicyViolation, err.Error())
			}
			return "", err
		}
		return RoleHost, nil
	case RolePlayer:
		cmd, err := room.DecodeCommand("join", data)
		if err != nil {
			c.Close(BadHandshakeError, "join requires a name")
			return "", err
		}
		if _, err := s.router.Dispatch(code, callerID, cmd); err != nil {
			if errors.Is(err, room.ErrRoomFull) {
				c.Close(RoomFullError, "room is full")
			} else {
				c.Close(websocket.StatusPolicyViolation, err.Error())
			}
			return "", err
		}
		return RolePlayer, nil
	default:
		c.Close(BadHandshakeError, "role must be host or player")
		return "", errors.New("invalid role")
	}
}

// readPump decodes inbound frames into commands and dispatches them.
// Rejections go back to this subscriber only; accepted commands reach
// everyone through the hub.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, code string, callerID uuid.UUID, sub *hub.Subscriber) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			sub.WriteError("invalid JSON")
			continue
		}

		cmd, err := room.DecodeCommand(frame.Action, data)
		if err != nil {
			sub.WriteError(err.Error())
			continue
		}

		if _, err := s.router.Dispatch(code, callerID, cmd); err != nil {
			sub.WriteError(rejectionMessage(err))
		}
	}
}

// rejectionMessage maps internal errors to the wire-level rejection signals.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrHostAlreadyClaimed):
		return "HostAlreadyClaimed"
	case errors.Is(err, room.ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, room.ErrNotHost):
		return "Unauthorized"
	default:
		return err.Error()
	}
}

// writePump drains the subscriber's queue onto the socket and keeps the
// connection alive with periodic pings.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, sub *hub.Subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.log.Warnf("failed to marshal outgoing msg for %v: %v", sub.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
