// internal/server/server.go
package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/kwhittle/quizbuzz/internal/hub"
	"github.com/kwhittle/quizbuzz/internal/identity"
	"github.com/kwhittle/quizbuzz/internal/middleware"
	"github.com/kwhittle/quizbuzz/internal/room"
)

// Server wires the HTTP surface: the websocket room endpoint, the join-link
// QR endpoint, and a ping route. All room logic lives behind the router;
// the server only resolves identity and shuttles commands and snapshots.
type Server struct {
	log       *logrus.Logger
	registry  *room.Registry
	router    *room.Router
	hub       *hub.Hub
	idp       *identity.Provider
	publicURL string
}

// New builds a Server from its injected collaborators. publicURL is the
// externally reachable base address used in join links.
func New(log *logrus.Logger, registry *room.Registry, router *room.Router, h *hub.Hub, idp *identity.Provider, publicURL string) *Server {
	return &Server{
		log:       log,
		registry:  registry,
		router:    router,
		hub:       h,
		idp:       idp,
		publicURL: publicURL,
	}
}

// Handler returns the routed, logging-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := httprouter.New()
	r.GET("/", s.handlePing)
	r.GET("/ws/:code", s.handleWS)
	r.GET("/rooms/:code/qr", s.handleQR)
	return middleware.LogMiddleware(s.log)(r)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
