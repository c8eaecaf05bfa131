// internal/server/qr.go
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/kwhittle/quizbuzz/internal/room"
)

const qrSize = 256

// handleQR renders a PNG QR code pointing at the player join URL for a
// room, so a host can put it on screen and let players scan in.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	code := room.NormalizeCode(p.ByName("code"))
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	url := fmt.Sprintf("%s/join/%s", strings.TrimRight(s.publicURL, "/"), code)
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		s.log.WithField("room", code).Warnf("failed to encode QR: %v", err)
		http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
