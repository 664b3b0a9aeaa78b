package feed

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dwelly/negotiation-service/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin is enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the session to the hub.
// The caller has already authenticated userID; an optional ?cursor=
// query resumes the session, replaying anything it missed.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.WithError(err).Warn("Feed upgrade failed")
		return
	}

	c := newClient(h, userID, conn)
	h.register(c)

	// Queue missed events before live traffic so a resumed session
	// sees its own stream in order. Duplicates across the boundary are
	// fine; consumers re-apply by row id. The batch is capped at the
	// session buffer, so every frame fits; a bigger miss comes back as
	// a single reset frame instead of a truncated resume.
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		for _, frame := range h.replay(userID, cursor, cap(c.send)) {
			if c.trySend(frame) {
				continue
			}
			// A concurrent publish raced the replay into a full
			// buffer. Drop the session; it reconnects and resumes
			// from its cursor rather than missing the tail.
			c.Close()
			return
		}
	}

	go c.writePump()
	go c.readPump()
}
