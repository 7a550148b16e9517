package app

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/dungeonsheet/internal/services/sheet/push"
)

// observerHandler accepts a websocket connection that observes exactly one
// character, the one named by the path. Registration happens only after the
// handshake succeeded; every exit path unsubscribes the peer.
func (s *Server) observerHandler() http.Handler {
	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		s.handleObserver(conn)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		characterID := strings.TrimSpace(r.PathValue("characterID"))
		if characterID == "" {
			http.Error(w, "character id is required", http.StatusBadRequest)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
}

func (s *Server) handleObserver(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	request := conn.Request()
	if request == nil {
		return
	}
	characterID := strings.TrimSpace(request.PathValue("characterID"))
	if characterID == "" {
		return
	}

	peer := push.NewPeer(json.NewEncoder(conn))
	s.hub.Subscribe(characterID, peer)
	defer s.hub.Unsubscribe(characterID, peer)

	log.Printf("sheet: observer connected characterID=%s remote=%s", characterID, request.RemoteAddr)

	// Observers never send meaningful frames; inbound bytes are drained to
	// keep the connection alive and to notice the close promptly.
	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			log.Printf("sheet: observer disconnected characterID=%s remote=%s", characterID, request.RemoteAddr)
			return
		}
	}
}
