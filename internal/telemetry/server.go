// Package telemetry exposes the same per-tuner signal metrics the
// terminal Display consumes to any connected websocket client, one JSON
// object per websocket text message. Optional: only constructed when the operator
// passes --telemetry-addr.
package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Update is one tuner's telemetry sample, broadcast to every connected
// client as a single JSON text message.
type Update struct {
	Tuner      int `json:"tuner"`
	LevelPct   int `json:"level_pct"`
	QualityPct int `json:"quality_pct"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts websocket connections on /ws and broadcasts every
// Publish call to all of them as a JSON text message.
type Server struct {
	log    zerolog.Logger
	server *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds a Server bound to addr. It does not start listening until
// Start is called.
func New(log zerolog.Logger, addr string) *Server {
	s := &Server{
		log:     log,
		clients: map[*websocket.Conn]struct{}{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.server = &http.Server{Addr: addr, Handler: mux}

	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("telemetry server stopped")
		}
	}()
}

// Close shuts down the HTTP server and disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = map[*websocket.Conn]struct{}{}
	s.mu.Unlock()

	_ = s.server.Close()
}

// Publish broadcasts one Update to every connected client. Write
// failures just drop that client; they are never fatal to the caller.
func (s *Server) Publish(update Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("telemetry websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// drain reads so the connection's close frame is observed, per
	// gorilla/websocket's documented server loop shape.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
