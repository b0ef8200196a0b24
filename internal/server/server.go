package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/terralab/landform/internal/config"
)

// Server exposes model runs over a websocket at /ws. Each connection gets
// its own hub and its own model instance.
type Server struct {
	addr     string
	cfg      *config.Config
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func New(addr string, cfg *config.Config, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		addr: addr,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.WithField("component", "server"),
	}
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	hub := newHub(conn, s.cfg, s.log)
	hub.run()
}

// Serve blocks on the listener. Returns only on listener failure.
func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	s.log.WithField("addr", s.addr).Info("listening")
	return http.ListenAndServe(s.addr, mux)
}
