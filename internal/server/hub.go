package server

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/terralab/landform/internal/config"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/model"
)

// Msg is the wire format in both directions. Requests carry type
// "start", "stop", or "status"; responses carry "started", "frame",
// "done", "stopped", "status", or "error".
type Msg struct {
	Type string `json:"type"`

	// request side
	Model      string  `json:"model,omitempty"`
	Preset     string  `json:"preset,omitempty"`
	Stop       float64 `json:"stop,omitempty"`
	FrameEvery int     `json:"frame_every,omitempty"`

	// response side
	Time      float64            `json:"time,omitempty"`
	Step      int                `json:"step,omitempty"`
	Rows      int                `json:"rows,omitempty"`
	Cols      int                `json:"cols,omitempty"`
	Elevation []float64          `json:"elevation,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Running   bool               `json:"running,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// hub owns one websocket connection and at most one running model.
// All writes funnel through the out channel; gorilla connections do not
// allow concurrent writers.
type hub struct {
	conn *websocket.Conn
	cfg  *config.Config
	log  *logrus.Entry

	out    chan Msg
	closed chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func newHub(conn *websocket.Conn, cfg *config.Config, log *logrus.Entry) *hub {
	return &hub{
		conn:   conn,
		cfg:    cfg,
		log:    log,
		out:    make(chan Msg, 16),
		closed: make(chan struct{}),
	}
}

// send queues a message unless the connection has already gone away.
func (h *hub) send(msg Msg) {
	select {
	case h.out <- msg:
	case <-h.closed:
	}
}

func (h *hub) run() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case msg := <-h.out:
				if err := h.conn.WriteJSON(&msg); err != nil {
					h.log.WithError(err).Debug("write failed")
					return
				}
			case <-h.closed:
				return
			}
		}
	}()

	for {
		var req Msg
		if err := h.conn.ReadJSON(&req); err != nil {
			break
		}
		h.handle(req)
	}

	h.stopRun()
	close(h.closed)
	<-done
}

// stopRun cancels the in-flight run, if any.
func (h *hub) stopRun() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *hub) handle(req Msg) {
	switch req.Type {
	case "start":
		h.startRun(req)
	case "stop":
		h.stopRun()
		h.send(Msg{Type: "stopped"})
	case "status":
		h.mu.Lock()
		running := h.running
		h.mu.Unlock()
		h.send(Msg{Type: "status", Running: running})
	default:
		h.send(Msg{Type: "error", Error: "unknown message type: " + req.Type})
	}
}

func (h *hub) startRun(req Msg) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		h.send(Msg{Type: "error", Error: "a run is already in progress"})
		return
	}

	cfg := h.runConfig(req)
	sim, err := model.NewFromConfig(cfg, nil)
	if err != nil {
		h.mu.Unlock()
		h.send(Msg{Type: "error", Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.running = true
	h.mu.Unlock()

	frameEvery := req.FrameEvery
	if frameEvery < 1 {
		frameEvery = 10
	}
	h.send(Msg{Type: "started", Model: sim.Name()})
	go h.stream(ctx, sim, frameEvery)
}

// runConfig copies the server config with per-request overrides applied.
func (h *hub) runConfig(req Msg) *config.Config {
	cfg := *h.cfg
	if req.Preset != "" {
		if p := config.GetPreset(req.Model, req.Preset); p != nil {
			cfg = *p
		}
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.Stop > 0 {
		cfg.Clock.Stop = req.Stop
	}
	return &cfg
}

func (h *hub) stream(ctx context.Context, sim model.Model, frameEvery int) {
	defer func() {
		h.mu.Lock()
		h.running = false
		h.cancel = nil
		h.mu.Unlock()
	}()

	em := sim.Base()
	for em.Time() < em.Clock.Stop {
		select {
		case <-ctx.Done():
			return
		default:
		}

		dt := em.Clock.Step
		if em.Time()+dt > em.Clock.Stop {
			dt = em.Clock.Stop - em.Time()
		}
		if err := sim.RunOneStep(dt); err != nil {
			h.send(Msg{Type: "error", Error: err.Error()})
			return
		}
		if em.StepCount()%frameEvery == 0 {
			h.send(h.frame(sim, "frame"))
		}
	}
	h.send(h.frame(sim, "done"))
}

func (h *hub) frame(sim model.Model, typ string) Msg {
	em := sim.Base()
	z, _ := em.Grid.Field(grid.FieldElevation)
	elev := make([]float64, len(z))
	copy(elev, z)
	return Msg{
		Type:      typ,
		Time:      em.Time(),
		Step:      em.StepCount(),
		Rows:      em.Grid.Rows,
		Cols:      em.Grid.Cols,
		Elevation: elev,
		Metrics:   em.MetricValues(),
	}
}
