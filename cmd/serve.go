package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/fleet-sim/fleet-sim/sim"
)

// Observer message types.
const (
	MsgTypeSnapshot = "SNAPSHOT"
	MsgTypeReset    = "RESET"
)

// SnapshotMsg is broadcast to every observer after each frame and each reset.
type SnapshotMsg struct {
	Type     string       `json:"type"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

// ControlMsg is sent by an observer. One RESET message applies one reset.
type ControlMsg struct {
	Type string `json:"type"`
}

var (
	serveAddr string
	serveFPS  int
)

// observer is one websocket connection.
type observer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the simulator for the serve command. Advance, Reset and Snapshot
// all run under one lock, so observers never see a half-applied reset.
type Hub struct {
	mu  sync.Mutex
	sim *sim.Simulator

	observersMu sync.Mutex
	observers   map[*observer]struct{}

	upgrader websocket.Upgrader
}

// NewHub wraps s for concurrent access from the frame loop and observers.
func NewHub(s *sim.Simulator) *Hub {
	return &Hub{
		sim:       s,
		observers: make(map[*observer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Step advances the simulator by delta seconds and broadcasts the new state.
// The frame is queued before the lock is released, so observers receive
// frames in simulation order even when a reset races the frame loop.
func (h *Hub) Step(delta float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.sim.Advance(delta); err != nil {
		return err
	}
	h.broadcast(h.sim.Snapshot())
	return nil
}

// Reset restarts the simulation epoch and broadcasts the fresh state.
func (h *Hub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sim.Reset()
	h.broadcast(h.sim.Snapshot())
}

// Snapshot returns the current state.
func (h *Hub) Snapshot() sim.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sim.Snapshot()
}

// Run steps the simulator fps times per second with the measured wall-clock
// delta until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("invalid fps %d: must be > 0", fps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			if err := h.Step(delta); err != nil {
				return err
			}
		}
	}
}

func encodeSnapshot(snap sim.Snapshot) ([]byte, error) {
	return json.Marshal(SnapshotMsg{Type: MsgTypeSnapshot, Snapshot: snap})
}

// broadcast queues snap for every observer. Slow observers drop frames.
// Callers hold h.mu.
func (h *Hub) broadcast(snap sim.Snapshot) {
	b, err := encodeSnapshot(snap)
	if err != nil {
		logrus.Errorf("encoding snapshot: %v", err)
		return
	}
	h.observersMu.Lock()
	defer h.observersMu.Unlock()
	for o := range h.observers {
		select {
		case o.send <- b:
		default:
			logrus.Debugf("observer %s lagging; dropped frame at t=%.4f", o.conn.RemoteAddr(), snap.Clock)
		}
	}
}

// register adds o and queues the current state as its first message.
func (h *Hub) register(o *observer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := encodeSnapshot(h.sim.Snapshot())
	if err != nil {
		return err
	}
	h.observersMu.Lock()
	defer h.observersMu.Unlock()
	h.observers[o] = struct{}{}
	o.send <- b
	return nil
}

func (h *Hub) unregister(o *observer) {
	h.observersMu.Lock()
	defer h.observersMu.Unlock()
	if _, ok := h.observers[o]; ok {
		delete(h.observers, o)
		close(o.send)
	}
}

// SnapshotHandler serves the current state as JSON.
func (h *Hub) SnapshotHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(SnapshotMsg{Type: MsgTypeSnapshot, Snapshot: h.Snapshot()})
	}
}

// WSHandler upgrades to a websocket, streams snapshots, and applies RESET messages.
func (h *Hub) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		o := &observer{conn: conn, send: make(chan []byte, 64)}
		if err := h.register(o); err != nil {
			logrus.Errorf("registering observer: %v", err)
			return
		}
		defer h.unregister(o)
		logrus.Infof("observer %s connected", conn.RemoteAddr())

		// Writer goroutine.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for b := range o.send {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		// Reader loop: control messages only.
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var ctl ControlMsg
			if err := json.Unmarshal(msg, &ctl); err != nil {
				logrus.Debugf("observer %s: ignoring malformed message: %v", conn.RemoteAddr(), err)
				continue
			}
			switch ctl.Type {
			case MsgTypeReset:
				logrus.Infof("observer %s requested reset", conn.RemoteAddr())
				h.Reset()
			default:
				logrus.Debugf("observer %s: ignoring message type %q", conn.RemoteAddr(), ctl.Type)
			}
		}

		h.unregister(o)
		select {
		case <-writerDone:
		case <-time.After(500 * time.Millisecond):
		}
		logrus.Infof("observer %s disconnected", conn.RemoteAddr())
	}
}

// serveCmd runs the simulation in real time and streams it to websocket observers
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation in real time and stream snapshots over websocket",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, _, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		hub := NewHub(s)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub.WSHandler())
		mux.Handle("/snapshot", hub.SnapshotHandler())
		srv := &http.Server{Addr: serveAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := hub.Run(ctx, serveFPS); err != nil {
				logrus.Errorf("frame loop stopped: %v", err)
				stop()
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logrus.Infof("Serving %d robots, %d tasks at %d fps on http://%s/ws", cfg.NumRobots, cfg.NumTasks, serveFPS, serveAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("serve: %v", err)
		}
		logrus.Info("Server stopped.")
	},
}

func init() {
	registerSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().IntVar(&serveFPS, "fps", 30, "Frames per second of the real-time driver")

	rootCmd.AddCommand(serveCmd)
}
