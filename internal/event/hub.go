// Package event delivers job lifecycle events to connected UI clients
// over websockets.
package event

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
)

// Event names understood by the web UI.
const (
	// EventJobLog carries one human-readable log line for a job.
	EventJobLog = "job:log"
	// EventJobProgress carries a progress percentage for a job.
	EventJobProgress = "job:progress"
	// EventJobUpdate carries a full job snapshot on every status change.
	EventJobUpdate = "job:update"
)

// maxLogHistory bounds the per-job log lines retained for replay.
const maxLogHistory = 100

// Publisher is the port through which the processing pipeline emits
// user-facing events.
type Publisher interface {
	// Log emits one log line for a job.
	Log(jobID, message string)
	// Progress emits the current progress percentage for a job.
	Progress(jobID string, percent int)
	// Update emits a job snapshot. Terminal updates clear the job's
	// replay state.
	Update(jobID string, terminal bool, snapshot any)
}

// Message is the envelope every websocket frame carries.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// LogPayload is the data carried by a job:log event.
type LogPayload struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// ProgressPayload is the data carried by a job:progress event.
type ProgressPayload struct {
	JobID    string `json:"job_id"`
	Progress int    `json:"progress"`
}

// jobState is what the hub retains per running job so a newly connected
// client can catch up mid-run.
type jobState struct {
	lastUpdate json.RawMessage
	logLines   []json.RawMessage
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to connected websocket clients and replays the
// state of running jobs to clients that connect mid-run.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	jobsMu     sync.RWMutex
	activeJobs map[string]*jobState
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]bool),
		activeJobs: make(map[string]*jobState),
	}
}

// Log broadcasts a job:log event and records the line for replay while
// the job is active.
func (h *Hub) Log(jobID, message string) {
	raw, err := json.Marshal(Message{
		Event: EventJobLog,
		Data:  LogPayload{JobID: jobID, Message: message},
	})
	if err != nil {
		return
	}

	h.jobsMu.Lock()
	if st, ok := h.activeJobs[jobID]; ok {
		st.logLines = append(st.logLines, raw)
		if len(st.logLines) > maxLogHistory {
			st.logLines = st.logLines[1:]
		}
	}
	h.jobsMu.Unlock()

	h.broadcast(raw)
}

// Progress broadcasts a job:progress event.
func (h *Hub) Progress(jobID string, percent int) {
	raw, err := json.Marshal(Message{
		Event: EventJobProgress,
		Data:  ProgressPayload{JobID: jobID, Progress: percent},
	})
	if err != nil {
		return
	}
	h.broadcast(raw)
}

// Update broadcasts a job:update event. Non-terminal snapshots are
// retained for replay to new clients; terminal ones clear the entry.
func (h *Hub) Update(jobID string, terminal bool, snapshot any) {
	raw, err := json.Marshal(Message{
		Event: EventJobUpdate,
		Data:  snapshot,
	})
	if err != nil {
		return
	}

	h.jobsMu.Lock()
	if terminal {
		delete(h.activeJobs, jobID)
	} else {
		st, ok := h.activeJobs[jobID]
		if !ok {
			st = &jobState{}
			h.activeJobs[jobID] = st
		}
		st.lastUpdate = raw
	}
	h.jobsMu.Unlock()

	h.broadcast(raw)
}

// broadcast sends raw bytes to every client without blocking. Clients
// that cannot keep up drop messages rather than stall the pipeline.
func (h *Hub) broadcast(raw []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- raw:
		default:
		}
	}
}

// replay sends the retained state of every active job to one client.
func (h *Hub) replay(c *client) {
	h.jobsMu.RLock()
	defer h.jobsMu.RUnlock()
	for _, st := range h.activeJobs {
		if st.lastUpdate != nil {
			select {
			case c.send <- st.lastUpdate:
			default:
			}
		}
		for _, line := range st.logLines {
			select {
			case c.send <- line:
			default:
			}
		}
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.addClient(c)
	h.replay(c)
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())

	ctx := r.Context()

	// Writer goroutine
	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range c.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and detects disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.removeClient(c)
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Log(string, string)       {}
func (NopPublisher) Progress(string, int)     {}
func (NopPublisher) Update(string, bool, any) {}

// Verify interface implementations at compile time.
var (
	_ Publisher = (*Hub)(nil)
	_ Publisher = NopPublisher{}
)
