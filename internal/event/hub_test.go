package event

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dialHub connects a test client to the hub and closes it on cleanup.
func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(srv.URL, "http", "ws", 1)
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	return conn
}

// readMessage reads and decodes one envelope from the connection.
func readMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg.Event, msg.Data
}

// waitForClients polls until the hub reports the wanted client count.
func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients, have %d", want, hub.ClientCount())
}

func TestHub_BroadcastLog(t *testing.T) {
	hub := NewHub(testLogger())
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Log("job-1", "Extracting audio...")

	event, data := readMessage(t, conn)
	assert.Equal(t, EventJobLog, event)

	var payload LogPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "job-1", payload.JobID)
	assert.Equal(t, "Extracting audio...", payload.Message)
}

func TestHub_BroadcastProgress(t *testing.T) {
	hub := NewHub(testLogger())
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Progress("job-1", 42)

	event, data := readMessage(t, conn)
	assert.Equal(t, EventJobProgress, event)

	var payload ProgressPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "job-1", payload.JobID)
	assert.Equal(t, 42, payload.Progress)
}

func TestHub_BroadcastUpdate(t *testing.T) {
	hub := NewHub(testLogger())
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Update("job-1", false, map[string]string{"id": "job-1", "status": "RUNNING"})

	event, data := readMessage(t, conn)
	assert.Equal(t, EventJobUpdate, event)
	assert.Contains(t, string(data), "RUNNING")
}

func TestHub_ReplaysActiveJobsToNewClients(t *testing.T) {
	hub := NewHub(testLogger())

	// State accumulates before any client connects.
	hub.Update("job-1", false, map[string]string{"id": "job-1", "status": "RUNNING"})
	hub.Log("job-1", "Extracting audio...")
	hub.Log("job-1", "Analyzing silences...")

	conn := dialHub(t, hub)

	event, data := readMessage(t, conn)
	assert.Equal(t, EventJobUpdate, event)
	assert.Contains(t, string(data), "job-1")

	event, data = readMessage(t, conn)
	assert.Equal(t, EventJobLog, event)
	assert.Contains(t, string(data), "Extracting audio...")

	event, data = readMessage(t, conn)
	assert.Equal(t, EventJobLog, event)
	assert.Contains(t, string(data), "Analyzing silences...")
}

func TestHub_TerminalUpdateClearsReplayState(t *testing.T) {
	hub := NewHub(testLogger())

	hub.Update("job-1", false, map[string]string{"id": "job-1", "status": "RUNNING"})
	hub.Log("job-1", "Extracting audio...")
	hub.Update("job-1", true, map[string]string{"id": "job-1", "status": "COMPLETED"})

	conn := dialHub(t, hub)

	// Nothing should be replayed; the read must time out.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err := conn.Read(ctx)
	assert.Error(t, err)
}

func TestHub_LogWithoutActiveJobIsNotRetained(t *testing.T) {
	hub := NewHub(testLogger())

	// No job:update has been seen for this ID, so the line is broadcast
	// but never stored.
	hub.Log("job-ghost", "orphan line")

	hub.jobsMu.RLock()
	defer hub.jobsMu.RUnlock()
	assert.Empty(t, hub.activeJobs)
}

func TestHub_LogHistoryIsBounded(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Update("job-1", false, map[string]string{"id": "job-1"})

	for i := 0; i < maxLogHistory+50; i++ {
		hub.Log("job-1", fmt.Sprintf("line %d", i))
	}

	hub.jobsMu.RLock()
	defer hub.jobsMu.RUnlock()
	st := hub.activeJobs["job-1"]
	require.NotNil(t, st)
	assert.Len(t, st.logLines, maxLogHistory)
	// The oldest lines were dropped.
	assert.Contains(t, string(st.logLines[0]), "line 50")
}

func TestHub_ClientCountTracksDisconnect(t *testing.T) {
	hub := NewHub(testLogger())
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, hub, 0)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}

	// Must be safe to call without any setup.
	p.Log("job-1", "message")
	p.Progress("job-1", 50)
	p.Update("job-1", true, nil)
}
