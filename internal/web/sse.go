package web

import (
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/models"
)

// roomsStream is the single stream every board subscribes to
const roomsStream = "rooms"

// SSEManager pushes "update" events to connected boards whenever a room changes
type SSEManager struct {
	server  *sse.Server
	logger  *zap.Logger
	eventID atomic.Uint64
	clients atomic.Int64
}

// NewSSEManager creates a new server-sent events manager
func NewSSEManager(logger *zap.Logger) *SSEManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SSEManager{logger: logger}

	server := sse.New()
	// boards re-render on connect, so no replay
	server.AutoReplay = false
	server.Headers = map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Cache-Control":               "no-cache, no-transform",
		"X-Accel-Buffering":           "no", // Disable nginx proxy buffering
	}
	server.OnSubscribe = func(streamID string, sub *sse.Subscriber) {
		n := sm.clients.Add(1)
		logger.Debug("SSE client connected", zap.String("stream", streamID), zap.Int64("clients", n))
	}
	server.OnUnsubscribe = func(streamID string, sub *sse.Subscriber) {
		n := sm.clients.Add(-1)
		logger.Debug("SSE client disconnected", zap.String("stream", streamID), zap.Int64("clients", n))
	}
	server.CreateStream(roomsStream)

	sm.server = server
	return sm
}

// ServeHTTP implements the http.Handler interface for SSE connections
func (sm *SSEManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Handle CORS preflight
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// boards connect to /events without naming a stream
	r2 := r.Clone(r.Context())
	u := *r.URL
	q := url.Values{}
	q.Set("stream", roomsStream)
	u.RawQuery = q.Encode()
	r2.URL = &u

	sm.server.ServeHTTP(w, r2)
}

// NotifyRoomUpdate tells every connected board that a room has new intervals.
// It never blocks the caller; if the stream buffer is full the event is dropped.
func (sm *SSEManager) NotifyRoomUpdate(room *models.Room) {
	id := sm.eventID.Add(1)
	event := &sse.Event{
		ID:    []byte(strconv.FormatUint(id, 10)),
		Event: []byte("update"),
		Data:  []byte(room.Classname),
	}

	if !sm.server.TryPublish(roomsStream, event) {
		sm.logger.Warn("dropped SSE update", zap.String("room", room.Classname), zap.Uint64("event_id", id))
		return
	}
	sm.logger.Debug("published SSE update", zap.String("room", room.Classname), zap.Uint64("event_id", id))
}

// Clients returns the number of connected boards
func (sm *SSEManager) Clients() int64 {
	return sm.clients.Load()
}

// Shutdown closes the stream and disconnects every client
func (sm *SSEManager) Shutdown() {
	sm.server.Close()
}
