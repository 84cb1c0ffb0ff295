package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/navikt/roomstatus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSSEManager(t *testing.T) {
	sseManager := NewSSEManager(nil)
	defer sseManager.Shutdown()

	assert.NotNil(t, sseManager.server)
	assert.True(t, sseManager.server.StreamExists(roomsStream))
	assert.False(t, sseManager.server.AutoReplay)
}

func TestSSEServeHTTP_CORSPreflight(t *testing.T) {
	sseManager := NewSSEManager(nil)
	defer sseManager.Shutdown()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodOptions, "/events", nil)

	sseManager.ServeHTTP(recorder, request)

	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", recorder.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET, OPTIONS", recorder.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestSSERejectsPost(t *testing.T) {
	sseManager := NewSSEManager(nil)
	defer sseManager.Shutdown()

	recorder := httptest.NewRecorder()
	sseManager.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestNotifyRoomUpdateReachesClients(t *testing.T) {
	sseManager := NewSSEManager(nil)
	defer sseManager.Shutdown()

	server := httptest.NewServer(sseManager)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	// the subscriber is registered before the headers are flushed
	sseManager.NotifyRoomUpdate(&models.Room{ID: "5a", Classname: "king"})
	sseManager.NotifyRoomUpdate(&models.Room{ID: "5b", Classname: "queen"})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 6 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	assert.Equal(t, []string{
		"id: 1", "data: king", "event: update",
		"id: 2", "data: queen", "event: update",
	}, lines)

	require.Eventually(t, func() bool { return sseManager.Clients() == 1 }, time.Second, 10*time.Millisecond)
}

func TestNotifyRoomUpdateWithoutClients(t *testing.T) {
	sseManager := NewSSEManager(nil)
	defer sseManager.Shutdown()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			sseManager.NotifyRoomUpdate(&models.Room{ID: "5a", Classname: "king"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyRoomUpdate blocked without subscribers")
	}
}
