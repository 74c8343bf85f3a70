package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameStream(t *testing.T) {
	h := NewHub(1, 30, 1000, func() string { return "running" })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))

	var topo Topology
	require.NoError(t, c.ReadJSON(&topo))
	assert.Equal(t, Topology{Type: "topology", NumLEDs: 1, FPS: 30}, topo)
	require.Eventually(t, func() bool { return clients(h) == 1 }, 2*time.Second, time.Millisecond)

	h.Publish(2, []byte{1, 2, 3})
	var f Frame
	require.NoError(t, c.ReadJSON(&f))
	assert.Equal(t, "frame", f.Type)
	assert.Equal(t, uint64(1), f.ID)
	assert.Equal(t, 2, f.Index)
	assert.Equal(t, []byte{1, 2, 3}, f.GRB)

	h.Report(Diagnostic{Severity: Err, Code: "ANIM.FAIL", Summary: "write failed"})
	var d Diagnostic
	require.NoError(t, c.ReadJSON(&d))
	assert.Equal(t, Diagnostic{Type: "diag", Severity: Err, Code: "ANIM.FAIL", Summary: "write failed"}, d)
}

func clients(h *Hub) int {
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var hs Health
	if err := json.Unmarshal(rec.Body.Bytes(), &hs); err != nil {
		return -1
	}
	return hs.Clients
}

func TestClientRegistersAfterTopology(t *testing.T) {
	h := NewHub(2, 30, 100, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))

	var topo Topology
	require.NoError(t, c.ReadJSON(&topo))
	assert.Equal(t, 2, topo.NumLEDs)
	require.Eventually(t, func() bool { return clients(h) == 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return clients(h) == 0 }, 2*time.Second, time.Millisecond)
}

func TestPublishThrottles(t *testing.T) {
	h := NewHub(1, 30, 0.001, nil)
	for i := 0; i < 10; i++ {
		h.Publish(i, []byte{0, 0, 0})
	}
	assert.Len(t, h.queue, 1, "only the burst passes the limiter")
}

func TestHealth(t *testing.T) {
	h := NewHub(4, 60, 10, func() string { return "stopped" })
	h.Publish(0, make([]byte, 12))

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var hs Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hs))
	assert.Equal(t, Health{State: "stopped", NumLEDs: 4, FPS: 60, Frames: 1}, hs)
}
