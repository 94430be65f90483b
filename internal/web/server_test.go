package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/autorecruit/internal/models"
	"github.com/blockedby/autorecruit/internal/repository"
)

type mockHistory struct {
	runs  []models.Run
	stats *repository.DashboardStats
}

func (m *mockHistory) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	return m.runs, nil
}

func (m *mockHistory) Stats(ctx context.Context) (*repository.DashboardStats, error) {
	return m.stats, nil
}

func newTestServer(t *testing.T, history HistorySource, hub *Hub) *httptest.Server {
	t.Helper()
	srv, err := NewServer(&Config{Port: 0}, history, hub)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_HealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Version)
}

func TestServer_Dashboard(t *testing.T) {
	finished := time.Now().UTC()
	run := models.Run{
		ID:         uuid.New(),
		Source:     "recruiters.xlsx",
		Planned:    2,
		Sent:       1,
		Failed:     1,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: &finished,
	}
	ts := newTestServer(t, &mockHistory{
		runs:  []models.Run{run},
		stats: &repository.DashboardStats{TotalRuns: 1, Sent: 1, Failed: 1, UniqueContacts: 2},
	}, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "recruiters.xlsx")
	assert.Contains(t, html, "/api/v1/runs/"+run.ID.String()+"/log.csv")
	assert.Contains(t, html, "finished")
}

func TestServer_DashboardWithoutHistory(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MountsAPI(t *testing.T) {
	srv, err := NewServer(&Config{Port: 0}, nil, nil)
	require.NoError(t, err)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/runs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"runs":[]}`))
	})
	srv.Mount("/api", api)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_WebSocketReceivesBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	ts := newTestServer(t, nil, hub)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, wsResp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer c.Close()
	if wsResp != nil && wsResp.Body != nil {
		defer wsResp.Body.Close()
	}

	// registration is asynchronous; keep broadcasting until the client sees one
	received := make(chan []byte, 1)
	go func() {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := c.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg := <-received:
			assert.JSONEq(t, `{"type":"run.finished","payload":null}`, string(msg))
			return
		case <-ticker.C:
			hub.Broadcast(WSEvent{Type: EventRunFinished})
		case <-deadline:
			t.Fatal("no message over websocket")
		}
	}
}
