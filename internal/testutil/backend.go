package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/models"
)

const (
	START_PATH  = "/api/simulate"
	STREAM_PATH = "/api/stream"
)

// FakeBackend is an in-process stand-in for the simulation backend. The
// stream replays a scripted list of data payloads, then either ends the
// response or holds it open until the client disconnects.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	startCalls  []models.StartRequest
	startStatus int
	startBody   string
	frames      []string
	hold        bool
	interval    time.Duration
	connections int
	open        int
}

func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		startStatus: http.StatusOK,
		startBody:   `{"status":"success","message":"started"}`,
		interval:    5 * time.Millisecond,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(START_PATH, f.handleStart)
	mux.HandleFunc(STREAM_PATH, f.handleStream)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		f.Server.CloseClientConnections()
		f.Server.Close()
	})

	return f
}

func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// SetStartResponse makes the start endpoint answer with resp encoded as JSON.
func (f *FakeBackend) SetStartResponse(status int, resp models.StartResponse) {
	data, _ := json.Marshal(resp)
	f.SetStartBody(status, string(data))
}

// SetStartBody makes the start endpoint answer with a raw body.
func (f *FakeBackend) SetStartBody(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startStatus = status
	f.startBody = body
}

// SetStream scripts the data payloads sent to every stream connection.
func (f *FakeBackend) SetStream(hold bool, frames ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = hold
	f.frames = append([]string(nil), frames...)
}

func (f *FakeBackend) StartCalls() []models.StartRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StartRequest(nil), f.startCalls...)
}

// StreamConnections is the number of stream requests received so far.
func (f *FakeBackend) StreamConnections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connections
}

// OpenStreams is the number of stream responses still being served.
func (f *FakeBackend) OpenStreams() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *FakeBackend) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	f.mu.Lock()
	f.startCalls = append(f.startCalls, req)
	status, body := f.startStatus, f.startBody
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func (f *FakeBackend) handleStream(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.connections++
	f.open++
	frames, hold, interval := append([]string(nil), f.frames...), f.hold, f.interval
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.open--
		f.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for _, frame := range frames {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(interval):
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if hold {
		<-r.Context().Done()
	}
}

// SnapshotFrame encodes s the way the backend puts it on the wire.
func SnapshotFrame(s models.Snapshot) string {
	data, _ := json.Marshal(s)
	return string(data)
}
