package monitor

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/backend"
	"github.com/zrougamed/cerberus-watch/internal/models"
	"github.com/zrougamed/cerberus-watch/internal/testutil"
)

func TestEndToEndRunAgainstBackend(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	fake.SetStream(true,
		testutil.SnapshotFrame(running(10)),
		testutil.SnapshotFrame(finished(500, 3, 2)),
	)

	client := backend.NewClient(backend.Config{BaseURL: fake.URL()})
	m, err := New(client, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer m.Close()

	if err := m.StartSimulation(15); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	testutil.WaitFor(t, 3*time.Second, "session to end", func() bool {
		return m.View().State == models.SessionEnded
	})

	calls := fake.StartCalls()
	if len(calls) != 1 || calls[0].Duration != 15 {
		t.Errorf("start calls = %+v; want one with duration 15", calls)
	}

	view := m.View()
	if !view.ControlEnabled || view.ProgressText != "100%" {
		t.Errorf("view = enabled:%v progress:%s; want enabled, 100%%", view.ControlEnabled, view.ProgressText)
	}
	if view.Log[0].Message != "2 hosts blocked" {
		t.Errorf("latest log = %+v", view.Log[0])
	}

	// the held stream is dropped by the client once the run is over
	testutil.WaitFor(t, 3*time.Second, "stream to be released", func() bool {
		return fake.OpenStreams() == 0
	})
	if fake.StreamConnections() != 1 {
		t.Errorf("stream connections = %d; want 1", fake.StreamConnections())
	}
}

func TestEndToEndStreamDropIsReported(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	fake.SetStream(false, testutil.SnapshotFrame(running(10)))

	m, _ := New(backend.NewClient(backend.Config{BaseURL: fake.URL()}), Options{})
	defer m.Close()

	m.StartSimulation(15)

	testutil.WaitFor(t, 3*time.Second, "session to end", func() bool {
		return m.View().State == models.SessionEnded
	})

	view := m.View()
	if !view.ControlEnabled {
		t.Errorf("control not re-enabled after stream drop")
	}
	if !strings.Contains(view.Log[0].Message, "Stream connection lost") {
		t.Errorf("latest log = %+v", view.Log[0])
	}
	if fake.StreamConnections() != 1 {
		t.Errorf("stream connections = %d; want 1 (no reconnect)", fake.StreamConnections())
	}
}

func TestEndToEndRejectedStart(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	fake.SetStartResponse(http.StatusConflict, models.StartResponse{Status: "error", Message: "Simulation already running"})

	m, _ := New(backend.NewClient(backend.Config{BaseURL: fake.URL()}), Options{})
	defer m.Close()

	m.StartSimulation(15)

	testutil.WaitFor(t, 3*time.Second, "control to be re-enabled", func() bool {
		return m.View().ControlEnabled
	})

	view := m.View()
	if view.Log[0].Message != "Simulation already running" {
		t.Errorf("latest log = %+v", view.Log[0])
	}
	if fake.StreamConnections() != 0 {
		t.Errorf("stream opened after rejection")
	}
}

func TestEndToEndNullPayloadEndsSession(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	fake.SetStream(true, testutil.SnapshotFrame(running(10)), `null`)

	m, _ := New(backend.NewClient(backend.Config{BaseURL: fake.URL()}), Options{})
	defer m.Close()

	m.StartSimulation(15)

	testutil.WaitFor(t, 3*time.Second, "session to end", func() bool {
		return m.View().State == models.SessionEnded
	})

	view := m.View()
	if view.Subscribed || !view.ControlEnabled {
		t.Errorf("subscribed=%v enabled=%v; want closed and enabled", view.Subscribed, view.ControlEnabled)
	}
	if view.Display == nil || view.Display.TotalPackets != 10 {
		t.Errorf("null payload replaced the rendered snapshot: %+v", view.Display)
	}
	if view.Log[0].Severity != models.SeverityError || !strings.Contains(view.Log[0].Message, "Malformed snapshot") {
		t.Errorf("latest log = %+v", view.Log[0])
	}
}
