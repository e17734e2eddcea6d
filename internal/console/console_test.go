package console

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/models"
	"github.com/zrougamed/cerberus-watch/internal/presentation"
)

func finishedView() models.View {
	topology := databases.LoadDefaultTopology()
	r := presentation.NewRenderer(topology, "en")
	display := r.Render(models.Snapshot{
		Running:  false,
		Duration: 15,
		Stats: models.Stats{
			TotalPackets:    1500,
			NormalPackets:   1350,
			AttackPackets:   150,
			ActiveHosts:     5,
			BlockedHosts:    1,
			AttacksDetected: 3,
		},
	})

	at := time.Date(2026, 10, 19, 12, 30, 0, 0, time.Local)
	return models.View{
		State:           models.SessionEnded,
		ControlEnabled:  true,
		ProgressPercent: 100,
		ProgressText:    "100%",
		Display:         &display,
		Log: []models.LogEntry{
			{Seq: 2, Timestamp: at, Message: "Simulation completed", Severity: models.SeveritySuccess},
			{Seq: 1, Timestamp: at, Message: "started", Severity: models.SeverityInfo},
		},
	}
}

func TestRenderShowsDashboard(t *testing.T) {
	c := New(&bytes.Buffer{}, Options{Hosts: databases.LoadDefaultTopology().HostIDs()})
	out := c.Render(finishedView())

	for _, want := range []string{
		"State: ended",
		"Status: Finished",
		"Control: ready",
		"100%",
		"Total packets: 1,500",
		"Normal traffic: 1350",
		"Attack traffic: 150",
		"Attacks detected: 3",
		"[H1]",
		"[H6 BLOCKED]",
		"[12:30:00] Simulation completed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	if strings.Index(out, "[H1]") > strings.Index(out, "[H2]") {
		t.Errorf("hosts not drawn in topology order:\n%s", out)
	}
}

func TestRenderBeforeFirstSnapshot(t *testing.T) {
	c := New(&bytes.Buffer{}, Options{})
	out := c.Render(models.View{State: models.SessionStarting, ProgressText: "0%"})

	if !strings.Contains(out, "Status: Idle") || !strings.Contains(out, "Control: busy") {
		t.Errorf("Render() = %s", out)
	}
	if strings.Contains(out, "Total packets") {
		t.Errorf("stats drawn without a snapshot:\n%s", out)
	}
}

func TestRenderCapsLogLines(t *testing.T) {
	view := models.View{}
	for i := 20; i > 0; i-- {
		view.Log = append(view.Log, models.LogEntry{Message: fmt.Sprintf("entry-%02d", i), Severity: models.SeverityInfo})
	}

	out := New(&bytes.Buffer{}, Options{}).Render(view)
	if !strings.Contains(out, "entry-20") {
		t.Errorf("newest entry missing:\n%s", out)
	}
	if strings.Contains(out, "entry-12") {
		t.Errorf("more than %d log lines drawn:\n%s", LOG_LINES, out)
	}
}

func TestUpdateWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, Options{Clear: true})

	c.Update(finishedView())
	c.Update(finishedView())

	if got := strings.Count(buf.String(), CLEAR_SCENE); got != 2 {
		t.Errorf("wrote %d frames; want 2", got)
	}
}
