package presentation

import (
	"reflect"
	"testing"

	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/models"
)

func newTestRenderer() *Renderer {
	return NewRenderer(databases.LoadDefaultTopology(), "en")
}

func snapshot(running bool, duration int, stats models.Stats) models.Snapshot {
	return models.Snapshot{Running: running, Duration: duration, Stats: stats}
}

func TestRenderChartsFollowLatestSnapshot(t *testing.T) {
	r := newTestRenderer()

	sequence := []models.Snapshot{
		snapshot(true, 15, models.Stats{TotalPackets: 10, NormalPackets: 8, AttackPackets: 2, ActiveHosts: 6}),
		snapshot(true, 15, models.Stats{TotalPackets: 300, NormalPackets: 200, AttackPackets: 100, ActiveHosts: 5, BlockedHosts: 1}),
		snapshot(false, 15, models.Stats{TotalPackets: 500, NormalPackets: 350, AttackPackets: 150, ActiveHosts: 4, BlockedHosts: 2}),
	}

	for _, s := range sequence {
		state := r.Render(s)
		wantTraffic := [2]int{s.Stats.NormalPackets, s.Stats.AttackPackets}
		wantHosts := [2]int{s.Stats.ActiveHosts, s.Stats.BlockedHosts}
		if state.TrafficChart.Data != wantTraffic {
			t.Errorf("TrafficChart = %v; want %v", state.TrafficChart.Data, wantTraffic)
		}
		if state.HostsChart.Data != wantHosts {
			t.Errorf("HostsChart = %v; want %v", state.HostsChart.Data, wantHosts)
		}
		if state.TrafficChart.Labels != TrafficLabels || state.HostsChart.Labels != HostsLabels {
			t.Errorf("unexpected chart labels %v / %v", state.TrafficChart.Labels, state.HostsChart.Labels)
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	r := newTestRenderer()
	s := snapshot(true, 30, models.Stats{TotalPackets: 1234, NormalPackets: 1000, AttackPackets: 234, ActiveHosts: 5, BlockedHosts: 1, AttacksDetected: 1})

	first := r.Render(s)
	second := r.Render(s)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Render() not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestRenderCountersAndStatus(t *testing.T) {
	r := newTestRenderer()

	state := r.Render(snapshot(true, 60, models.Stats{TotalPackets: 1234567, ActiveHosts: 6, BlockedHosts: 0, AttacksDetected: 0}))
	if state.TotalPacketsText != "1,234,567" {
		t.Errorf("TotalPacketsText = %q; want 1,234,567", state.TotalPacketsText)
	}
	if state.Status != models.StatusRunning || state.StatusLabel != LABEL_RUNNING {
		t.Errorf("Status = %s/%s; want running", state.Status, state.StatusLabel)
	}

	state = r.Render(snapshot(false, 60, models.Stats{TotalPackets: 5}))
	if state.Status != models.StatusFinished || state.StatusLabel != LABEL_FINISHED {
		t.Errorf("Status = %s/%s; want finished", state.Status, state.StatusLabel)
	}
}

func TestRenderLocaleGrouping(t *testing.T) {
	r := NewRenderer(databases.LoadDefaultTopology(), "de")
	if got := r.FormatCount(1234567); got != "1.234.567" {
		t.Errorf("FormatCount() = %q; want 1.234.567", got)
	}

	r = NewRenderer(databases.LoadDefaultTopology(), "not a locale")
	if got := r.FormatCount(1000); got != "1,000" {
		t.Errorf("FormatCount() with fallback locale = %q; want 1,000", got)
	}
}

func TestEstimateProgress(t *testing.T) {
	tests := []struct {
		name        string
		snap        models.Snapshot
		wantValid   bool
		wantDisplay int
	}{
		{"early", snapshot(true, 15, models.Stats{TotalPackets: 10}), true, 1},
		{"half", snapshot(true, 10, models.Stats{TotalPackets: 250}), true, 50},
		{"capped", snapshot(true, 10, models.Stats{TotalPackets: 10000}), true, 95},
		{"not running", snapshot(false, 10, models.Stats{TotalPackets: 250}), false, 0},
		{"zero duration", snapshot(true, 0, models.Stats{TotalPackets: 250}), false, 0},
	}

	for _, tt := range tests {
		got := EstimateProgress(tt.snap)
		if got.Valid != tt.wantValid || got.Display != tt.wantDisplay {
			t.Errorf("%s: EstimateProgress() = %+v; want valid=%v display=%d", tt.name, got, tt.wantValid, tt.wantDisplay)
		}
		if got.Percent > models.MAX_LIVE_PROGRESS {
			t.Errorf("%s: Percent = %f exceeds cap", tt.name, got.Percent)
		}
	}
}

func TestHighlightsClearedBetweenSnapshots(t *testing.T) {
	r := newTestRenderer()

	blocked := r.Render(snapshot(true, 15, models.Stats{BlockedHosts: 2}))
	for id, mark := range blocked.Topology {
		want := models.HighlightNone
		if id == databases.DEFAULT_ATTACKER {
			want = models.HighlightBlocked
		}
		if mark != want {
			t.Errorf("host %s = %s; want %s", id, mark, want)
		}
	}

	clear := r.Render(snapshot(true, 15, models.Stats{BlockedHosts: 0}))
	if len(clear.Topology) != 6 {
		t.Fatalf("len(Topology) = %d; want 6", len(clear.Topology))
	}
	for id, mark := range clear.Topology {
		if mark != models.HighlightNone {
			t.Errorf("host %s = %s after unblock; want none", id, mark)
		}
	}

	if blocked.Topology[databases.DEFAULT_ATTACKER] != models.HighlightBlocked {
		t.Errorf("earlier DisplayState mutated by later render")
	}
}

func TestHighlightsSkipAttackerOutsideTopology(t *testing.T) {
	topo := databases.LoadDefaultTopology()
	topo.Attacker = "H9"
	r := NewRenderer(topo, "en")

	display := r.Render(snapshot(true, 15, models.Stats{BlockedHosts: 2}))
	if _, ok := display.Topology["H9"]; ok {
		t.Errorf("unknown attacker H9 added to topology marks")
	}
	for id, mark := range display.Topology {
		if mark != models.HighlightNone {
			t.Errorf("host %s = %s; want none", id, mark)
		}
	}
}
