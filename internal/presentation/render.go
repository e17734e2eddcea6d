package presentation

import (
	"math"

	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	TrafficLabels = [2]string{"Normal traffic", "Attack traffic"}
	HostsLabels   = [2]string{"Active", "Blocked"}
)

const (
	LABEL_RUNNING  = "Running"
	LABEL_FINISHED = "Finished"
)

type Renderer struct {
	topology databases.Topology
	printer  *message.Printer
}

// NewRenderer builds a renderer for the given topology. locale is a BCP 47
// tag used for digit grouping; an unparsable tag falls back to English.
func NewRenderer(topology databases.Topology, locale string) *Renderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	return &Renderer{
		topology: topology,
		printer:  message.NewPrinter(tag),
	}
}

// Render is pure: the same snapshot always produces the same DisplayState.
func (r *Renderer) Render(s models.Snapshot) models.DisplayState {
	state := models.DisplayState{
		TotalPackets:     s.Stats.TotalPackets,
		TotalPacketsText: r.FormatCount(s.Stats.TotalPackets),
		ActiveHosts:      s.Stats.ActiveHosts,
		BlockedHosts:     s.Stats.BlockedHosts,
		AttacksDetected:  s.Stats.AttacksDetected,
		TrafficChart: models.ChartDataset{
			Labels: TrafficLabels,
			Data:   [2]int{s.Stats.NormalPackets, s.Stats.AttackPackets},
		},
		HostsChart: models.ChartDataset{
			Labels: HostsLabels,
			Data:   [2]int{s.Stats.ActiveHosts, s.Stats.BlockedHosts},
		},
		Progress: EstimateProgress(s),
		Topology: r.Highlights(s),
	}

	if s.Running {
		state.Status = models.StatusRunning
		state.StatusLabel = LABEL_RUNNING
	} else {
		state.Status = models.StatusFinished
		state.StatusLabel = LABEL_FINISHED
	}

	return state
}

// Highlights recomputes the highlight of every topology host from scratch.
func (r *Renderer) Highlights(s models.Snapshot) map[string]models.HighlightState {
	marks := make(map[string]models.HighlightState, len(r.topology.Hosts))
	for _, h := range r.topology.Hosts {
		marks[h.ID] = models.HighlightNone
	}

	if s.Stats.BlockedHosts > 0 && r.topology.Has(r.topology.Attacker) {
		marks[r.topology.Attacker] = models.HighlightBlocked
	}

	return marks
}

func (r *Renderer) FormatCount(n int) string {
	return r.printer.Sprintf("%d", n)
}

// EstimateProgress derives a progress percentage from the packet count. It is
// only valid while the run is active and stays at or below MAX_LIVE_PROGRESS.
func EstimateProgress(s models.Snapshot) models.ProgressEstimate {
	if !s.Running || s.Duration <= 0 {
		return models.ProgressEstimate{}
	}

	expected := float64(s.Duration * models.PACKETS_PER_SECOND)
	percent := math.Min(models.MAX_LIVE_PROGRESS, float64(s.Stats.TotalPackets)/expected*100)

	return models.ProgressEstimate{
		Percent: percent,
		Display: int(math.Round(percent)),
		Valid:   true,
	}
}
