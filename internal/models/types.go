package models

import "time"

const (
	MIN_DURATION = 1
	MAX_DURATION = 300

	// Packets per second the backend is assumed to generate when estimating progress.
	PACKETS_PER_SECOND = 50
	MAX_LIVE_PROGRESS  = 95
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type SessionState int

const (
	SessionIdle SessionState = iota
	SessionStarting
	SessionStreaming
	SessionEnded
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionStarting:
		return "starting"
	case SessionStreaming:
		return "streaming"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

type HighlightState string

const (
	HighlightNone    HighlightState = "none"
	HighlightBlocked HighlightState = "blocked"
)

type Stats struct {
	TotalPackets    int `json:"total_packets"`
	NormalPackets   int `json:"normal_packets"`
	AttackPackets   int `json:"attack_packets"`
	ActiveHosts     int `json:"active_hosts"`
	BlockedHosts    int `json:"blocked_hosts"`
	AttacksDetected int `json:"attacks_detected"`
}

// Consistent reports whether the packet split adds up to the total.
func (s Stats) Consistent() bool {
	return s.NormalPackets+s.AttackPackets == s.TotalPackets
}

// Snapshot is one periodic state report pushed by the simulation backend.
type Snapshot struct {
	Running  bool  `json:"running"`
	Duration int   `json:"duration"`
	Stats    Stats `json:"stats"`
}

// Terminal reports whether the snapshot ends the run. A stopped run that
// never produced a packet is not terminal.
func (s Snapshot) Terminal() bool {
	return !s.Running && s.Stats.TotalPackets > 0
}

type StartRequest struct {
	Duration int `json:"duration"`
}

type StartResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r StartResponse) Accepted() bool {
	return r.Status == "success"
}

type ChartDataset struct {
	Labels [2]string `json:"labels"`
	Data   [2]int    `json:"data"`
}

type ProgressEstimate struct {
	Percent float64 `json:"percent"`
	Display int     `json:"display"`
	Valid   bool    `json:"valid"`
}

type DisplayState struct {
	TotalPackets     int                       `json:"total_packets"`
	TotalPacketsText string                    `json:"total_packets_text"`
	ActiveHosts      int                       `json:"active_hosts"`
	BlockedHosts     int                       `json:"blocked_hosts"`
	AttacksDetected  int                       `json:"attacks_detected"`
	TrafficChart     ChartDataset              `json:"traffic_chart"`
	HostsChart       ChartDataset              `json:"hosts_chart"`
	Status           Status                    `json:"status"`
	StatusLabel      string                    `json:"status_label"`
	Progress         ProgressEstimate          `json:"progress"`
	Topology         map[string]HighlightState `json:"topology"`
}

type LogEntry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// View is everything the operator surface shows at one instant.
type View struct {
	SessionID       string        `json:"session_id,omitempty"`
	State           SessionState  `json:"state"`
	ControlEnabled  bool          `json:"control_enabled"`
	Subscribed      bool          `json:"subscribed"`
	LastDuration    int           `json:"last_duration,omitempty"`
	ProgressPercent float64       `json:"progress_percent"`
	ProgressText    string        `json:"progress_text"`
	Display         *DisplayState `json:"display,omitempty"`
	Log             []LogEntry    `json:"log"`
}
