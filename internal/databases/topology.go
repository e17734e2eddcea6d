package databases

import "fmt"

const DEFAULT_ATTACKER = "H6"

type Host struct {
	ID          string `json:"id" yaml:"id"`
	Role        string `json:"role" yaml:"role"`
	Description string `json:"description" yaml:"description"`
}

// Topology is the fixed host set drawn by the dashboard. The client only
// receives a blocked-host count, so the attacker host is the one marked.
type Topology struct {
	Hosts    []Host `json:"hosts" yaml:"hosts"`
	Attacker string `json:"attacker" yaml:"attacker"`
}

// TODO: fetch the host list from the backend once it exposes its topology
func LoadDefaultTopology() Topology {
	return Topology{
		Hosts: []Host{
			{"H1", "client", "Workstation"},
			{"H2", "client", "Workstation"},
			{"H3", "server", "Web server"},
			{"H4", "server", "Database server"},
			{"H5", "client", "Workstation"},
			{"H6", "attacker", "Compromised host"},
		},
		Attacker: DEFAULT_ATTACKER,
	}
}

func (t Topology) HostIDs() []string {
	ids := make([]string, 0, len(t.Hosts))
	for _, h := range t.Hosts {
		ids = append(ids, h.ID)
	}
	return ids
}

func (t Topology) Has(id string) bool {
	for _, h := range t.Hosts {
		if h.ID == id {
			return true
		}
	}
	return false
}

func (t Topology) Validate() error {
	if len(t.Hosts) == 0 {
		return fmt.Errorf("topology has no hosts")
	}
	seen := make(map[string]bool, len(t.Hosts))
	for _, h := range t.Hosts {
		if h.ID == "" {
			return fmt.Errorf("topology host with empty id")
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate topology host %q", h.ID)
		}
		seen[h.ID] = true
	}
	if !t.Has(t.Attacker) {
		return fmt.Errorf("attacker host %q is not part of the topology", t.Attacker)
	}
	return nil
}
