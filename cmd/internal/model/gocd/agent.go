package gocd

import (
	"github.com/samber/lo"
	"strings"
)

type AgentEnvironment struct {
	Name   string  `json:"name"`
	Origin *Origin `json:"origin,omitempty"`
}

// Agent is an entry from GET /api/agents.
type Agent struct {
	Uuid             string             `json:"uuid"`
	Hostname         string             `json:"hostname"`
	IpAddress        string             `json:"ip_address"`
	Sandbox          string             `json:"sandbox"`
	OperatingSystem  string             `json:"operating_system"`
	FreeSpace        any                `json:"free_space"`
	AgentConfigState string             `json:"agent_config_state"`
	AgentState       string             `json:"agent_state"`
	BuildState       string             `json:"build_state"`
	Resources        []string           `json:"resources"`
	Environments     []AgentEnvironment `json:"environments"`
}

func (a Agent) GetName() string {
	return a.Hostname
}

func (a Agent) IsEnabled() bool {
	return a.AgentConfigState == "Enabled"
}

// FindAgent looks an agent up by uuid first and then by hostname.
func FindAgent(agents []Agent, uuidOrHostname string) (Agent, bool) {
	if agent, found := lo.Find(agents, func(item Agent) bool { return item.Uuid == uuidOrHostname }); found {
		return agent, true
	}

	return lo.Find(agents, func(item Agent) bool {
		return strings.EqualFold(item.Hostname, uuidOrHostname)
	})
}
