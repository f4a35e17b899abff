package monitor

import (
	"time"

	"github.com/mbd888/stellarbeat-mcp/internal/scoring"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// NodeSummary is the flattened view of a node returned by every node tool.
type NodeSummary struct {
	PublicKey      string     `json:"public_key"`
	Name           string     `json:"name,omitempty"`
	Host           string     `json:"host,omitempty"`
	Port           int        `json:"port,omitempty"`
	Active         bool       `json:"active"`
	Validating     bool       `json:"validating"`
	FullValidator  bool       `json:"full_validator"`
	Overloaded     bool       `json:"overloaded"`
	Version        string     `json:"version,omitempty"`
	OrganizationID string     `json:"organization_id,omitempty"`
	Country        string     `json:"country,omitempty"`
	CountryName    string     `json:"country_name,omitempty"`
	HomeDomain     string     `json:"home_domain,omitempty"`
	Uptime24h      *float64   `json:"uptime_24h,omitempty"`
	Uptime30d      *float64   `json:"uptime_30d,omitempty"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
}

func summarize(n stellarbeat.Node) NodeSummary {
	s := NodeSummary{
		PublicKey:      n.PublicKey,
		Name:           n.Name,
		Host:           n.Host,
		Port:           n.Port,
		Active:         n.Active,
		Validating:     n.IsValidating,
		FullValidator:  n.IsFullValidator,
		Overloaded:     n.OverLoaded,
		Version:        n.VersionStr,
		OrganizationID: n.OrganizationID,
		HomeDomain:     n.HomeDomain,
		Uptime24h:      roundPtr(n.Uptime(), 2),
		LastUpdated:    n.DateUpdated,
	}
	if n.GeoData != nil {
		s.Country = n.GeoData.CountryCode
		s.CountryName = n.GeoData.CountryName
	}
	if n.Statistics != nil {
		s.Uptime30d = roundPtr(n.Statistics.Active30DaysPercentage, 2)
	}
	return s
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := scoring.Round(*v, places)
	return &r
}

// nodeIndex maps public keys to nodes.
func nodeIndex(nodes []stellarbeat.Node) map[string]stellarbeat.Node {
	idx := make(map[string]stellarbeat.Node, len(nodes))
	for _, n := range nodes {
		idx[n.PublicKey] = n
	}
	return idx
}

// memberNodes resolves an organization's validator keys against the node
// list, keeping the organization's order. Keys without a node are returned
// separately.
func memberNodes(org stellarbeat.Organization, nodes []stellarbeat.Node) (members []stellarbeat.Node, missing []string) {
	idx := nodeIndex(nodes)
	members = make([]stellarbeat.Node, 0, len(org.Validators))
	missing = []string{}
	for _, key := range org.Validators {
		if n, ok := idx[key]; ok {
			members = append(members, n)
		} else {
			missing = append(missing, key)
		}
	}
	return members, missing
}
