package scoring

import (
	"fmt"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// QuorumHeuristic names the method behind ConsensusInfo.QuorumIntersection.
// It measures organizational concentration and is not an FBAS
// quorum-intersection proof.
const QuorumHeuristic = "heuristic: largest organization < 50% of validators and >= 3 organizations"

// ConsensusInfo is the derived consensus health of a validator set.
type ConsensusInfo struct {
	Healthy            bool     `json:"healthy"`
	Issues             []string `json:"issues"`
	QuorumIntersection bool     `json:"quorum_intersection"`
	SafetyLevel        int      `json:"safety_level"`
}

// OrganizationKey groups validators; those without an organization form
// their own group.
func OrganizationKey(n stellarbeat.Node) string {
	if n.OrganizationID != "" {
		return n.OrganizationID
	}
	return "node:" + n.PublicKey
}

func groupByOrganization(validators []stellarbeat.Node) map[string]int {
	groups := make(map[string]int)
	for _, v := range validators {
		groups[OrganizationKey(v)]++
	}
	return groups
}

// QuorumIntersection applies the concentration heuristic. Fewer than 4
// validators intersect iff there are at least 3. Otherwise the largest
// organization must hold under half the validators and there must be at
// least 3 organizations.
func QuorumIntersection(validators []stellarbeat.Node) bool {
	if len(validators) < 4 {
		return len(validators) >= 3
	}
	groups := groupByOrganization(validators)
	largest := 0
	for _, c := range groups {
		largest = max(largest, c)
	}
	return float64(largest) < 0.5*float64(len(validators)) && len(groups) >= 3
}

// ConsensusHealth evaluates a validator set.
func ConsensusHealth(validators []stellarbeat.Node) ConsensusInfo {
	info := ConsensusInfo{Issues: []string{}}

	active, overloaded := 0, 0
	for _, v := range validators {
		if v.Active {
			active++
		}
		if v.OverLoaded {
			overloaded++
		}
	}

	if active < 3 {
		info.Issues = append(info.Issues, fmt.Sprintf("Only %d active validators (insufficient for safe consensus)", active))
	}
	if overloaded > 0 {
		info.Issues = append(info.Issues, fmt.Sprintf("%d validators overloaded", overloaded))
	}
	info.QuorumIntersection = QuorumIntersection(validators)
	if !info.QuorumIntersection {
		info.Issues = append(info.Issues, "Quorum intersection heuristic failed: validators concentrated in too few organizations")
	}

	info.Healthy = len(info.Issues) == 0
	info.SafetyLevel = max(0, min(len(validators)*10, 100)-len(info.Issues)*15)
	return info
}
