package scoring

import "github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"

// Network status labels.
const (
	NetworkExcellent = "excellent"
	NetworkGood      = "good"
	NetworkFair      = "fair"
	NetworkPoor      = "poor"
)

// NetworkCounts tallies node states.
type NetworkCounts struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Validators int `json:"validators"`
	Overloaded int `json:"overloaded"`
}

// CountNodes tallies active, validating and overloaded nodes.
func CountNodes(nodes []stellarbeat.Node) NetworkCounts {
	c := NetworkCounts{Total: len(nodes)}
	for _, n := range nodes {
		if n.Active {
			c.Active++
		}
		if n.IsValidating {
			c.Validators++
		}
		if n.OverLoaded {
			c.Overloaded++
		}
	}
	return c
}

// NetworkHealthScore is activeRatio*80 - overloadRatio*30 +
// min(validatorRatio*20, 20), clamped to [0, 100]. No nodes scores 0.
func NetworkHealthScore(nodes []stellarbeat.Node) float64 {
	c := CountNodes(nodes)
	if c.Total == 0 {
		return 0
	}
	total := float64(c.Total)
	activeRatio := float64(c.Active) / total
	overloadRatio := float64(c.Overloaded) / total
	validatorRatio := float64(c.Validators) / total

	score := activeRatio*80 - overloadRatio*30 + min(validatorRatio*20, 20)
	return clamp(score, 0, 100)
}

// NetworkStatus labels a network health score.
func NetworkStatus(score float64, overloaded, active int) string {
	switch {
	case score >= 90 && overloaded == 0:
		return NetworkExcellent
	case score >= 80 && float64(overloaded) < 0.1*float64(active):
		return NetworkGood
	case score >= 60 && float64(overloaded) < 0.2*float64(active):
		return NetworkFair
	default:
		return NetworkPoor
	}
}
