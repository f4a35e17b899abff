package scoring

import (
	"fmt"
	"math"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// GradeNone is reported for organizations without nodes.
const GradeNone = "N/A"

// Reliability is the derived reliability of an organization's nodes.
type Reliability struct {
	Score                int      `json:"score"`
	Grade                string   `json:"grade"`
	Issues               []string `json:"issues"`
	NodeCount            int      `json:"node_count"`
	ActiveRatio          float64  `json:"active_ratio"`
	AverageUptime        *float64 `json:"average_uptime,omitempty"`
	OverloadRatio        float64  `json:"overload_ratio"`
	ValidatorActiveRatio *float64 `json:"validator_active_ratio,omitempty"`
}

// Grade maps a reliability score onto a letter grade.
func Grade(score int) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// OrganizationReliability scores an organization from its member nodes.
func OrganizationReliability(nodes []stellarbeat.Node) Reliability {
	if len(nodes) == 0 {
		return Reliability{
			Score:  0,
			Grade:  GradeNone,
			Issues: []string{"No nodes found for this organization"},
		}
	}

	counts := CountNodes(nodes)
	total := float64(counts.Total)
	r := Reliability{
		NodeCount:     counts.Total,
		ActiveRatio:   float64(counts.Active) / total,
		OverloadRatio: float64(counts.Overloaded) / total,
		AverageUptime: AverageUptime(nodes),
		Issues:        []string{},
	}

	score := 100.0
	if r.ActiveRatio < 0.9 {
		score -= (0.9 - r.ActiveRatio) * 50
		r.Issues = append(r.Issues, fmt.Sprintf("Only %.0f%% of nodes active", r.ActiveRatio*100))
	}
	if r.AverageUptime != nil && *r.AverageUptime < 95 {
		score -= (95 - *r.AverageUptime) * 2
		r.Issues = append(r.Issues, fmt.Sprintf("Average uptime %.1f%% below 95%%", *r.AverageUptime))
	}
	if r.OverloadRatio > 0.1 {
		score -= r.OverloadRatio * 30
		r.Issues = append(r.Issues, fmt.Sprintf("%.0f%% of nodes overloaded", r.OverloadRatio*100))
	}

	validators := Validators(nodes)
	if len(validators) > 0 {
		active := 0
		for _, v := range validators {
			if v.Active {
				active++
			}
		}
		ratio := float64(active) / float64(len(validators))
		r.ValidatorActiveRatio = &ratio
		if ratio < 0.95 {
			score -= 20
			r.Issues = append(r.Issues, "Validator availability below 95%")
		}
	}

	r.Score = int(math.Round(math.Max(0, score)))
	r.Grade = Grade(r.Score)
	r.ActiveRatio = Round(r.ActiveRatio, 3)
	r.OverloadRatio = Round(r.OverloadRatio, 3)
	if r.AverageUptime != nil {
		r.AverageUptime = ptr(Round(*r.AverageUptime, 2))
	}
	if r.ValidatorActiveRatio != nil {
		r.ValidatorActiveRatio = ptr(Round(*r.ValidatorActiveRatio, 3))
	}
	return r
}
