package scoring

import (
	"fmt"
	"math"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// HealthStatus classifies a health score.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

// Node health deductions.
const (
	inactivePenalty          = 40
	overloadedPenalty        = 20
	uptimeTarget             = 95.0
	uptimePenaltyPerPoint    = 2
	missingVersionPenalty    = 10
	inactiveValidatorPenalty = 30
)

// HealthCheck is the derived health of a single node.
type HealthCheck struct {
	Status HealthStatus `json:"status"`
	Issues []string     `json:"issues"`
	Score  int          `json:"score"` // 0-100
}

// StatusForScore maps a 0-100 score onto a status.
func StatusForScore(score int) HealthStatus {
	switch {
	case score >= 80:
		return StatusHealthy
	case score >= 60:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// CheckNodeHealth scores a node from 100 down. The uptime deduction is
// uncapped, so the raw total can drop below zero before clamping.
func CheckNodeHealth(n stellarbeat.Node) HealthCheck {
	score := 100.0
	issues := []string{}

	if !n.Active {
		score -= inactivePenalty
		issues = append(issues, "Node is not active")
	}
	if n.OverLoaded {
		score -= overloadedPenalty
		issues = append(issues, "Node is overloaded")
	}
	if u := n.Uptime(); u != nil && *u < uptimeTarget {
		score -= (uptimeTarget - *u) * uptimePenaltyPerPoint
		issues = append(issues, fmt.Sprintf("Low uptime: %.1f%%", *u))
	}
	if n.VersionStr == "" {
		score -= missingVersionPenalty
		issues = append(issues, "Software version unknown")
	}
	if n.IsValidating && !n.Active {
		score -= inactiveValidatorPenalty
		issues = append(issues, "Validator is not active")
	}

	final := int(math.Round(math.Max(0, score)))
	return HealthCheck{
		Status: StatusForScore(final),
		Issues: issues,
		Score:  final,
	}
}
