package scoring

import (
	"fmt"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// Severity of a failing node.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Severity filters accepted by failing-node queries.
const (
	FilterAll      = "all"
	FilterCritical = "critical"
	FilterWarning  = "warning"
)

// NodeIssues lists what is wrong with a node and how bad it is.
type NodeIssues struct {
	Severity Severity `json:"severity"`
	Issues   []string `json:"issues"`
}

// Failing reports whether any issue was found.
func (ni NodeIssues) Failing() bool { return len(ni.Issues) > 0 }

// DetectNodeIssues inspects a node for failure conditions. Severity starts at
// warning and escalates to critical on inactivity, overload while
// validating, uptime under 80% or an inactive validator.
func DetectNodeIssues(n stellarbeat.Node) NodeIssues {
	ni := NodeIssues{Severity: SeverityWarning, Issues: []string{}}

	if !n.Active {
		ni.Issues = append(ni.Issues, "Node is inactive")
		ni.Severity = SeverityCritical
	}
	if n.OverLoaded {
		ni.Issues = append(ni.Issues, "Node is overloaded")
		if n.IsValidating {
			ni.Severity = SeverityCritical
		}
	}
	if u := n.Uptime(); u != nil && *u < 90 {
		ni.Issues = append(ni.Issues, fmt.Sprintf("Low uptime: %.1f%%", *u))
		if *u < 80 {
			ni.Severity = SeverityCritical
		}
	}
	if n.IsValidating && !n.Active {
		ni.Issues = append(ni.Issues, "Validator is offline")
		ni.Severity = SeverityCritical
	}
	return ni
}

// MatchesSeverity applies a severity filter. The warning filter includes
// critical nodes, which makes it equivalent to all.
func MatchesSeverity(sev Severity, filter string) bool {
	switch filter {
	case FilterCritical:
		return sev == SeverityCritical
	case FilterWarning:
		return sev == SeverityWarning || sev == SeverityCritical
	default:
		return true
	}
}
