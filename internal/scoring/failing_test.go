package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func TestDetectNodeIssues(t *testing.T) {
	tests := []struct {
		name     string
		node     stellarbeat.Node
		issues   int
		severity Severity
	}{
		{"healthy", node("A", withUptime(99)), 0, SeverityWarning},
		{"inactive", node("A", inactive), 1, SeverityCritical},
		{"overloaded watcher", node("A", overloaded), 1, SeverityWarning},
		{"overloaded validator", node("A", overloaded, validating), 1, SeverityCritical},
		{"uptime below 90", node("A", withUptime(85)), 1, SeverityWarning},
		{"uptime below 80", node("A", withUptime(79.9)), 1, SeverityCritical},
		{"offline validator", node("A", inactive, validating), 2, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ni := DetectNodeIssues(tt.node)
			assert.Len(t, ni.Issues, tt.issues)
			assert.Equal(t, tt.issues > 0, ni.Failing())
			assert.Equal(t, tt.severity, ni.Severity)
		})
	}
}

func TestMatchesSeverity(t *testing.T) {
	assert.True(t, MatchesSeverity(SeverityWarning, FilterAll))
	assert.True(t, MatchesSeverity(SeverityCritical, FilterAll))
	assert.False(t, MatchesSeverity(SeverityWarning, FilterCritical))
	assert.True(t, MatchesSeverity(SeverityCritical, FilterCritical))
	assert.True(t, MatchesSeverity(SeverityWarning, FilterWarning))
	assert.True(t, MatchesSeverity(SeverityCritical, FilterWarning))
	assert.True(t, MatchesSeverity(SeverityWarning, ""))
}
