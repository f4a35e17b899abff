package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func TestGrade(t *testing.T) {
	tests := map[int]string{
		100: "A+", 95: "A+", 94: "A", 90: "A", 89: "B+", 85: "B+", 84: "B",
		80: "B", 79: "C+", 75: "C+", 74: "C", 70: "C", 69: "D", 60: "D", 59: "F", 0: "F",
	}
	for score, want := range tests {
		assert.Equal(t, want, Grade(score), "score %d", score)
	}
}

func TestOrganizationReliability_NoNodes(t *testing.T) {
	r := OrganizationReliability(nil)
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, "N/A", r.Grade)
	assert.Equal(t, []string{"No nodes found for this organization"}, r.Issues)
}

func TestOrganizationReliability_Perfect(t *testing.T) {
	r := OrganizationReliability([]stellarbeat.Node{
		node("a", validating, withUptime(100)),
		node("b", validating, withUptime(99)),
	})
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, "A+", r.Grade)
	assert.Empty(t, r.Issues)
	assert.Equal(t, 1.0, r.ActiveRatio)
	require.NotNil(t, r.AverageUptime)
	assert.Equal(t, 99.5, *r.AverageUptime)
}

func TestOrganizationReliability_Deductions(t *testing.T) {
	nodes := []stellarbeat.Node{
		node("a", validating, withUptime(90)),
		node("b", validating, withUptime(90), overloaded),
		node("c", validating, withUptime(90)),
		node("d", validating, inactive),
	}
	r := OrganizationReliability(nodes)

	// activeRatio 0.75: -7.5; avg uptime 90: -10; overload 0.25: -7.5;
	// validator availability 0.75: -20
	assert.Equal(t, 55, r.Score)
	assert.Equal(t, "F", r.Grade)
	assert.Len(t, r.Issues, 4)
	assert.Equal(t, 0.75, r.ActiveRatio)
	assert.Equal(t, 0.25, r.OverloadRatio)
	require.NotNil(t, r.ValidatorActiveRatio)
	assert.Equal(t, 0.75, *r.ValidatorActiveRatio)
}

func TestOrganizationReliability_UndefinedUptimeNotZero(t *testing.T) {
	r := OrganizationReliability([]stellarbeat.Node{node("a"), node("b")})
	assert.Equal(t, 100, r.Score)
	assert.Nil(t, r.AverageUptime)
	assert.Nil(t, r.ValidatorActiveRatio)
}
