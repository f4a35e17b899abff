package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func TestCheckNodeHealth(t *testing.T) {
	tests := []struct {
		name   string
		node   stellarbeat.Node
		score  int
		status HealthStatus
		issues int
	}{
		{"healthy", node("A", withUptime(99)), 100, StatusHealthy, 0},
		{"no uptime figure", node("A"), 100, StatusHealthy, 0},
		{"overloaded", node("A", overloaded), 80, StatusHealthy, 1},
		{"low uptime", node("A", withUptime(90)), 90, StatusHealthy, 1},
		{"very low uptime", node("A", withUptime(70)), 50, StatusCritical, 1},
		{"no version", node("A", noVersion), 90, StatusHealthy, 1},
		{"inactive", node("A", inactive), 60, StatusWarning, 1},
		{"inactive validator with version", node("A", inactive, validating), 30, StatusCritical, 2},
		{"inactive validator without version", node("A", inactive, validating, noVersion), 20, StatusCritical, 3},
		{"everything wrong clamps at zero", node("A", inactive, validating, noVersion, overloaded, withUptime(0)), 0, StatusCritical, 5},
		{"rounding", node("A", withUptime(94.7)), 99, StatusHealthy, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CheckNodeHealth(tt.node)
			assert.Equal(t, tt.score, h.Score)
			assert.Equal(t, tt.status, h.Status)
			assert.Len(t, h.Issues, tt.issues)
		})
	}
}

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, StatusHealthy, StatusForScore(80))
	assert.Equal(t, StatusWarning, StatusForScore(79))
	assert.Equal(t, StatusWarning, StatusForScore(60))
	assert.Equal(t, StatusCritical, StatusForScore(59))
}

func TestCheckNodeHealth_ScoreAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := stellarbeat.Node{
			Active:       rng.Intn(2) == 0,
			OverLoaded:   rng.Intn(2) == 0,
			IsValidating: rng.Intn(2) == 0,
		}
		if rng.Intn(2) == 0 {
			n.VersionStr = "21.0.0"
		}
		if rng.Intn(3) > 0 {
			n.Statistics = uptime(rng.Float64() * 100)
		}

		h := CheckNodeHealth(n)
		assert.GreaterOrEqual(t, h.Score, 0)
		assert.LessOrEqual(t, h.Score, 100)
		assert.Equal(t, StatusForScore(h.Score), h.Status)
	}
}
