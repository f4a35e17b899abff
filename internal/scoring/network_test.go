package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func TestNetworkHealthScore(t *testing.T) {
	assert.Equal(t, 0.0, NetworkHealthScore(nil))

	// All active, all validating, none overloaded: 80 + 20
	all := []stellarbeat.Node{node("a", validating), node("b", validating)}
	assert.Equal(t, 100.0, NetworkHealthScore(all))

	// Half active, no validators, half overloaded: 40 - 15
	mixed := []stellarbeat.Node{node("a", overloaded), node("b", inactive)}
	assert.Equal(t, 25.0, NetworkHealthScore(mixed))

	// All inactive and overloaded clamps to 0
	bad := []stellarbeat.Node{node("a", inactive, overloaded)}
	assert.Equal(t, 0.0, NetworkHealthScore(bad))
}

func TestNetworkHealthScore_NonDecreasingInActiveRatio(t *testing.T) {
	const total = 20
	prev := -1.0
	for active := 0; active <= total; active++ {
		nodes := make([]stellarbeat.Node, total)
		for i := range nodes {
			nodes[i] = node(fmt.Sprint(i))
			nodes[i].Active = i < active
			nodes[i].IsValidating = i%2 == 0
			nodes[i].OverLoaded = i%5 == 0
		}
		score := NetworkHealthScore(nodes)
		assert.GreaterOrEqual(t, score, prev, "active=%d", active)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestNetworkStatus(t *testing.T) {
	tests := []struct {
		score      float64
		overloaded int
		active     int
		want       string
	}{
		{95, 0, 100, NetworkExcellent},
		{95, 1, 100, NetworkGood},
		{85, 9, 100, NetworkGood},
		{85, 10, 100, NetworkFair},
		{65, 19, 100, NetworkFair},
		{65, 20, 100, NetworkPoor},
		{50, 0, 100, NetworkPoor},
		{85, 0, 0, NetworkPoor},
	}
	for _, tt := range tests {
		got := NetworkStatus(tt.score, tt.overloaded, tt.active)
		assert.Equal(t, tt.want, got, "score=%v overloaded=%d active=%d", tt.score, tt.overloaded, tt.active)
	}
}

func TestCountValues(t *testing.T) {
	counts := CountValues([]string{"US", "DE", "US", "", "FI", "DE", "US"})
	assert.Equal(t, []Count{{"US", 3}, {"DE", 2}, {"FI", 1}}, counts)
	assert.Equal(t, []Count{{"US", 3}}, TopValues([]string{"US", "US", "US", "DE"}, 1))
}
