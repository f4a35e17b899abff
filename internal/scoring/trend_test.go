package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateUptimeTrend(t *testing.T) {
	tests := []struct {
		name    string
		uptimes []*float64
		trend   Trend
	}{
		{"no snapshots", nil, TrendInsufficientData},
		{"single snapshot", uptimeSeries(99), TrendInsufficientData},
		{"stable", uptimeSeries(99, 98, 99, 98), TrendStable},
		{"improving", twoPhase(99, 90), TrendImproving},
		{"declining", twoPhase(90, 99), TrendDeclining},
		{"small change", twoPhase(96, 95), TrendStable},
		{"no defined uptime", []*float64{nil, nil, nil}, TrendInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.uptimes)
			got := CalculateUptimeTrend(snapshots(allActive(n), tt.uptimes))
			assert.Equal(t, tt.trend, got.Trend)
			assert.Equal(t, n, got.SnapshotCount)
		})
	}
}

// twoPhase builds 20 snapshots: ten recent at one uptime, ten older at another.
func twoPhase(recent, older float64) []*float64 {
	out := make([]*float64, 20)
	for i := range out {
		if i < 10 {
			out[i] = fptr(recent)
		} else {
			out[i] = fptr(older)
		}
	}
	return out
}

// With fewer than 20 snapshots both windows cover every snapshot, so the
// averages coincide.
func TestCalculateUptimeTrend_OverlappingWindows(t *testing.T) {
	vals := make([]float64, 10)
	for i := range vals {
		vals[i] = 100 - float64(i)*3
	}
	got := CalculateUptimeTrend(snapshots(allActive(10), uptimeSeries(vals...)))

	require.NotNil(t, got.Change)
	assert.Equal(t, TrendStable, got.Trend)
	assert.Equal(t, 0.0, *got.Change)
	assert.Equal(t, *got.RecentAverage, *got.OlderAverage)
}

func TestCalculateUptimeTrend_DisjointWindows(t *testing.T) {
	got := CalculateUptimeTrend(snapshots(allActive(20), twoPhase(95, 85)))

	assert.Equal(t, TrendImproving, got.Trend)
	assert.InDelta(t, 10.0, *got.Change, 0.001)
}

func TestCalculateUptimeTrend_SkipsUndefined(t *testing.T) {
	uptimes := []*float64{fptr(99), nil, nil, fptr(90)}
	got := CalculateUptimeTrend(snapshots(allActive(4), uptimes))

	// Both windows contain both defined values.
	assert.Equal(t, TrendStable, got.Trend)
	assert.InDelta(t, 94.5, *got.RecentAverage, 0.001)
}
