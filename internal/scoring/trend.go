package scoring

import "github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"

// Trend classifies the direction of a node's uptime.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	trendWindow    = 10
	trendThreshold = 2.0
)

// UptimeTrend is the comparison of recent and older snapshot uptimes.
type UptimeTrend struct {
	Trend         Trend    `json:"trend"`
	RecentAverage *float64 `json:"recent_average,omitempty"`
	OlderAverage  *float64 `json:"older_average,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	SnapshotCount int      `json:"snapshot_count"`
}

// CalculateUptimeTrend compares the newest min(10, n) snapshots against the
// oldest min(10, n). With fewer than 20 snapshots the two windows overlap.
// Snapshots must be ordered newest first.
func CalculateUptimeTrend(snaps []stellarbeat.NodeSnapshot) UptimeTrend {
	t := UptimeTrend{Trend: TrendInsufficientData, SnapshotCount: len(snaps)}
	if len(snaps) < 2 {
		return t
	}

	w := min(trendWindow, len(snaps))
	recent := snapshotUptimeAverage(snaps[:w])
	older := snapshotUptimeAverage(snaps[len(snaps)-w:])
	if recent == nil || older == nil {
		return t
	}

	change := *recent - *older
	t.RecentAverage = ptr(Round(*recent, 2))
	t.OlderAverage = ptr(Round(*older, 2))
	t.Change = ptr(Round(change, 2))

	switch {
	case change > trendThreshold:
		t.Trend = TrendImproving
	case change < -trendThreshold:
		t.Trend = TrendDeclining
	default:
		t.Trend = TrendStable
	}
	return t
}

func snapshotUptimeAverage(snaps []stellarbeat.NodeSnapshot) *float64 {
	nodes := make([]stellarbeat.Node, len(snaps))
	for i, s := range snaps {
		nodes[i] = s.Node
	}
	return AverageUptime(nodes)
}

func ptr[T any](v T) *T { return &v }
