// Package scoring implements the derived metrics computed from upstream
// network data: node health, failure detection, validator ranking, uptime
// trends, network health and consensus, organization reliability and
// decentralization.
//
// Every function here is pure. Absent uptime figures are skipped when
// averaging and never read as 0%.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// AverageUptime averages the defined uptimes of nodes. It returns nil when
// no node has an uptime figure.
func AverageUptime(nodes []stellarbeat.Node) *float64 {
	var sum float64
	var n int
	for _, node := range nodes {
		if u := node.Uptime(); u != nil {
			sum += *u
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// Validators returns the nodes currently flagged as validating.
func Validators(nodes []stellarbeat.Node) []stellarbeat.Node {
	out := make([]stellarbeat.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsValidating {
			out = append(out, n)
		}
	}
	return out
}

// Count is one entry of a frequency table.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// CountValues tallies non-empty values, most frequent first; ties are
// ordered by key so output is deterministic.
func CountValues(values []string) []Count {
	tally := make(map[string]int)
	for _, v := range values {
		if v != "" {
			tally[v]++
		}
	}
	out := make([]Count, 0, len(tally))
	for k, c := range tally {
		out = append(out, Count{Key: k, Count: c})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// TopValues is CountValues truncated to n entries.
func TopValues(values []string, n int) []Count {
	counts := CountValues(values)
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
