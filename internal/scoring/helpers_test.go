package scoring

import (
	"time"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func uptime(v float64) *stellarbeat.NodeStatistics {
	return &stellarbeat.NodeStatistics{Active24HoursPercentage: &v}
}

type nodeOpt func(*stellarbeat.Node)

func inactive(n *stellarbeat.Node)   { n.Active = false }
func overloaded(n *stellarbeat.Node) { n.OverLoaded = true }
func validating(n *stellarbeat.Node) { n.IsValidating = true }
func noVersion(n *stellarbeat.Node)  { n.VersionStr = "" }

func withUptime(v float64) nodeOpt {
	return func(n *stellarbeat.Node) { n.Statistics = uptime(v) }
}

func withOrg(id string) nodeOpt {
	return func(n *stellarbeat.Node) { n.OrganizationID = id }
}

func withCountry(cc string) nodeOpt {
	return func(n *stellarbeat.Node) { n.GeoData = &stellarbeat.GeoData{CountryCode: cc} }
}

func withVersion(v string) nodeOpt {
	return func(n *stellarbeat.Node) { n.VersionStr = v }
}

// node returns a healthy active node with a version and no uptime figure.
func node(key string, opts ...nodeOpt) stellarbeat.Node {
	n := stellarbeat.Node{PublicKey: key, Active: true, VersionStr: "stellar-core 21.0.0"}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

var snapshotBase = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// snapshots builds newest-first snapshots, one day apart, from the given
// active flags and uptimes (nil entries leave uptime undefined).
func snapshots(active []bool, uptimes []*float64) []stellarbeat.NodeSnapshot {
	out := make([]stellarbeat.NodeSnapshot, len(active))
	for i := range active {
		n := stellarbeat.Node{Active: active[i]}
		if uptimes != nil && uptimes[i] != nil {
			n.Statistics = uptime(*uptimes[i])
		}
		out[i] = stellarbeat.NodeSnapshot{
			StartDate: snapshotBase.AddDate(0, 0, -i),
			Node:      n,
		}
	}
	return out
}

func fptr(v float64) *float64 { return &v }

func uptimeSeries(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		out[i] = fptr(v)
	}
	return out
}

func allActive(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}
