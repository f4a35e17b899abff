// Package testutil provides a canned Stellarbeat upstream and a small
// fixture network shared by the tool, workflow and adapter tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// Upstream serves canned data and records every call. Entries in Errs fail
// the named call ("nodes", "node:<key>", "snapshots:<key>", "network",
// "organizations", "organization:<id>", "orgsnapshots:<id>").
//
// Current is returned for the latest network, Past for any dated request
// when it is set.
type Upstream struct {
	mu sync.Mutex

	Current      stellarbeat.Network
	Past         stellarbeat.Network
	NodeList     []stellarbeat.Node
	Snapshots    map[string][]stellarbeat.NodeSnapshot
	Orgs         []stellarbeat.Organization
	OrgSnapshots map[string][]stellarbeat.OrganizationSnapshot
	Errs         map[string]error

	calls []string
	ats   []*time.Time
}

func (u *Upstream) record(call string, at *time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, call)
	u.ats = append(u.ats, at)
	return u.Errs[call]
}

// Calls returns the recorded call names in order.
func (u *Upstream) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

// Ats returns the at argument of every recorded call.
func (u *Upstream) Ats() []*time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]*time.Time(nil), u.ats...)
}

// CallCount counts recorded calls starting with prefix.
func (u *Upstream) CallCount(prefix string) int {
	n := 0
	for _, c := range u.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// NotFound is the error the client returns for a 404.
func NotFound(path string) error {
	return &stellarbeat.APIError{Kind: stellarbeat.KindNotFound, StatusCode: 404, Endpoint: path, Message: "not found"}
}

func (u *Upstream) Network(_ context.Context, at *time.Time) (stellarbeat.Network, error) {
	if err := u.record("network", at); err != nil {
		return stellarbeat.Network{}, err
	}
	if at != nil && u.Past.ID != "" {
		return u.Past, nil
	}
	return u.Current, nil
}

func (u *Upstream) Nodes(_ context.Context, at *time.Time) ([]stellarbeat.Node, error) {
	if err := u.record("nodes", at); err != nil {
		return nil, err
	}
	return u.NodeList, nil
}

func (u *Upstream) Node(_ context.Context, key string, at *time.Time) (stellarbeat.Node, error) {
	if err := u.record("node:"+key, at); err != nil {
		return stellarbeat.Node{}, err
	}
	for _, n := range u.NodeList {
		if n.PublicKey == key {
			return n, nil
		}
	}
	return stellarbeat.Node{}, NotFound("/v1/node/" + key)
}

func (u *Upstream) NodeSnapshots(_ context.Context, key string, at *time.Time) ([]stellarbeat.NodeSnapshot, error) {
	if err := u.record("snapshots:"+key, at); err != nil {
		return nil, err
	}
	return u.Snapshots[key], nil
}

func (u *Upstream) Organizations(_ context.Context, at *time.Time) ([]stellarbeat.Organization, error) {
	if err := u.record("organizations", at); err != nil {
		return nil, err
	}
	return u.Orgs, nil
}

func (u *Upstream) Organization(_ context.Context, id string, at *time.Time) (stellarbeat.Organization, error) {
	if err := u.record("organization:"+id, at); err != nil {
		return stellarbeat.Organization{}, err
	}
	for _, o := range u.Orgs {
		if o.ID == id {
			return o, nil
		}
	}
	return stellarbeat.Organization{}, NotFound("/v1/organization/" + id)
}

func (u *Upstream) OrganizationSnapshots(_ context.Context, id string, at *time.Time) ([]stellarbeat.OrganizationSnapshot, error) {
	if err := u.record("orgsnapshots:"+id, at); err != nil {
		return nil, err
	}
	return u.OrgSnapshots[id], nil
}

// Pct builds statistics with a 24h active percentage.
func Pct(v float64) *stellarbeat.NodeStatistics {
	return &stellarbeat.NodeStatistics{Active24HoursPercentage: &v}
}

// FixtureTime is the crawl time of the fixture network.
var FixtureTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Fixture is a small network: three organizations, five validators and two
// watchers, one of them failing. Organization satoshipay lists an unknown
// validator and "empty" lists none.
func Fixture() *Upstream {
	nodes := []stellarbeat.Node{
		{PublicKey: "GV1", Name: "sdf-1", Active: true, IsValidating: true, VersionStr: "stellar-core 21.0.0", OrganizationID: "sdf", GeoData: &stellarbeat.GeoData{CountryCode: "US"}, Statistics: Pct(99.9)},
		{PublicKey: "GV2", Name: "sdf-2", Active: true, IsValidating: true, VersionStr: "stellar-core 21.0.0", OrganizationID: "sdf", GeoData: &stellarbeat.GeoData{CountryCode: "DE"}, Statistics: Pct(98)},
		{PublicKey: "GV3", Name: "lobstr-1", Active: true, IsValidating: true, VersionStr: "stellar-core 20.4.0", OrganizationID: "lobstr", GeoData: &stellarbeat.GeoData{CountryCode: "FI"}, Statistics: Pct(97)},
		{PublicKey: "GV4", Name: "lobstr-2", Active: true, IsValidating: true, OverLoaded: true, VersionStr: "stellar-core 20.4.0", OrganizationID: "lobstr", GeoData: &stellarbeat.GeoData{CountryCode: "FI"}, Statistics: Pct(85)},
		{PublicKey: "GV5", Name: "satoshipay-1", Active: true, IsValidating: true, VersionStr: "stellar-core 21.0.0", OrganizationID: "satoshipay", GeoData: &stellarbeat.GeoData{CountryCode: "SG"}, Statistics: Pct(99)},
		{PublicKey: "GW1", Name: "watcher", Active: true, VersionStr: "stellar-core 19.0.0", GeoData: &stellarbeat.GeoData{CountryCode: "US"}, Statistics: Pct(88)},
		{PublicKey: "GW2", Name: "broken", Active: false, GeoData: &stellarbeat.GeoData{CountryCode: "BR"}, Statistics: Pct(40)},
	}
	orgs := []stellarbeat.Organization{
		{ID: "sdf", Name: "Stellar Development Foundation", HomeDomain: "stellar.org", Validators: []string{"GV1", "GV2"}, IsTierOneOrganization: true},
		{ID: "lobstr", Name: "LOBSTR", HomeDomain: "lobstr.co", Validators: []string{"GV3", "GV4"}, IsTierOneOrganization: true},
		{ID: "satoshipay", Name: "SatoshiPay", Validators: []string{"GV5", "GGONE"}},
		{ID: "empty", Name: "Empty Org"},
	}
	hasQI := true
	return &Upstream{
		Current: stellarbeat.Network{
			ID: "public", Name: "Public Global Stellar Network", Time: FixtureTime,
			Nodes: nodes, Organizations: orgs,
			Statistics: &stellarbeat.NetworkStatistics{HasQuorumIntersection: &hasQI},
		},
		NodeList:     nodes,
		Orgs:         orgs,
		Snapshots:    map[string][]stellarbeat.NodeSnapshot{},
		OrgSnapshots: map[string][]stellarbeat.OrganizationSnapshot{},
		Errs:         map[string]error{},
	}
}

// History builds newest-first daily snapshots from active flags.
func History(active ...bool) []stellarbeat.NodeSnapshot {
	out := make([]stellarbeat.NodeSnapshot, len(active))
	for i, a := range active {
		out[i] = stellarbeat.NodeSnapshot{
			StartDate: FixtureTime.AddDate(0, 0, -i),
			Node:      stellarbeat.Node{Active: a, Statistics: Pct(99)},
		}
	}
	return out
}
