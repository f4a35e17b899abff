package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mbd888/stellarbeat-mcp/internal/scoring"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

const topN = 5

// NetworkStatus is the headline state of the network.
type NetworkStatus struct {
	Network       string                `json:"network"`
	Time          time.Time             `json:"time"`
	Nodes         scoring.NetworkCounts `json:"nodes"`
	Organizations int                   `json:"organizations"`
	HealthScore   float64               `json:"health_score"`
	Status        string                `json:"status"`
	TopCountries  []scoring.Count       `json:"top_countries"`
	TopVersions   []scoring.Count       `json:"top_versions"`
}

// NetworkConsensus is the consensus outlook of the validator set.
type NetworkConsensus struct {
	scoring.ConsensusInfo
	Method                     string `json:"quorum_intersection_method"`
	Validators                 int    `json:"validators"`
	ActiveValidators           int    `json:"active_validators"`
	UpstreamQuorumIntersection *bool  `json:"upstream_quorum_intersection,omitempty"`
	TopTierSize                *int   `json:"top_tier_size,omitempty"`
	MinBlockingSetSize         *int   `json:"min_blocking_set_size,omitempty"`
	MinSplittingSetSize        *int   `json:"min_splitting_set_size,omitempty"`
}

// NetworkDecentralization combines diversity metrics of the validator set.
type NetworkDecentralization struct {
	scoring.DecentralizationReport
	Validators           int                   `json:"validators"`
	VersionAnalysis      scoring.VersionReport `json:"version_analysis"`
	LargestOrganizations []OrganizationShare   `json:"largest_organizations"`
}

// OrganizationShare is one organization's slice of the validator set.
type OrganizationShare struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Validators int     `json:"validators"`
	Share      float64 `json:"share"`
}

// NetworkReport bundles status, consensus and decentralization.
type NetworkReport struct {
	Status           *NetworkStatus           `json:"status"`
	Consensus        *NetworkConsensus        `json:"consensus"`
	Decentralization *NetworkDecentralization `json:"decentralization"`
}

func (s *Service) network(ctx context.Context, at *time.Time) (stellarbeat.Network, error) {
	nw, err := s.up.Network(ctx, at)
	if err != nil {
		if at != nil {
			return nw, fmt.Errorf("fetch network at %s: %w", at.UTC().Format(time.RFC3339), err)
		}
		return nw, fmt.Errorf("fetch network: %w", err)
	}
	return nw, nil
}

// StatusOf derives the network status from a network view.
func StatusOf(nw stellarbeat.Network) *NetworkStatus {
	counts := scoring.CountNodes(nw.Nodes)
	score := scoring.NetworkHealthScore(nw.Nodes)

	countries := make([]string, len(nw.Nodes))
	versions := make([]string, len(nw.Nodes))
	for i, n := range nw.Nodes {
		countries[i] = n.CountryCode()
		versions[i] = n.VersionStr
	}

	return &NetworkStatus{
		Network:       nw.Name,
		Time:          nw.Time,
		Nodes:         counts,
		Organizations: len(nw.Organizations),
		HealthScore:   scoring.Round(score, 1),
		Status:        scoring.NetworkStatus(score, counts.Overloaded, counts.Active),
		TopCountries:  scoring.TopValues(countries, topN),
		TopVersions:   scoring.TopValues(versions, topN),
	}
}

// ConsensusOf derives consensus health from a network view.
func ConsensusOf(nw stellarbeat.Network) *NetworkConsensus {
	validators := scoring.Validators(nw.Nodes)
	c := &NetworkConsensus{
		ConsensusInfo: scoring.ConsensusHealth(validators),
		Method:        scoring.QuorumHeuristic,
		Validators:    len(validators),
	}
	for _, v := range validators {
		if v.Active {
			c.ActiveValidators++
		}
	}
	if st := nw.Statistics; st != nil {
		c.UpstreamQuorumIntersection = st.HasQuorumIntersection
		c.TopTierSize = st.TopTierSize
		c.MinBlockingSetSize = st.MinBlockingSetSize
		c.MinSplittingSetSize = st.MinSplittingSetSize
	}
	return c
}

// DecentralizationOf derives diversity metrics from a network view.
func DecentralizationOf(nw stellarbeat.Network) *NetworkDecentralization {
	validators := scoring.Validators(nw.Nodes)
	d := &NetworkDecentralization{
		DecentralizationReport: scoring.Decentralization(validators),
		Validators:             len(validators),
		VersionAnalysis:        scoring.AnalyzeVersions(validators),
	}

	names := make(map[string]string, len(nw.Organizations))
	for _, o := range nw.Organizations {
		names[o.ID] = o.Name
	}
	orgIDs := make([]string, 0, len(validators))
	for _, v := range validators {
		orgIDs = append(orgIDs, v.OrganizationID)
	}
	d.LargestOrganizations = []OrganizationShare{}
	for _, c := range scoring.TopValues(orgIDs, topN) {
		d.LargestOrganizations = append(d.LargestOrganizations, OrganizationShare{
			ID:         c.Key,
			Name:       names[c.Key],
			Validators: c.Count,
			Share:      scoring.Round(float64(c.Count)/float64(len(validators)), 4),
		})
	}
	return d
}

// NetworkStatus reports counts, health score and status.
func (s *Service) NetworkStatus(ctx context.Context, at *time.Time) (*NetworkStatus, error) {
	nw, err := s.network(ctx, at)
	if err != nil {
		return nil, err
	}
	return StatusOf(nw), nil
}

// NetworkConsensus reports consensus health of the validator set.
func (s *Service) NetworkConsensus(ctx context.Context, at *time.Time) (*NetworkConsensus, error) {
	nw, err := s.network(ctx, at)
	if err != nil {
		return nil, err
	}
	return ConsensusOf(nw), nil
}

// NetworkDecentralization reports organizational, geographic and version
// diversity.
func (s *Service) NetworkDecentralization(ctx context.Context, at *time.Time) (*NetworkDecentralization, error) {
	nw, err := s.network(ctx, at)
	if err != nil {
		return nil, err
	}
	return DecentralizationOf(nw), nil
}

// NetworkReport derives status, consensus and decentralization from a
// single network fetch.
func (s *Service) NetworkReport(ctx context.Context, at *time.Time) (*NetworkReport, error) {
	nw, err := s.network(ctx, at)
	if err != nil {
		return nil, err
	}
	return &NetworkReport{
		Status:           StatusOf(nw),
		Consensus:        ConsensusOf(nw),
		Decentralization: DecentralizationOf(nw),
	}, nil
}

// Trend directions for network comparisons.
const (
	DirectionImproving = "improving"
	DirectionDeclining = "declining"
	DirectionStable    = "stable"
)

// NetworkPoint is the state of the network at one time.
type NetworkPoint struct {
	Time          time.Time `json:"time"`
	Nodes         int       `json:"nodes"`
	ActiveNodes   int       `json:"active_nodes"`
	Validators    int       `json:"validators"`
	Overloaded    int       `json:"overloaded"`
	Organizations int       `json:"organizations"`
	HealthScore   float64   `json:"health_score"`
	SafetyLevel   int       `json:"safety_level"`
}

// NetworkDelta is the change between two points.
type NetworkDelta struct {
	Nodes         int     `json:"nodes"`
	ActiveNodes   int     `json:"active_nodes"`
	Validators    int     `json:"validators"`
	Overloaded    int     `json:"overloaded"`
	Organizations int     `json:"organizations"`
	HealthScore   float64 `json:"health_score"`
	SafetyLevel   int     `json:"safety_level"`
}

// NetworkTrends compares the network at two times.
type NetworkTrends struct {
	From      NetworkPoint `json:"from"`
	To        NetworkPoint `json:"to"`
	Change    NetworkDelta `json:"change"`
	Direction string       `json:"direction"`
}

func pointOf(nw stellarbeat.Network) NetworkPoint {
	counts := scoring.CountNodes(nw.Nodes)
	return NetworkPoint{
		Time:          nw.Time,
		Nodes:         counts.Total,
		ActiveNodes:   counts.Active,
		Validators:    counts.Validators,
		Overloaded:    counts.Overloaded,
		Organizations: len(nw.Organizations),
		HealthScore:   scoring.Round(scoring.NetworkHealthScore(nw.Nodes), 1),
		SafetyLevel:   scoring.ConsensusHealth(scoring.Validators(nw.Nodes)).SafetyLevel,
	}
}

// NetworkTrends fetches the network at since and at until (nil means now)
// concurrently and reports the change. A health score move of more than
// 2 points sets the direction.
func (s *Service) NetworkTrends(ctx context.Context, since time.Time, until *time.Time) (*NetworkTrends, error) {
	var past, current stellarbeat.Network
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		past, err = s.network(gctx, &since)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.network(gctx, until)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	from, to := pointOf(past), pointOf(current)
	t := &NetworkTrends{
		From: from,
		To:   to,
		Change: NetworkDelta{
			Nodes:         to.Nodes - from.Nodes,
			ActiveNodes:   to.ActiveNodes - from.ActiveNodes,
			Validators:    to.Validators - from.Validators,
			Overloaded:    to.Overloaded - from.Overloaded,
			Organizations: to.Organizations - from.Organizations,
			HealthScore:   scoring.Round(to.HealthScore-from.HealthScore, 1),
			SafetyLevel:   to.SafetyLevel - from.SafetyLevel,
		},
	}
	switch {
	case t.Change.HealthScore > 2:
		t.Direction = DirectionImproving
	case t.Change.HealthScore < -2:
		t.Direction = DirectionDeclining
	default:
		t.Direction = DirectionStable
	}
	return t, nil
}
