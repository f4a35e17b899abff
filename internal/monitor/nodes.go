package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mbd888/stellarbeat-mcp/internal/pagination"
	"github.com/mbd888/stellarbeat-mcp/internal/scoring"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
	"github.com/mbd888/stellarbeat-mcp/internal/validation"
)

// SearchNodesParams filters a node search. Empty fields match everything.
type SearchNodesParams struct {
	Query          string
	Country        string
	OrganizationID string
	ActiveOnly     bool
	ValidatorsOnly bool
	Limit          int
	Cursor         string
}

// SearchNodesResult is one page of matching nodes.
type SearchNodesResult struct {
	Nodes []NodeSummary   `json:"nodes"`
	Page  pagination.Info `json:"page"`
}

func (p SearchNodesParams) matches(n stellarbeat.Node) bool {
	if p.ActiveOnly && !n.Active {
		return false
	}
	if p.ValidatorsOnly && !n.IsValidating {
		return false
	}
	if p.Country != "" && !strings.EqualFold(n.CountryCode(), p.Country) {
		return false
	}
	if p.OrganizationID != "" && n.OrganizationID != p.OrganizationID {
		return false
	}
	if p.Query == "" {
		return true
	}
	q := strings.ToLower(p.Query)
	for _, field := range []string{n.PublicKey, n.Name, n.Host, n.HomeDomain} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// SearchNodes filters all nodes and returns one page in upstream order.
func (s *Service) SearchNodes(ctx context.Context, p SearchNodesParams) (*SearchNodesResult, error) {
	p.Query = validation.SanitizeString(p.Query, validation.MaxStringLength)

	nodes, err := s.up.Nodes(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch nodes: %w", err)
	}

	matched := make([]NodeSummary, 0)
	for _, n := range nodes {
		if p.matches(n) {
			matched = append(matched, summarize(n))
		}
	}

	page, info, err := pagination.Page(matched, p.Cursor, p.Limit)
	if err != nil {
		return nil, validation.ValidationErrors{{Field: "cursor", Message: err.Error()}}
	}
	return &SearchNodesResult{Nodes: page, Page: info}, nil
}

// NodeDetails is a single node with its derived health.
type NodeDetails struct {
	NodeSummary
	IP               string              `json:"ip,omitempty"`
	QuorumSetHashKey string              `json:"quorum_set_hash_key,omitempty"`
	Latitude         *float64            `json:"latitude,omitempty"`
	Longitude        *float64            `json:"longitude,omitempty"`
	Validating30d    *float64            `json:"validating_30d,omitempty"`
	Overloaded24h    *float64            `json:"overloaded_24h,omitempty"`
	DateDiscovered   *time.Time          `json:"date_discovered,omitempty"`
	Health           scoring.HealthCheck `json:"health"`
}

// GetNodeDetails fetches one node, optionally as it was at a past time.
func (s *Service) GetNodeDetails(ctx context.Context, publicKey string, at *time.Time) (*NodeDetails, error) {
	n, err := s.up.Node(ctx, publicKey, at)
	if err != nil {
		return nil, fmt.Errorf("fetch node %s: %w", publicKey, err)
	}
	return detailsOf(n), nil
}

func detailsOf(n stellarbeat.Node) *NodeDetails {
	d := &NodeDetails{
		NodeSummary:      summarize(n),
		IP:               n.IP,
		QuorumSetHashKey: n.QuorumSetHashKey,
		DateDiscovered:   n.DateDiscovered,
		Health:           scoring.CheckNodeHealth(n),
	}
	if n.GeoData != nil {
		d.Latitude = n.GeoData.Latitude
		d.Longitude = n.GeoData.Longitude
	}
	if n.Statistics != nil {
		d.Validating30d = roundPtr(n.Statistics.Validating30DaysPercentage, 2)
		d.Overloaded24h = roundPtr(n.Statistics.OverLoaded24HoursPercentage, 2)
	}
	return d
}

// NodeHealth is the health check of one node.
type NodeHealth struct {
	PublicKey string `json:"public_key"`
	Name      string `json:"name,omitempty"`
	scoring.HealthCheck
}

// CheckNodeHealth scores one node's current state.
func (s *Service) CheckNodeHealth(ctx context.Context, publicKey string) (*NodeHealth, error) {
	n, err := s.up.Node(ctx, publicKey, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch node %s: %w", publicKey, err)
	}
	return &NodeHealth{
		PublicKey:   n.PublicKey,
		Name:        n.Name,
		HealthCheck: scoring.CheckNodeHealth(n),
	}, nil
}

// NodeUptimeTrend is a node's uptime history analysis.
type NodeUptimeTrend struct {
	PublicKey      string              `json:"public_key"`
	Name           string              `json:"name,omitempty"`
	CurrentUptime  *float64            `json:"current_uptime,omitempty"`
	Trend          scoring.UptimeTrend `json:"trend"`
	Stability      float64             `json:"stability"`
	DowntimeEvents int                 `json:"downtime_events"`
	HistoryDays    float64             `json:"history_days"`
}

// fetchNodeWithHistory loads a node and its snapshots concurrently.
func (s *Service) fetchNodeWithHistory(ctx context.Context, publicKey string) (stellarbeat.Node, []stellarbeat.NodeSnapshot, error) {
	var (
		n     stellarbeat.Node
		snaps []stellarbeat.NodeSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		n, err = s.up.Node(gctx, publicKey, nil)
		if err != nil {
			return fmt.Errorf("fetch node %s: %w", publicKey, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snaps, err = s.up.NodeSnapshots(gctx, publicKey, nil)
		if err != nil {
			return fmt.Errorf("fetch snapshots for node %s: %w", publicKey, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stellarbeat.Node{}, nil, err
	}
	return n, snaps, nil
}

func uptimeTrendOf(n stellarbeat.Node, snaps []stellarbeat.NodeSnapshot) *NodeUptimeTrend {
	return &NodeUptimeTrend{
		PublicKey:      n.PublicKey,
		Name:           n.Name,
		CurrentUptime:  roundPtr(n.Uptime(), 2),
		Trend:          scoring.CalculateUptimeTrend(snaps),
		Stability:      scoring.Round(scoring.StabilityScore(snaps), 3),
		DowntimeEvents: scoring.DowntimeEvents(snaps),
		HistoryDays:    scoring.Round(scoring.AgeDays(snaps), 1),
	}
}

// NodeUptimeTrend classifies a node's uptime history.
func (s *Service) NodeUptimeTrend(ctx context.Context, publicKey string) (*NodeUptimeTrend, error) {
	n, snaps, err := s.fetchNodeWithHistory(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	return uptimeTrendOf(n, snaps), nil
}

// NodeProfile loads a node and its history concurrently and derives both
// its details and its uptime trend.
func (s *Service) NodeProfile(ctx context.Context, publicKey string) (*NodeDetails, *NodeUptimeTrend, error) {
	n, snaps, err := s.fetchNodeWithHistory(ctx, publicKey)
	if err != nil {
		return nil, nil, err
	}
	return detailsOf(n), uptimeTrendOf(n, snaps), nil
}

// FailingNode is a node with at least one detected issue.
type FailingNode struct {
	NodeSummary
	Severity scoring.Severity `json:"severity"`
	Issues   []string         `json:"issues"`
}

// FailingNodesResult is one page of failing nodes.
type FailingNodesResult struct {
	Severity      string          `json:"severity_filter"`
	CriticalCount int             `json:"critical_count"`
	WarningCount  int             `json:"warning_count"`
	Nodes         []FailingNode   `json:"nodes"`
	Page          pagination.Info `json:"page"`
}

// DetectFailing returns every node with issues that passes the filter, in
// input order.
func DetectFailing(nodes []stellarbeat.Node, severity string) []FailingNode {
	out := make([]FailingNode, 0)
	for _, n := range nodes {
		ni := scoring.DetectNodeIssues(n)
		if !ni.Failing() || !scoring.MatchesSeverity(ni.Severity, severity) {
			continue
		}
		out = append(out, FailingNode{NodeSummary: summarize(n), Severity: ni.Severity, Issues: ni.Issues})
	}
	return out
}

// FailingNodes lists all failing nodes, unpaged.
func (s *Service) FailingNodes(ctx context.Context, severity string) ([]FailingNode, []stellarbeat.Node, error) {
	nodes, err := s.up.Nodes(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch nodes: %w", err)
	}
	return DetectFailing(nodes, severity), nodes, nil
}

// FindFailingNodes returns one page of failing nodes.
func (s *Service) FindFailingNodes(ctx context.Context, severity string, limit int, cursor string) (*FailingNodesResult, error) {
	if severity == "" {
		severity = scoring.FilterAll
	}
	failing, _, err := s.FailingNodes(ctx, severity)
	if err != nil {
		return nil, err
	}

	r := &FailingNodesResult{Severity: severity}
	for _, f := range failing {
		if f.Severity == scoring.SeverityCritical {
			r.CriticalCount++
		} else {
			r.WarningCount++
		}
	}
	r.Nodes, r.Page, err = pagination.Page(failing, cursor, limit)
	if err != nil {
		return nil, validation.ValidationErrors{{Field: "cursor", Message: err.Error()}}
	}
	return r, nil
}

// NodeComparison is one node's row in a comparison.
type NodeComparison struct {
	NodeSummary
	Health scoring.HealthCheck `json:"health"`
}

// BestNodes names the leading node per metric. Empty when no node has a
// value for the metric.
type BestNodes struct {
	HealthScore string `json:"health_score"`
	Uptime      string `json:"uptime,omitempty"`
	Uptime30d   string `json:"uptime_30d,omitempty"`
}

// CompareResult compares several nodes side by side.
type CompareResult struct {
	Nodes []NodeComparison `json:"nodes"`
	Best  BestNodes        `json:"best"`
}

// CompareNodes fetches the given nodes concurrently and compares them.
// Ties go to the node listed first.
func (s *Service) CompareNodes(ctx context.Context, publicKeys []string) (*CompareResult, error) {
	if errs := validation.Validate(validation.MinItems("public_keys", publicKeys, 2)); len(errs) > 0 {
		return nil, errs
	}

	nodes := make([]stellarbeat.Node, len(publicKeys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range publicKeys {
		g.Go(func() error {
			n, err := s.up.Node(gctx, key, nil)
			if err != nil {
				return fmt.Errorf("fetch node %s: %w", key, err)
			}
			nodes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &CompareResult{Nodes: make([]NodeComparison, len(nodes))}
	bestHealth, bestUp, bestUp30 := -1, -1.0, -1.0
	for i, n := range nodes {
		c := NodeComparison{NodeSummary: summarize(n), Health: scoring.CheckNodeHealth(n)}
		r.Nodes[i] = c
		if c.Health.Score > bestHealth {
			bestHealth = c.Health.Score
			r.Best.HealthScore = n.PublicKey
		}
		if c.Uptime24h != nil && *c.Uptime24h > bestUp {
			bestUp = *c.Uptime24h
			r.Best.Uptime = n.PublicKey
		}
		if c.Uptime30d != nil && *c.Uptime30d > bestUp30 {
			bestUp30 = *c.Uptime30d
			r.Best.Uptime30d = n.PublicKey
		}
	}
	return r, nil
}

// RankedValidator is one row of a ranking with rounded scores.
type RankedValidator struct {
	Rank           int                     `json:"rank"`
	PublicKey      string                  `json:"public_key"`
	Name           string                  `json:"name,omitempty"`
	OrganizationID string                  `json:"organization_id,omitempty"`
	Score          float64                 `json:"score"`
	Scores         scoring.CriterionScores `json:"scores"`
	Stability      float64                 `json:"stability"`
	DowntimeEvents int                     `json:"downtime_events"`
	Trend          scoring.Trend           `json:"trend"`
}

// RankingResult is one page of a validator ranking.
type RankingResult struct {
	SortBy     scoring.Criterion    `json:"sort_by"`
	Stats      scoring.RankingStats `json:"stats"`
	Validators []RankedValidator    `json:"validators"`
	Page       pagination.Info      `json:"page"`
}

// RankedView rounds a ranking row for output.
func RankedView(r scoring.RankedValidator) RankedValidator {
	return RankedValidator{
		Rank:           r.Rank,
		PublicKey:      r.Node.PublicKey,
		Name:           r.Node.Name,
		OrganizationID: r.Node.OrganizationID,
		Score:          scoring.Round(r.Score, 2),
		Scores: scoring.CriterionScores{
			Uptime:      scoring.Round(r.Scores.Uptime, 2),
			Performance: scoring.Round(r.Scores.Performance, 2),
			Reliability: scoring.Round(r.Scores.Reliability, 2),
			Age:         scoring.Round(r.Scores.Age, 1),
		},
		Stability:      scoring.Round(r.Stability, 3),
		DowntimeEvents: r.DowntimeEvents,
		Trend:          r.Trend,
	}
}

// RankAll ranks every validator by the criterion. Snapshot histories are
// fetched on the worker pool only when the criterion uses them; the result
// does not depend on fetch order.
func (s *Service) RankAll(ctx context.Context, by scoring.Criterion) ([]scoring.RankedValidator, error) {
	nodes, err := s.up.Nodes(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch nodes: %w", err)
	}
	validators := scoring.Validators(nodes)

	inputs := make([]scoring.RankInput, len(validators))
	for i, v := range validators {
		inputs[i].Node = v
	}

	if by.NeedsHistory() && len(validators) > 0 {
		group := s.pool.NewGroupContext(ctx)
		gctx := group.Context()
		for i := range inputs {
			group.SubmitErr(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				key := inputs[i].Node.PublicKey
				snaps, err := s.up.NodeSnapshots(gctx, key, nil)
				if err != nil {
					return fmt.Errorf("fetch snapshots for node %s: %w", key, err)
				}
				inputs[i].Snapshots = snaps
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			if errors.Is(err, pond.ErrGroupStopped) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
	}

	return scoring.RankValidators(inputs, by), nil
}

// RankValidators ranks all validators and returns one page. Statistics
// cover the whole ranking.
func (s *Service) RankValidators(ctx context.Context, sortBy string, limit int, cursor string) (*RankingResult, error) {
	by, err := scoring.ParseCriterion(sortBy)
	if err != nil {
		return nil, validation.ValidationErrors{{Field: "sort_by", Message: err.Error()}}
	}
	// Reject a bad cursor before spending requests.
	if _, err := pagination.Decode(cursor); err != nil {
		return nil, validation.ValidationErrors{{Field: "cursor", Message: err.Error()}}
	}

	ranked, err := s.RankAll(ctx, by)
	if err != nil {
		return nil, err
	}

	stats := scoring.SummarizeRanking(ranked)
	stats.AverageScore = scoring.Round(stats.AverageScore, 2)
	stats.TopScore = scoring.Round(stats.TopScore, 2)

	page, info, err := pagination.Page(ranked, cursor, limit)
	if err != nil {
		return nil, validation.ValidationErrors{{Field: "cursor", Message: err.Error()}}
	}
	views := make([]RankedValidator, len(page))
	for i, r := range page {
		views[i] = RankedView(r)
	}
	return &RankingResult{SortBy: by, Stats: stats, Validators: views, Page: info}, nil
}
