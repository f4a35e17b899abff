// Package workflow composes the monitoring tools into multi-step reports.
// Each workflow runs its steps (concurrently where they are independent),
// merges the outputs and appends recommendations from threshold checks. A
// failing step aborts the whole workflow; there are no retries and no
// partial results.
package workflow

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mbd888/stellarbeat-mcp/internal/monitor"
	"github.com/mbd888/stellarbeat-mcp/internal/scoring"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
	"github.com/mbd888/stellarbeat-mcp/internal/validation"
)

// Default and maximum number of validators a selection returns.
const (
	DefaultSelectionCount = 5
	MaxSelectionCount     = 50
)

// Composer runs workflows on top of a monitor.Service.
type Composer struct {
	svc *monitor.Service
}

// New creates a Composer.
func New(svc *monitor.Service) *Composer {
	return &Composer{svc: svc}
}

// HealthAudit is the output of NetworkHealthAudit.
type HealthAudit struct {
	Status           *monitor.NetworkStatus           `json:"status"`
	Consensus        *monitor.NetworkConsensus        `json:"consensus"`
	Decentralization *monitor.NetworkDecentralization `json:"decentralization"`
	CriticalNodes    []monitor.FailingNode            `json:"critical_nodes"`
	Recommendations  []string                         `json:"recommendations"`
}

// NetworkHealthAudit combines status, consensus, decentralization and the
// critical failing nodes.
func (c *Composer) NetworkHealthAudit(ctx context.Context) (*HealthAudit, error) {
	var (
		report   *monitor.NetworkReport
		critical []monitor.FailingNode
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = c.svc.NetworkReport(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		critical, _, err = c.svc.FailingNodes(gctx, scoring.FilterCritical)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &HealthAudit{
		Status:           report.Status,
		Consensus:        report.Consensus,
		Decentralization: report.Decentralization,
		CriticalNodes:    critical,
	}

	var recs []string
	if a.Status.Status == scoring.NetworkFair || a.Status.Status == scoring.NetworkPoor {
		recs = append(recs, fmt.Sprintf("Network health is %s (score %.1f): investigate inactive and overloaded nodes", a.Status.Status, a.Status.HealthScore))
	}
	for _, issue := range a.Consensus.Issues {
		recs = append(recs, "Consensus: "+issue)
	}
	if a.Decentralization.Countries < 10 {
		recs = append(recs, fmt.Sprintf("Validators span only %d countries: geographic diversity is limited", a.Decentralization.Countries))
	}
	if behind := a.Decentralization.VersionAnalysis.NodesBehind; behind > 0 {
		recs = append(recs, fmt.Sprintf("%d validators run a version older than %s", behind, a.Decentralization.VersionAnalysis.Latest))
	}
	if len(critical) > 0 {
		recs = append(recs, fmt.Sprintf("%d nodes are in critical state and need attention", len(critical)))
	}
	a.Recommendations = orDefault(recs, "No action needed: network is healthy")
	return a, nil
}

// NodeDeepDive is the output of NodeDeepDive.
type NodeDeepDive struct {
	Node            *monitor.NodeDetails             `json:"node"`
	Uptime          *monitor.NodeUptimeTrend         `json:"uptime"`
	Organization    *monitor.OrganizationReliability `json:"organization,omitempty"`
	Recommendations []string                         `json:"recommendations"`
}

// NodeDeepDive fetches a node with its history, then scores its
// organization when it belongs to one.
func (c *Composer) NodeDeepDive(ctx context.Context, publicKey string) (*NodeDeepDive, error) {
	if errs := validation.Validate(validation.Required("public_key", publicKey)); len(errs) > 0 {
		return nil, errs
	}

	details, trend, err := c.svc.NodeProfile(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	d := &NodeDeepDive{Node: details, Uptime: trend}

	if details.OrganizationID != "" {
		d.Organization, err = c.svc.OrganizationReliability(ctx, details.OrganizationID)
		if err != nil {
			return nil, err
		}
	}

	var recs []string
	if details.Health.Status != scoring.StatusHealthy {
		recs = append(recs, fmt.Sprintf("Node health is %s: %s", details.Health.Status, strings.Join(details.Health.Issues, "; ")))
	}
	if trend.Trend.Trend == scoring.TrendDeclining {
		recs = append(recs, "Uptime is declining: check host resources and connectivity")
	}
	if trend.DowntimeEvents > 0 {
		recs = append(recs, fmt.Sprintf("%d downtime events in recorded history", trend.DowntimeEvents))
	}
	if trend.Trend.SnapshotCount >= 2 && trend.Stability < 0.8 {
		recs = append(recs, fmt.Sprintf("Availability is unstable (stability %.2f)", trend.Stability))
	}
	if details.Version == "" {
		recs = append(recs, "Software version is not reported")
	}
	if d.Organization != nil && d.Organization.Score < 70 {
		recs = append(recs, fmt.Sprintf("Operating organization %s is graded %s", d.Organization.Name, d.Organization.Grade))
	}
	d.Recommendations = orDefault(recs, "Node is healthy and stable")
	return d, nil
}

// OrganizationAudit is the output of OrganizationAudit.
type OrganizationAudit struct {
	*monitor.OrganizationProfile
	History         *monitor.OrganizationHistory `json:"history"`
	Recommendations []string                     `json:"recommendations"`
}

// OrganizationAudit combines organization detail, member health,
// reliability and history.
func (c *Composer) OrganizationAudit(ctx context.Context, id string) (*OrganizationAudit, error) {
	if errs := validation.Validate(validation.Required("organization_id", id)); len(errs) > 0 {
		return nil, errs
	}

	var (
		profile *monitor.OrganizationProfile
		history *monitor.OrganizationHistory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = c.svc.OrganizationProfile(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = c.svc.OrganizationHistory(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &OrganizationAudit{OrganizationProfile: profile, History: history}

	var recs []string
	rel := profile.Reliability
	if rel.Grade == scoring.GradeNone {
		recs = append(recs, "No nodes found: the organization publishes no reachable validators")
	} else if rel.Score < 80 {
		recs = append(recs, fmt.Sprintf("Reliability grade %s (score %d): %s", rel.Grade, rel.Score, strings.Join(rel.Issues, "; ")))
	}
	unhealthy := 0
	for _, n := range profile.Nodes {
		if n.Health.Status != scoring.StatusHealthy {
			unhealthy++
		}
	}
	if unhealthy > 0 {
		recs = append(recs, fmt.Sprintf("%d of %d nodes are not healthy", unhealthy, len(profile.Nodes)))
	}
	if len(profile.Unresolved) > 0 {
		recs = append(recs, fmt.Sprintf("%d listed validators are unknown to the network", len(profile.Unresolved)))
	}
	if profile.Organization.TierOne && rel.Score < 90 {
		recs = append(recs, "Tier-one organization below grade A: network safety depends on it")
	}
	if history.ValidatorChanges > 3 {
		recs = append(recs, fmt.Sprintf("Validator set changed %d times in recorded history", history.ValidatorChanges))
	}
	a.Recommendations = orDefault(recs, "Organization is operating reliably")
	return a, nil
}

// ValidatorSelection is the output of SelectValidators.
type ValidatorSelection struct {
	SortBy          scoring.Criterion               `json:"sort_by"`
	Requested       int                             `json:"requested"`
	Candidates      int                             `json:"candidates"`
	Selected        []monitor.RankedValidator       `json:"selected"`
	Consensus       scoring.ConsensusInfo           `json:"consensus"`
	Diversity       scoring.OrganizationalDiversity `json:"diversity"`
	Recommendations []string                        `json:"recommendations"`
}

// SelectValidators ranks all validators and greedily picks the best ones,
// at most one per organization.
func (c *Composer) SelectValidators(ctx context.Context, count int, sortBy string) (*ValidatorSelection, error) {
	if count == 0 {
		count = DefaultSelectionCount
	}
	if count < 1 || count > MaxSelectionCount {
		return nil, validation.ValidationErrors{{Field: "count", Message: fmt.Sprintf("must be between 1 and %d", MaxSelectionCount)}}
	}
	by, err := scoring.ParseCriterion(sortBy)
	if err != nil {
		return nil, validation.ValidationErrors{{Field: "sort_by", Message: err.Error()}}
	}

	ranked, err := c.svc.RankAll(ctx, by)
	if err != nil {
		return nil, err
	}

	sel := &ValidatorSelection{SortBy: by, Requested: count, Candidates: len(ranked), Selected: []monitor.RankedValidator{}}
	seen := make(map[string]bool)
	var picked []stellarbeat.Node
	downtime := 0
	for _, r := range ranked {
		if len(picked) == count {
			break
		}
		key := scoring.OrganizationKey(r.Node)
		if seen[key] {
			continue
		}
		seen[key] = true
		picked = append(picked, r.Node)
		if r.DowntimeEvents > 0 {
			downtime++
		}
		sel.Selected = append(sel.Selected, monitor.RankedView(r))
	}
	sel.Consensus = scoring.ConsensusHealth(picked)
	sel.Diversity = scoring.OrganizationalEntropy(picked)

	var recs []string
	if len(picked) < count {
		recs = append(recs, fmt.Sprintf("Only %d distinct organizations available: selected %d of %d requested validators", len(picked), len(picked), count))
	}
	if !sel.Consensus.QuorumIntersection {
		recs = append(recs, "Selection is too small for the quorum intersection heuristic: add validators from more organizations")
	}
	for _, issue := range sel.Consensus.Issues {
		if !strings.HasPrefix(issue, "Quorum intersection") {
			recs = append(recs, "Consensus: "+issue)
		}
	}
	if downtime > 0 {
		recs = append(recs, fmt.Sprintf("%d selected validators had downtime events in recorded history", downtime))
	}
	sel.Recommendations = orDefault(recs, fmt.Sprintf("Selection spans %d independent organizations", len(picked)))
	return sel, nil
}

// OrganizationImpact is the share of an outage falling on one organization.
type OrganizationImpact struct {
	OrganizationID    string   `json:"organization_id,omitempty"`
	Name              string   `json:"name,omitempty"`
	FailingNodes      int      `json:"failing_nodes"`
	FailingValidators int      `json:"failing_validators"`
	Nodes             []string `json:"nodes"`
}

// OutageImpact is the output of OutageImpactAnalysis.
type OutageImpact struct {
	Severity           string                `json:"severity"`
	FailingNodes       int                   `json:"failing_nodes"`
	ValidatorsAffected int                   `json:"validators_affected"`
	AffectedValidators []string              `json:"affected_validators"`
	ByOrganization     []OrganizationImpact  `json:"by_organization"`
	Unaffiliated       *OrganizationImpact   `json:"unaffiliated,omitempty"`
	RemainingConsensus scoring.ConsensusInfo `json:"remaining_consensus"`
	Recommendations    []string              `json:"recommendations"`
}

// OutageImpactAnalysis groups failing nodes by organization and evaluates
// consensus over the validators that remain healthy and active.
func (c *Composer) OutageImpactAnalysis(ctx context.Context, severity string) (*OutageImpact, error) {
	if severity == "" {
		severity = scoring.FilterAll
	}
	if errs := validation.Validate(
		validation.OneOf("severity", severity, scoring.FilterAll, scoring.FilterCritical, scoring.FilterWarning),
	); len(errs) > 0 {
		return nil, errs
	}

	var (
		failing []monitor.FailingNode
		nodes   []stellarbeat.Node
		names   map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		failing, nodes, err = c.svc.FailingNodes(gctx, severity)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = c.svc.OrganizationNames(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o := &OutageImpact{
		Severity:           severity,
		FailingNodes:       len(failing),
		AffectedValidators: []string{},
		ByOrganization:     []OrganizationImpact{},
	}

	failed := make(map[string]bool, len(failing))
	byOrg := make(map[string]*OrganizationImpact)
	for _, f := range failing {
		failed[f.PublicKey] = true
		var imp *OrganizationImpact
		if id := f.OrganizationID; id == "" {
			if o.Unaffiliated == nil {
				o.Unaffiliated = &OrganizationImpact{Nodes: []string{}}
			}
			imp = o.Unaffiliated
		} else if imp = byOrg[id]; imp == nil {
			imp = &OrganizationImpact{OrganizationID: id, Name: names[id], Nodes: []string{}}
			byOrg[id] = imp
		}
		imp.FailingNodes++
		imp.Nodes = append(imp.Nodes, f.PublicKey)
		if f.Validating {
			imp.FailingValidators++
			o.AffectedValidators = append(o.AffectedValidators, f.PublicKey)
		}
	}
	o.ValidatorsAffected = len(o.AffectedValidators)
	for _, imp := range byOrg {
		o.ByOrganization = append(o.ByOrganization, *imp)
	}
	slices.SortFunc(o.ByOrganization, func(a, b OrganizationImpact) int {
		if c := cmp.Compare(b.FailingNodes, a.FailingNodes); c != 0 {
			return c
		}
		return cmp.Compare(a.OrganizationID, b.OrganizationID)
	})

	var remaining []stellarbeat.Node
	validatorsPerOrg := make(map[string]int)
	for _, v := range scoring.Validators(nodes) {
		validatorsPerOrg[v.OrganizationID]++
		if v.Active && !failed[v.PublicKey] {
			remaining = append(remaining, v)
		}
	}
	o.RemainingConsensus = scoring.ConsensusHealth(remaining)

	var recs []string
	if o.ValidatorsAffected > 0 {
		recs = append(recs, fmt.Sprintf("WARNING: %d validators affected by the outage", o.ValidatorsAffected))
	}
	if !o.RemainingConsensus.Healthy {
		recs = append(recs, fmt.Sprintf("Consensus at risk among remaining validators (safety level %d): %s",
			o.RemainingConsensus.SafetyLevel, strings.Join(o.RemainingConsensus.Issues, "; ")))
	}
	for _, imp := range o.ByOrganization {
		if imp.FailingValidators == 0 {
			continue
		}
		if imp.FailingValidators >= validatorsPerOrg[imp.OrganizationID] {
			recs = append(recs, fmt.Sprintf("Organization %s has no healthy validators", displayName(imp)))
		}
	}
	o.Recommendations = orDefault(recs, "No validators affected: consensus is not at risk")
	return o, nil
}

func displayName(imp OrganizationImpact) string {
	if imp.Name != "" {
		return imp.Name
	}
	return imp.OrganizationID
}

func orDefault(recs []string, fallback string) []string {
	if len(recs) == 0 {
		return []string{fallback}
	}
	return recs
}
