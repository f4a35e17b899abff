package monitor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mbd888/stellarbeat-mcp/internal/pagination"
	"github.com/mbd888/stellarbeat-mcp/internal/scoring"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
	"github.com/mbd888/stellarbeat-mcp/internal/validation"
)

// OrganizationDetail is the full view of one organization.
type OrganizationDetail struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	DBA             string   `json:"dba,omitempty"`
	URL             string   `json:"url,omitempty"`
	OfficialEmail   string   `json:"official_email,omitempty"`
	HorizonURL      string   `json:"horizon_url,omitempty"`
	Description     string   `json:"description,omitempty"`
	HomeDomain      string   `json:"home_domain,omitempty"`
	TierOne         bool     `json:"tier_one"`
	Validators      []string `json:"validators"`
	ValidatorCount  int      `json:"validator_count"`
	Availability24h *float64 `json:"subquorum_availability_24h,omitempty"`
	Availability30d *float64 `json:"subquorum_availability_30d,omitempty"`
}

func detailOf(o stellarbeat.Organization) *OrganizationDetail {
	validators := o.Validators
	if validators == nil {
		validators = []string{}
	}
	return &OrganizationDetail{
		ID:              o.ID,
		Name:            o.Name,
		DBA:             o.DBA,
		URL:             o.URL,
		OfficialEmail:   o.OfficialEmail,
		HorizonURL:      o.HorizonURL,
		Description:     o.Description,
		HomeDomain:      o.HomeDomain,
		TierOne:         o.IsTierOneOrganization,
		Validators:      validators,
		ValidatorCount:  len(validators),
		Availability24h: roundPtr(o.SubQuorum24HoursAvailability, 2),
		Availability30d: roundPtr(o.SubQuorum30DaysAvailability, 2),
	}
}

func (s *Service) organization(ctx context.Context, id string, at *time.Time) (stellarbeat.Organization, error) {
	o, err := s.up.Organization(ctx, id, at)
	if err != nil {
		return o, fmt.Errorf("fetch organization %s: %w", id, err)
	}
	return o, nil
}

// GetOrganization fetches one organization, optionally at a past time.
func (s *Service) GetOrganization(ctx context.Context, id string, at *time.Time) (*OrganizationDetail, error) {
	o, err := s.organization(ctx, id, at)
	if err != nil {
		return nil, err
	}
	return detailOf(o), nil
}

// OrganizationSummary is an organization row in search results.
type OrganizationSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	HomeDomain      string   `json:"home_domain,omitempty"`
	TierOne         bool     `json:"tier_one"`
	ValidatorCount  int      `json:"validator_count"`
	Availability24h *float64 `json:"subquorum_availability_24h,omitempty"`
}

// SearchOrganizationsResult lists matching organizations.
type SearchOrganizationsResult struct {
	Total         int                   `json:"total"`
	Organizations []OrganizationSummary `json:"organizations"`
}

// SearchOrganizations filters organizations by a case-insensitive match on
// id, name, dba or home domain. Results are ordered by name, then id.
func (s *Service) SearchOrganizations(ctx context.Context, query string, tierOneOnly bool) (*SearchOrganizationsResult, error) {
	q := strings.ToLower(validation.SanitizeString(query, validation.MaxStringLength))

	orgs, err := s.up.Organizations(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch organizations: %w", err)
	}

	out := make([]OrganizationSummary, 0)
	for _, o := range orgs {
		if tierOneOnly && !o.IsTierOneOrganization {
			continue
		}
		if q != "" && !containsAny(q, o.ID, o.Name, o.DBA, o.HomeDomain) {
			continue
		}
		out = append(out, OrganizationSummary{
			ID:              o.ID,
			Name:            o.Name,
			HomeDomain:      o.HomeDomain,
			TierOne:         o.IsTierOneOrganization,
			ValidatorCount:  len(o.Validators),
			Availability24h: roundPtr(o.SubQuorum24HoursAvailability, 2),
		})
	}
	slices.SortStableFunc(out, func(a, b OrganizationSummary) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return &SearchOrganizationsResult{Total: len(out), Organizations: out}, nil
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// organizationWithNodes loads an organization and the node list concurrently.
func (s *Service) organizationWithNodes(ctx context.Context, id string) (stellarbeat.Organization, []stellarbeat.Node, error) {
	var (
		org   stellarbeat.Organization
		nodes []stellarbeat.Node
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		org, err = s.organization(gctx, id, nil)
		return err
	})
	g.Go(func() error {
		var err error
		nodes, err = s.up.Nodes(gctx, nil)
		if err != nil {
			return fmt.Errorf("fetch nodes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stellarbeat.Organization{}, nil, err
	}
	return org, nodes, nil
}

// OrganizationReliability is an organization's reliability assessment.
type OrganizationReliability struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	scoring.Reliability
}

// ReliabilityOf scores an organization against a node list.
func ReliabilityOf(org stellarbeat.Organization, nodes []stellarbeat.Node) *OrganizationReliability {
	members, _ := memberNodes(org, nodes)
	return &OrganizationReliability{
		OrganizationID: org.ID,
		Name:           org.Name,
		Reliability:    scoring.OrganizationReliability(members),
	}
}

// OrganizationReliability scores an organization from its member nodes.
func (s *Service) OrganizationReliability(ctx context.Context, id string) (*OrganizationReliability, error) {
	org, nodes, err := s.organizationWithNodes(ctx, id)
	if err != nil {
		return nil, err
	}
	return ReliabilityOf(org, nodes), nil
}

// MemberNode is a member node with its health.
type MemberNode struct {
	NodeSummary
	Health scoring.HealthCheck `json:"health"`
}

// OrganizationNodes is one page of an organization's member nodes.
type OrganizationNodes struct {
	OrganizationID string          `json:"organization_id"`
	Name           string          `json:"name"`
	Nodes          []MemberNode    `json:"nodes"`
	Unresolved     []string        `json:"unresolved_validators"`
	Page           pagination.Info `json:"page"`
}

// MembersOf resolves an organization's nodes with their health.
func MembersOf(org stellarbeat.Organization, nodes []stellarbeat.Node) ([]MemberNode, []string) {
	members, missing := memberNodes(org, nodes)
	out := make([]MemberNode, len(members))
	for i, n := range members {
		out[i] = MemberNode{NodeSummary: summarize(n), Health: scoring.CheckNodeHealth(n)}
	}
	return out, missing
}

// ListOrganizationNodes returns one page of an organization's nodes.
func (s *Service) ListOrganizationNodes(ctx context.Context, id string, limit int, cursor string) (*OrganizationNodes, error) {
	org, nodes, err := s.organizationWithNodes(ctx, id)
	if err != nil {
		return nil, err
	}
	members, missing := MembersOf(org, nodes)

	page, info, err := pagination.Page(members, cursor, limit)
	if err != nil {
		return nil, validation.ValidationErrors{{Field: "cursor", Message: err.Error()}}
	}
	return &OrganizationNodes{
		OrganizationID: org.ID,
		Name:           org.Name,
		Nodes:          page,
		Unresolved:     missing,
		Page:           info,
	}, nil
}

// OrganizationProfile is an organization with its resolved nodes.
type OrganizationProfile struct {
	Organization *OrganizationDetail      `json:"organization"`
	Reliability  *OrganizationReliability `json:"reliability"`
	Nodes        []MemberNode             `json:"nodes"`
	Unresolved   []string                 `json:"unresolved_validators"`
}

// OrganizationProfile loads an organization and the node list concurrently
// and derives detail, member health and reliability.
func (s *Service) OrganizationProfile(ctx context.Context, id string) (*OrganizationProfile, error) {
	org, nodes, err := s.organizationWithNodes(ctx, id)
	if err != nil {
		return nil, err
	}
	members, missing := MembersOf(org, nodes)
	return &OrganizationProfile{
		Organization: detailOf(org),
		Reliability:  ReliabilityOf(org, nodes),
		Nodes:        members,
		Unresolved:   missing,
	}, nil
}

// OrganizationNames maps organization ids to names.
func (s *Service) OrganizationNames(ctx context.Context) (map[string]string, error) {
	orgs, err := s.up.Organizations(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch organizations: %w", err)
	}
	names := make(map[string]string, len(orgs))
	for _, o := range orgs {
		names[o.ID] = o.Name
	}
	return names, nil
}

// OrganizationChange is one change between consecutive snapshots.
type OrganizationChange struct {
	At            time.Time `json:"at"`
	Added         []string  `json:"added_validators,omitempty"`
	Removed       []string  `json:"removed_validators,omitempty"`
	TierOneBefore *bool     `json:"tier_one_before,omitempty"`
	TierOneAfter  *bool     `json:"tier_one_after,omitempty"`
}

// OrganizationHistory summarizes how an organization changed over time.
type OrganizationHistory struct {
	OrganizationID   string               `json:"organization_id"`
	SnapshotCount    int                  `json:"snapshot_count"`
	FirstSeen        *time.Time           `json:"first_seen,omitempty"`
	ValidatorChanges int                  `json:"validator_changes"`
	TierChanges      int                  `json:"tier_changes"`
	Changes          []OrganizationChange `json:"changes"`
}

// HistoryOf walks snapshots (newest first) in chronological order and
// records validator set and tier changes, newest change first.
func HistoryOf(id string, snaps []stellarbeat.OrganizationSnapshot) *OrganizationHistory {
	h := &OrganizationHistory{OrganizationID: id, SnapshotCount: len(snaps), Changes: []OrganizationChange{}}
	if len(snaps) == 0 {
		return h
	}
	first := snaps[len(snaps)-1].StartDate
	h.FirstSeen = &first

	for i := len(snaps) - 2; i >= 0; i-- {
		prev, cur := snaps[i+1].Organization, snaps[i].Organization
		added, removed := diffKeys(prev.Validators, cur.Validators)
		c := OrganizationChange{At: snaps[i].StartDate, Added: added, Removed: removed}
		if prev.IsTierOneOrganization != cur.IsTierOneOrganization {
			before, after := prev.IsTierOneOrganization, cur.IsTierOneOrganization
			c.TierOneBefore, c.TierOneAfter = &before, &after
			h.TierChanges++
		}
		if len(added) > 0 || len(removed) > 0 {
			h.ValidatorChanges++
		}
		if len(added) > 0 || len(removed) > 0 || c.TierOneAfter != nil {
			h.Changes = append(h.Changes, c)
		}
	}
	slices.Reverse(h.Changes)
	return h
}

// diffKeys returns keys in cur but not prev, and in prev but not cur,
// each in the order they appear.
func diffKeys(prev, cur []string) (added, removed []string) {
	for _, k := range cur {
		if !slices.Contains(prev, k) {
			added = append(added, k)
		}
	}
	for _, k := range prev {
		if !slices.Contains(cur, k) {
			removed = append(removed, k)
		}
	}
	return added, removed
}

// OrganizationHistory reports validator set and tier changes.
func (s *Service) OrganizationHistory(ctx context.Context, id string) (*OrganizationHistory, error) {
	snaps, err := s.up.OrganizationSnapshots(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshots for organization %s: %w", id, err)
	}
	return HistoryOf(id, snaps), nil
}
