package stellarbeat

import (
	"context"
	"net/url"
	"time"
)

// atParams encodes an optional point in time as the upstream's "at" parameter.
func atParams(at *time.Time) url.Values {
	if at == nil {
		return nil
	}
	return url.Values{"at": []string{at.UTC().Format(time.RFC3339)}}
}

func nodePath(publicKey string) string {
	return "/v1/node/" + url.PathEscape(publicKey)
}

func organizationPath(id string) string {
	return "/v1/organization/" + url.PathEscape(id)
}

// Network returns the full network view, optionally at a past time.
func (c *Client) Network(ctx context.Context, at *time.Time) (Network, error) {
	return Get[Network](ctx, c, Endpoint{Pattern: "/v1", Path: "/v1"}, atParams(at))
}

// Nodes lists every known node.
func (c *Client) Nodes(ctx context.Context, at *time.Time) ([]Node, error) {
	return Get[[]Node](ctx, c, Endpoint{Pattern: "/v1/nodes", Path: "/v1/nodes"}, atParams(at))
}

// Node fetches one node by public key.
func (c *Client) Node(ctx context.Context, publicKey string, at *time.Time) (Node, error) {
	return Get[Node](ctx, c, Endpoint{Pattern: "/v1/node/{publicKey}", Path: nodePath(publicKey)}, atParams(at))
}

// NodeSnapshots returns a node's history, newest first.
func (c *Client) NodeSnapshots(ctx context.Context, publicKey string, at *time.Time) ([]NodeSnapshot, error) {
	ep := Endpoint{Pattern: "/v1/node/{publicKey}/snapshots", Path: nodePath(publicKey) + "/snapshots"}
	return Get[[]NodeSnapshot](ctx, c, ep, atParams(at))
}

// Organizations lists every known organization.
func (c *Client) Organizations(ctx context.Context, at *time.Time) ([]Organization, error) {
	return Get[[]Organization](ctx, c, Endpoint{Pattern: "/v1/organizations", Path: "/v1/organizations"}, atParams(at))
}

// Organization fetches one organization by id.
func (c *Client) Organization(ctx context.Context, id string, at *time.Time) (Organization, error) {
	return Get[Organization](ctx, c, Endpoint{Pattern: "/v1/organization/{id}", Path: organizationPath(id)}, atParams(at))
}

// OrganizationSnapshots returns an organization's history, newest first.
func (c *Client) OrganizationSnapshots(ctx context.Context, id string, at *time.Time) ([]OrganizationSnapshot, error) {
	ep := Endpoint{Pattern: "/v1/organization/{id}/snapshots", Path: organizationPath(id) + "/snapshots"}
	return Get[[]OrganizationSnapshot](ctx, c, ep, atParams(at))
}
