package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Stellarbeat MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

// readOnlyTool marks a tool as a side-effect free query against the public
// Stellarbeat API.
func readOnlyTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
	return mcp.NewTool(name, opts...)
}

func atParam() mcp.ToolOption {
	return mcp.WithString("at",
		mcp.Description("Point in time to query, RFC 3339 (e.g. '2024-06-01T12:00:00Z') or a date ('2024-06-01'). Defaults to the latest crawl."))
}

func publicKeyParam() mcp.ToolOption {
	return mcp.WithString("public_key",
		mcp.Required(),
		mcp.Description("Node public key: 56 characters starting with 'G'"))
}

func organizationIDParam() mcp.ToolOption {
	return mcp.WithString("organization_id",
		mcp.Required(),
		mcp.Description("Organization id as returned by search_organizations or get_node_details"))
}

func limitParam() mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description("Page size (default 20, max 200)"),
		mcp.Min(1),
		mcp.Max(200))
}

func cursorParam() mcp.ToolOption {
	return mcp.WithString("cursor",
		mcp.Description("Opaque cursor from a previous page's next_cursor"))
}

func severityParam() mcp.ToolOption {
	return mcp.WithString("severity",
		mcp.Description("Failure severity: 'all' (default), 'critical', or 'warning' (warning includes critical)"),
		mcp.Enum("all", "critical", "warning"))
}

func sortByParam() mcp.ToolOption {
	return mcp.WithString("sort_by",
		mcp.Description("Ranking criterion: 'uptime' (default), 'performance', 'reliability', or 'age'. All but uptime fetch each validator's history."),
		mcp.Enum("uptime", "performance", "reliability", "age"))
}

// Network tools.

var ToolGetNetworkStatus = readOnlyTool("get_network_status",
	mcp.WithDescription(
		"Get the overall state of the Stellar network: node, validator and organization counts, "+
			"a 0-100 health score, a status label, and the most common countries and software versions."),
	atParam(),
)

var ToolGetNetworkConsensus = readOnlyTool("get_network_consensus",
	mcp.WithDescription(
		"Assess consensus health across validators: active and overloaded counts, safety level, and a "+
			"quorum intersection heuristic based on organization concentration. When Stellarbeat reports its "+
			"own quorum intersection analysis it is returned separately."),
	atParam(),
)

var ToolGetNetworkTrends = readOnlyTool("get_network_trends",
	mcp.WithDescription(
		"Compare the network at two points in time and report the change in counts, health score and "+
			"safety level, plus an overall direction."),
	mcp.WithString("since",
		mcp.Required(),
		mcp.Description("Start of the comparison, RFC 3339 or a date")),
	mcp.WithString("until",
		mcp.Description("End of the comparison, RFC 3339 or a date. Defaults to the latest crawl.")),
)

var ToolGetNetworkDecentralization = readOnlyTool("get_network_decentralization",
	mcp.WithDescription(
		"Measure validator decentralization: organizational entropy, geographic spread, software "+
			"version diversity and how many validators lag the newest release."),
	atParam(),
)

var ToolGetNetworkReport = readOnlyTool("get_network_report",
	mcp.WithDescription(
		"Network status, consensus and decentralization from a single crawl in one response."),
	atParam(),
)

// Node tools.

var ToolSearchNodes = readOnlyTool("search_nodes",
	mcp.WithDescription(
		"Search nodes by name, public key, host or home domain, optionally filtered by country, "+
			"organization, activity and validator status. Results are paged."),
	mcp.WithString("query",
		mcp.Description("Case-insensitive text matched against name, public key, host and home domain")),
	mcp.WithString("country",
		mcp.Description("ISO country code (e.g. 'US', 'DE')")),
	mcp.WithString("organization_id",
		mcp.Description("Only nodes operated by this organization")),
	mcp.WithBoolean("active_only",
		mcp.Description("Only nodes that are currently active")),
	mcp.WithBoolean("validators_only",
		mcp.Description("Only nodes that are currently validating")),
	limitParam(),
	cursorParam(),
)

var ToolGetNodeDetails = readOnlyTool("get_node_details",
	mcp.WithDescription(
		"Get one node with location, version, organization, uptime statistics and a health check."),
	publicKeyParam(),
	atParam(),
)

var ToolCheckNodeHealth = readOnlyTool("check_node_health",
	mcp.WithDescription(
		"Score a node's health from 0 to 100 with status healthy, warning or critical and the issues found."),
	publicKeyParam(),
)

var ToolGetNodeUptimeTrend = readOnlyTool("get_node_uptime_trend",
	mcp.WithDescription(
		"Analyze a node's snapshot history: uptime trend (improving, declining, stable), stability and "+
			"the number of downtime events."),
	publicKeyParam(),
)

var ToolFindFailingNodes = readOnlyTool("find_failing_nodes",
	mcp.WithDescription(
		"List nodes that are inactive, overloaded or below 90% uptime, with severity and issues. Results are paged."),
	severityParam(),
	limitParam(),
	cursorParam(),
)

var ToolCompareNodes = readOnlyTool("compare_nodes",
	mcp.WithDescription(
		"Compare two or more nodes side by side and name the best node for health score and uptime."),
	mcp.WithArray("public_keys",
		mcp.Required(),
		mcp.Description("Public keys of the nodes to compare (at least 2)"),
		mcp.WithStringItems(),
		mcp.MinItems(2)),
)

var ToolRankValidators = readOnlyTool("rank_validators",
	mcp.WithDescription(
		"Rank all validators by uptime, performance, reliability or age, with summary statistics. Results are paged."),
	sortByParam(),
	limitParam(),
	cursorParam(),
)

// Organization tools.

var ToolGetOrganization = readOnlyTool("get_organization",
	mcp.WithDescription(
		"Get an organization's profile: contact details, validators, tier-one status and subquorum availability."),
	organizationIDParam(),
	atParam(),
)

var ToolSearchOrganizations = readOnlyTool("search_organizations",
	mcp.WithDescription(
		"Search organizations by name, id or home domain. Use this to find an organization_id."),
	mcp.WithString("query",
		mcp.Description("Case-insensitive text matched against name, id and home domain")),
	mcp.WithBoolean("tier_one_only",
		mcp.Description("Only tier-one organizations")),
)

var ToolGetOrganizationReliability = readOnlyTool("get_organization_reliability",
	mcp.WithDescription(
		"Grade an organization's reliability (A+ to F) from its nodes' activity, uptime and load."),
	organizationIDParam(),
)

var ToolListOrganizationNodes = readOnlyTool("list_organization_nodes",
	mcp.WithDescription(
		"List an organization's validators with a health check for each. Listed validators the network "+
			"does not know are reported as unresolved. Results are paged."),
	organizationIDParam(),
	limitParam(),
	cursorParam(),
)

var ToolGetOrganizationHistory = readOnlyTool("get_organization_history",
	mcp.WithDescription(
		"Show how an organization's validator set and tier-one status changed over its recorded history."),
	organizationIDParam(),
)

// Workflow tools.

var ToolNetworkHealthAudit = readOnlyTool("network_health_audit",
	mcp.WithDescription(
		"Full network audit: status, consensus, decentralization and critical nodes, with recommendations. "+
			"Start here for a general question about network health."),
)

var ToolNodeDeepDive = readOnlyTool("node_deep_dive",
	mcp.WithDescription(
		"Investigate one node: details, health, uptime trend and its organization's reliability, with recommendations."),
	publicKeyParam(),
)

var ToolOrganizationAudit = readOnlyTool("organization_audit",
	mcp.WithDescription(
		"Audit one organization: profile, member node health, reliability grade and history, with recommendations."),
	organizationIDParam(),
)

var ToolValidatorSelection = readOnlyTool("validator_selection",
	mcp.WithDescription(
		"Pick the best validators for a quorum set, at most one per organization, and evaluate the "+
			"consensus outlook of the selection."),
	mcp.WithNumber("count",
		mcp.Description("Number of validators to select (default 5, max 50)"),
		mcp.Min(1),
		mcp.Max(50)),
	sortByParam(),
)

var ToolOutageImpactAnalysis = readOnlyTool("outage_impact_analysis",
	mcp.WithDescription(
		"Group failing nodes by organization, count affected validators and evaluate consensus among "+
			"the validators still healthy."),
	severityParam(),
)
