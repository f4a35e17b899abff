package stellarbeat

import "time"

// GeoData is the upstream's geolocation of a node.
type GeoData struct {
	CountryCode string   `json:"countryCode,omitempty"`
	CountryName string   `json:"countryName,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// NodeStatistics holds rolling availability percentages. Any field may be
// absent for recently discovered nodes.
type NodeStatistics struct {
	Active24HoursPercentage     *float64 `json:"active24HoursPercentage,omitempty"`
	Validating24HoursPercentage *float64 `json:"validating24HoursPercentage,omitempty"`
	OverLoaded24HoursPercentage *float64 `json:"overLoaded24HoursPercentage,omitempty"`
	Active30DaysPercentage      *float64 `json:"active30DaysPercentage,omitempty"`
	Validating30DaysPercentage  *float64 `json:"validating30DaysPercentage,omitempty"`
}

// Node is a peer on the network as reported by /v1/nodes.
type Node struct {
	PublicKey        string          `json:"publicKey"`
	Name             string          `json:"name,omitempty"`
	Host             string          `json:"host,omitempty"`
	IP               string          `json:"ip,omitempty"`
	Port             int             `json:"port,omitempty"`
	Active           bool            `json:"active"`
	IsValidating     bool            `json:"isValidating"`
	IsFullValidator  bool            `json:"isFullValidator"`
	OverLoaded       bool            `json:"overLoaded"`
	VersionStr       string          `json:"versionStr,omitempty"`
	OrganizationID   string          `json:"organizationId,omitempty"`
	HomeDomain       string          `json:"homeDomain,omitempty"`
	QuorumSetHashKey string          `json:"quorumSetHashKey,omitempty"`
	GeoData          *GeoData        `json:"geoData,omitempty"`
	Statistics       *NodeStatistics `json:"statistics,omitempty"`
	DateDiscovered   *time.Time      `json:"dateDiscovered,omitempty"`
	DateUpdated      *time.Time      `json:"dateUpdated,omitempty"`
}

// Uptime returns the node's 24h active percentage clamped to [0, 100], or
// nil when the upstream has no figure.
func (n Node) Uptime() *float64 {
	if n.Statistics == nil || n.Statistics.Active24HoursPercentage == nil {
		return nil
	}
	v := min(max(*n.Statistics.Active24HoursPercentage, 0), 100)
	return &v
}

// CountryCode returns the node's country code or "".
func (n Node) CountryCode() string {
	if n.GeoData == nil {
		return ""
	}
	return n.GeoData.CountryCode
}

// NodeSnapshot is a historical copy of a node's state. The upstream returns
// snapshots newest-first.
type NodeSnapshot struct {
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Node      Node       `json:"node"`
}

// Organization is an operator of one or more nodes.
type Organization struct {
	ID                           string   `json:"id"`
	Name                         string   `json:"name"`
	DBA                          string   `json:"dba,omitempty"`
	URL                          string   `json:"url,omitempty"`
	OfficialEmail                string   `json:"officialEmail,omitempty"`
	HorizonURL                   string   `json:"horizonUrl,omitempty"`
	Description                  string   `json:"description,omitempty"`
	HomeDomain                   string   `json:"homeDomain,omitempty"`
	Validators                   []string `json:"validators"`
	IsTierOneOrganization        bool     `json:"isTierOneOrganization"`
	SubQuorum24HoursAvailability *float64 `json:"subQuorum24HoursAvailability,omitempty"`
	SubQuorum30DaysAvailability  *float64 `json:"subQuorum30DaysAvailability,omitempty"`
}

// OrganizationSnapshot is a historical copy of an organization's validator
// set and tier classification.
type OrganizationSnapshot struct {
	StartDate    time.Time    `json:"startDate"`
	EndDate      *time.Time   `json:"endDate,omitempty"`
	Organization Organization `json:"organization"`
}

// NetworkStatistics is the upstream's own analysis of the network.
type NetworkStatistics struct {
	HasQuorumIntersection    *bool `json:"hasQuorumIntersection,omitempty"`
	HasTransitiveQuorumSet   *bool `json:"hasTransitiveQuorumSet,omitempty"`
	NrOfActiveWatchers       *int  `json:"nrOfActiveWatchers,omitempty"`
	NrOfActiveValidators     *int  `json:"nrOfActiveValidators,omitempty"`
	NrOfActiveFullValidators *int  `json:"nrOfActiveFullValidators,omitempty"`
	NrOfActiveOrganizations  *int  `json:"nrOfActiveOrganizations,omitempty"`
	TransitiveQuorumSetSize  *int  `json:"transitiveQuorumSetSize,omitempty"`
	TopTierSize              *int  `json:"topTierSize,omitempty"`
	MinBlockingSetSize       *int  `json:"minBlockingSetSize,omitempty"`
	MinSplittingSetSize      *int  `json:"minSplittingSetSize,omitempty"`
}

// Network is the full network view served by /v1.
type Network struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Time          time.Time          `json:"time"`
	Nodes         []Node             `json:"nodes"`
	Organizations []Organization     `json:"organizations"`
	Statistics    *NetworkStatistics `json:"statistics,omitempty"`
}
