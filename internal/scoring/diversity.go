package scoring

import (
	"math"
	"slices"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// Decentralization thresholds and penalties.
const (
	minOrganizations = 3
	minCountries     = 10
	minVersions      = 3

	organizationPenalty = 30
	countryPenalty      = 20
	versionPenalty      = 15
)

// OrganizationalDiversity describes how validators spread over organizations.
type OrganizationalDiversity struct {
	Organizations int     `json:"organizations"`
	Entropy       float64 `json:"entropy"`
	MaxEntropy    float64 `json:"max_entropy"`
	Evenness      float64 `json:"evenness"`
	LargestShare  float64 `json:"largest_share"`
}

// Entropy is the base-2 Shannon entropy of a count distribution.
// Non-positive counts are ignored.
func Entropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// OrganizationalEntropy computes entropy over validators per organization.
// Counts are summed in sorted order so repeated calls agree bit for bit.
func OrganizationalEntropy(validators []stellarbeat.Node) OrganizationalDiversity {
	groups := groupByOrganization(validators)
	counts := make([]int, 0, len(groups))
	largest := 0
	for _, c := range groups {
		counts = append(counts, c)
		largest = max(largest, c)
	}
	slices.Sort(counts)

	d := OrganizationalDiversity{Organizations: len(groups)}
	if len(validators) == 0 {
		return d
	}
	h := Entropy(counts)
	d.Entropy = Round(h, 4)
	if len(groups) > 1 {
		d.MaxEntropy = Round(math.Log2(float64(len(groups))), 4)
		d.Evenness = Round(h/math.Log2(float64(len(groups))), 4)
	} else {
		d.Evenness = 1
	}
	d.LargestShare = Round(float64(largest)/float64(len(validators)), 4)
	return d
}

// DecentralizationReport scores organizational, geographic and software
// diversity of a validator set.
type DecentralizationReport struct {
	Score          int                     `json:"score"`
	Organizational OrganizationalDiversity `json:"organizational"`
	Countries      int                     `json:"countries"`
	Versions       int                     `json:"versions"`
	TopCountries   []Count                 `json:"top_countries"`
	Issues         []string                `json:"issues"`
}

// Decentralization starts at 100 and deducts for too few organizations,
// countries or software versions among validators.
func Decentralization(validators []stellarbeat.Node) DecentralizationReport {
	countries := make([]string, 0, len(validators))
	versions := make([]string, 0, len(validators))
	for _, v := range validators {
		countries = append(countries, v.CountryCode())
		versions = append(versions, v.VersionStr)
	}
	countryCounts := CountValues(countries)

	r := DecentralizationReport{
		Organizational: OrganizationalEntropy(validators),
		Countries:      len(countryCounts),
		Versions:       len(CountValues(versions)),
		TopCountries:   countryCounts[:min(5, len(countryCounts))],
		Issues:         []string{},
	}

	score := 100
	if r.Organizational.Organizations < minOrganizations {
		score -= organizationPenalty
		r.Issues = append(r.Issues, "Validators span fewer than 3 organizations")
	}
	if r.Countries < minCountries {
		score -= countryPenalty
		r.Issues = append(r.Issues, "Validators span fewer than 10 countries")
	}
	if r.Versions < minVersions {
		score -= versionPenalty
		r.Issues = append(r.Issues, "Validators run fewer than 3 software versions")
	}
	r.Score = score
	return r
}
