package scoring

import (
	"cmp"
	"slices"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// VersionCount is one version in a distribution.
type VersionCount struct {
	Version string `json:"version"`
	Count   int    `json:"count"`
	Latest  bool   `json:"latest,omitempty"`
}

// VersionReport summarizes the software versions nodes run.
type VersionReport struct {
	Latest        string         `json:"latest,omitempty"`
	NodesOnLatest int            `json:"nodes_on_latest"`
	NodesBehind   int            `json:"nodes_behind"`
	Unparseable   int            `json:"unparseable"`
	Unknown       int            `json:"unknown"`
	Distribution  []VersionCount `json:"distribution"`
}

// ParseVersion extracts a semantic version from strings such as
// "stellar-core 21.0.0 (a1b2c3)" or "v20.4.1".
func ParseVersion(raw string) (*version.Version, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "stellar-core")
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " ("); i >= 0 {
		s = s[:i]
	}
	return version.NewVersion(s)
}

// AnalyzeVersions parses every node's version and reports how many nodes lag
// the newest one. The distribution is ordered newest first, with
// unparseable strings last in lexical order.
func AnalyzeVersions(nodes []stellarbeat.Node) VersionReport {
	r := VersionReport{Distribution: []VersionCount{}}

	type entry struct {
		canonical string
		parsed    *version.Version
		count     int
	}
	byKey := make(map[string]*entry)
	var latest *version.Version

	for _, n := range nodes {
		if n.VersionStr == "" {
			r.Unknown++
			continue
		}
		v, err := ParseVersion(n.VersionStr)
		key := n.VersionStr
		if err == nil {
			key = v.String()
			if latest == nil || latest.LessThan(v) {
				latest = v
			}
		} else {
			r.Unparseable++
		}
		e, ok := byKey[key]
		if !ok {
			e = &entry{canonical: key, parsed: v}
			byKey[key] = e
		}
		e.count++
	}

	entries := make([]*entry, 0, len(byKey))
	for _, e := range byKey {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		switch {
		case a.parsed != nil && b.parsed != nil:
			if c := b.parsed.Compare(a.parsed); c != 0 {
				return c
			}
			return cmp.Compare(a.canonical, b.canonical)
		case a.parsed != nil:
			return -1
		case b.parsed != nil:
			return 1
		default:
			return cmp.Compare(a.canonical, b.canonical)
		}
	})

	for _, e := range entries {
		isLatest := latest != nil && e.parsed != nil && e.parsed.Equal(latest)
		r.Distribution = append(r.Distribution, VersionCount{Version: e.canonical, Count: e.count, Latest: isLatest})
		if e.parsed == nil {
			continue
		}
		if isLatest {
			r.NodesOnLatest += e.count
		} else {
			r.NodesBehind += e.count
		}
	}
	if latest != nil {
		r.Latest = latest.String()
	}
	return r
}
