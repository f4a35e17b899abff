package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func TestParseVersion(t *testing.T) {
	tests := map[string]string{
		"stellar-core 21.0.0 (a1b2c3d4)": "21.0.0",
		"v20.4.1":                        "20.4.1",
		"19.14.0":                        "19.14.0",
		"stellar-core 21.1.0rc1":         "21.1.0-rc1",
	}
	for raw, want := range tests {
		v, err := ParseVersion(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, v.String(), raw)
	}

	_, err := ParseVersion("unknown build")
	assert.Error(t, err)
}

func TestAnalyzeVersions(t *testing.T) {
	nodes := []stellarbeat.Node{
		node("a", withVersion("stellar-core 21.0.0 (abc)")),
		node("b", withVersion("v21.0.0")),
		node("c", withVersion("stellar-core 20.4.1 (def)")),
		node("d", withVersion("custom-fork")),
		node("e", noVersion),
		node("f", withVersion("19.0.0")),
	}

	r := AnalyzeVersions(nodes)
	assert.Equal(t, "21.0.0", r.Latest)
	assert.Equal(t, 2, r.NodesOnLatest)
	assert.Equal(t, 2, r.NodesBehind)
	assert.Equal(t, 1, r.Unparseable)
	assert.Equal(t, 1, r.Unknown)

	assert.Equal(t, []VersionCount{
		{Version: "21.0.0", Count: 2, Latest: true},
		{Version: "20.4.1", Count: 1},
		{Version: "19.0.0", Count: 1},
		{Version: "custom-fork", Count: 1},
	}, r.Distribution)
}

func TestAnalyzeVersions_Empty(t *testing.T) {
	r := AnalyzeVersions(nil)
	assert.Empty(t, r.Latest)
	assert.NotNil(t, r.Distribution)
	assert.Empty(t, r.Distribution)
}
