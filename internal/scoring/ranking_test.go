package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion("")
	require.NoError(t, err)
	assert.Equal(t, ByUptime, c)

	c, err = ParseCriterion("age")
	require.NoError(t, err)
	assert.Equal(t, ByAge, c)
	assert.True(t, c.NeedsHistory())
	assert.False(t, ByUptime.NeedsHistory())

	_, err = ParseCriterion("stake")
	assert.Error(t, err)
}

func TestStabilityScore(t *testing.T) {
	assert.Equal(t, 0.5, StabilityScore(nil))
	assert.Equal(t, 0.5, StabilityScore(snapshots([]bool{true}, nil)))
	assert.Equal(t, 1.0, StabilityScore(snapshots([]bool{true, true, true, true}, nil)))
	// 2 flips over 4 snapshots
	assert.Equal(t, 0.5, StabilityScore(snapshots([]bool{true, false, true, true}, nil)))
	// 3 flips over 4 snapshots
	assert.Equal(t, 0.25, StabilityScore(snapshots([]bool{true, false, true, false}, nil)))
}

func TestDowntimeEvents(t *testing.T) {
	// Newest first: chronologically active, inactive, active, inactive.
	snaps := snapshots([]bool{false, true, false, true}, nil)
	assert.Equal(t, 2, DowntimeEvents(snaps))

	// Chronologically inactive then active: a recovery, not a downtime.
	assert.Equal(t, 0, DowntimeEvents(snapshots([]bool{true, false}, nil)))
	assert.Equal(t, 0, DowntimeEvents(nil))
}

func TestAgeDays(t *testing.T) {
	assert.Equal(t, 0.0, AgeDays(nil))
	assert.Equal(t, 0.0, AgeDays(snapshots([]bool{true}, nil)))
	assert.Equal(t, 9.0, AgeDays(snapshots(allActive(10), nil)))
}

func TestScoreValidator(t *testing.T) {
	in := RankInput{
		Node:      node("A", validating, withUptime(100)),
		Snapshots: snapshots(allActive(4), uptimeSeries(100, 100, 100, 100)),
	}
	scores, stability, downtime, trend := ScoreValidator(in)

	assert.Equal(t, 1.0, stability)
	assert.Equal(t, 0, downtime)
	assert.Equal(t, TrendStable, trend)
	assert.Equal(t, 100.0, scores.Uptime)
	// 30 + 20 + 30 + 20
	assert.Equal(t, 100.0, scores.Performance)
	// 40 + 20 + 10
	assert.Equal(t, 70.0, scores.Reliability)
	assert.Equal(t, 3.0, scores.Age)
}

func TestScoreValidator_ReliabilityPenalties(t *testing.T) {
	// Chronologically: up, up, down, up, down.
	in := RankInput{
		Node:      node("A", validating, inactive, overloaded),
		Snapshots: snapshots([]bool{false, true, false, true, true}, uptimeSeries(80, 80, 80, 99, 99)),
	}
	scores, _, downtime, trend := ScoreValidator(in)

	assert.Equal(t, 2, downtime)
	assert.Equal(t, TrendStable, trend, "windows overlap completely with 5 snapshots")
	assert.Equal(t, 0.0, scores.Uptime)
	// 0 uptime, inactive, overloaded, stable, 2 downtimes: 0 - 10 clamps at 0
	assert.Equal(t, 0.0, scores.Reliability)
	// no uptime, inactive, overloaded, stability 1 - 3/5 = 0.4
	assert.InDelta(t, 8.0, scores.Performance, 0.0001)
}

func TestRankValidators_SortedAndRanked(t *testing.T) {
	inputs := []RankInput{
		{Node: node("low", withUptime(80))},
		{Node: node("high", withUptime(99))},
		{Node: node("none")},
		{Node: node("mid", withUptime(90))},
	}

	ranked := RankValidators(inputs, ByUptime)
	require.Len(t, ranked, 4)

	var keys []string
	for i, r := range ranked {
		keys = append(keys, r.Node.PublicKey)
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"high", "mid", "low", "none"}, keys)
}

func TestRankValidators_StableTies(t *testing.T) {
	inputs := []RankInput{
		{Node: node("first", withUptime(95))},
		{Node: node("second", withUptime(95))},
		{Node: node("third", withUptime(95))},
	}
	ranked := RankValidators(inputs, ByUptime)
	assert.Equal(t, "first", ranked[0].Node.PublicKey)
	assert.Equal(t, "second", ranked[1].Node.PublicKey)
	assert.Equal(t, "third", ranked[2].Node.PublicKey)
}

func TestRankValidators_PropertySortedDescending(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	criteria := []Criterion{ByUptime, ByPerformance, ByReliability, ByAge}

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(30)
		inputs := make([]RankInput, n)
		for i := range inputs {
			nd := stellarbeat.Node{
				PublicKey:  string(rune('A' + i)),
				Active:     rng.Intn(4) > 0,
				OverLoaded: rng.Intn(5) == 0,
			}
			if rng.Intn(4) > 0 {
				nd.Statistics = uptime(rng.Float64() * 100)
			}
			k := rng.Intn(25)
			active := make([]bool, k)
			ups := make([]*float64, k)
			for j := range active {
				active[j] = rng.Intn(5) > 0
				ups[j] = fptr(rng.Float64() * 100)
			}
			inputs[i] = RankInput{Node: nd, Snapshots: snapshots(active, ups)}
		}

		by := criteria[rng.Intn(len(criteria))]
		ranked := RankValidators(inputs, by)
		require.Len(t, ranked, n)
		for i := range ranked {
			assert.Equal(t, i+1, ranked[i].Rank)
			assert.Equal(t, ranked[i].Scores.Get(by), ranked[i].Score)
			assert.GreaterOrEqual(t, ranked[i].Scores.Reliability, 0.0)
			if i > 0 {
				assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
			}
		}
	}
}

func TestSummarizeRanking(t *testing.T) {
	assert.Equal(t, RankingStats{}, SummarizeRanking(nil))

	ranked := RankValidators([]RankInput{
		{Node: node("a", withUptime(90))},
		{Node: node("b", withUptime(100))},
	}, ByUptime)
	stats := SummarizeRanking(ranked)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 95.0, stats.AverageScore)
	assert.Equal(t, 100.0, stats.TopScore)
}
