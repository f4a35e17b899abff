package scoring

import (
	"fmt"
	"math"
	"slices"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// Criterion selects the score validators are ranked by.
type Criterion string

const (
	ByUptime      Criterion = "uptime"
	ByPerformance Criterion = "performance"
	ByReliability Criterion = "reliability"
	ByAge         Criterion = "age"
)

// ParseCriterion validates a criterion name. Empty means uptime.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(s); c {
	case "":
		return ByUptime, nil
	case ByUptime, ByPerformance, ByReliability, ByAge:
		return c, nil
	default:
		return "", fmt.Errorf("unknown sort criterion %q", s)
	}
}

// NeedsHistory reports whether ranking by c uses snapshot history.
func (c Criterion) NeedsHistory() bool { return c != ByUptime }

// RankInput is one validator with its snapshot history, newest first.
type RankInput struct {
	Node      stellarbeat.Node
	Snapshots []stellarbeat.NodeSnapshot
}

// CriterionScores holds every criterion's score for one validator.
type CriterionScores struct {
	Uptime      float64 `json:"uptime"`
	Performance float64 `json:"performance"`
	Reliability float64 `json:"reliability"`
	Age         float64 `json:"age"`
}

// Get returns the score for c.
func (s CriterionScores) Get(c Criterion) float64 {
	switch c {
	case ByPerformance:
		return s.Performance
	case ByReliability:
		return s.Reliability
	case ByAge:
		return s.Age
	default:
		return s.Uptime
	}
}

// RankedValidator is one row of a ranking. Scores are unrounded.
type RankedValidator struct {
	Rank           int
	Node           stellarbeat.Node
	Score          float64
	Scores         CriterionScores
	Stability      float64
	DowntimeEvents int
	Trend          Trend
}

// StabilityScore is 1 - flips/count over consecutive snapshots, clamped to
// [0, 1]. Fewer than 2 snapshots yield 0.5.
func StabilityScore(snaps []stellarbeat.NodeSnapshot) float64 {
	if len(snaps) < 2 {
		return 0.5
	}
	flips := 0
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Node.Active != snaps[i-1].Node.Active {
			flips++
		}
	}
	return clamp(1-float64(flips)/float64(len(snaps)), 0, 1)
}

// DowntimeEvents counts active to inactive transitions in chronological
// order. Snapshots are newest first, so a transition is an inactive snapshot
// directly preceded in time by an active one.
func DowntimeEvents(snaps []stellarbeat.NodeSnapshot) int {
	events := 0
	for i := 0; i+1 < len(snaps); i++ {
		if !snaps[i].Node.Active && snaps[i+1].Node.Active {
			events++
		}
	}
	return events
}

// AgeDays is the number of days between the oldest and newest snapshot.
func AgeDays(snaps []stellarbeat.NodeSnapshot) float64 {
	if len(snaps) < 2 {
		return 0
	}
	oldest, newest := snaps[0].StartDate, snaps[0].StartDate
	for _, s := range snaps[1:] {
		if s.StartDate.Before(oldest) {
			oldest = s.StartDate
		}
		if s.StartDate.After(newest) {
			newest = s.StartDate
		}
	}
	return newest.Sub(oldest).Hours() / 24
}

// ScoreValidator computes every criterion for one validator.
func ScoreValidator(in RankInput) (CriterionScores, float64, int, Trend) {
	uptime := 0.0
	if u := in.Node.Uptime(); u != nil {
		uptime = *u
	}
	stability := StabilityScore(in.Snapshots)
	downtime := DowntimeEvents(in.Snapshots)
	trend := CalculateUptimeTrend(in.Snapshots).Trend

	performance := math.Min(30, uptime*0.3) + stability*20
	reliability := uptime * 0.4
	if in.Node.Active {
		performance += 30
		reliability += 20
	}
	if !in.Node.OverLoaded {
		performance += 20
		reliability += 10
	}
	switch trend {
	case TrendImproving:
		reliability += 10
	case TrendDeclining:
		reliability -= 10
	}
	reliability -= 5 * float64(downtime)

	return CriterionScores{
		Uptime:      uptime,
		Performance: performance,
		Reliability: math.Max(0, reliability),
		Age:         AgeDays(in.Snapshots),
	}, stability, downtime, trend
}

// RankValidators scores every input and orders them by the chosen criterion,
// highest first. Ties keep their input order.
func RankValidators(inputs []RankInput, by Criterion) []RankedValidator {
	ranked := make([]RankedValidator, len(inputs))
	for i, in := range inputs {
		scores, stability, downtime, trend := ScoreValidator(in)
		ranked[i] = RankedValidator{
			Node:           in.Node,
			Score:          scores.Get(by),
			Scores:         scores,
			Stability:      stability,
			DowntimeEvents: downtime,
			Trend:          trend,
		}
	}

	slices.SortStableFunc(ranked, func(a, b RankedValidator) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankingStats summarize a full ranking.
type RankingStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
	TopScore     float64 `json:"top_score"`
}

// SummarizeRanking computes statistics over the whole ranked set.
func SummarizeRanking(ranked []RankedValidator) RankingStats {
	stats := RankingStats{Count: len(ranked)}
	if len(ranked) == 0 {
		return stats
	}
	var sum float64
	for _, r := range ranked {
		sum += r.Score
	}
	stats.AverageScore = sum / float64(len(ranked))
	stats.TopScore = ranked[0].Score
	return stats
}
