package service

import "math"

// Rank labels in ascending order.
const (
	RankBananaSprout = "Banana Sprout"
	RankBronze       = "Bronze"
	RankSilver       = "Silver"
	RankGold         = "Gold"
	RankDiamond      = "Diamond"
	RankPlatinum     = "Platinum"
)

type rankThreshold struct {
	minCredits int
	label      string
}

// rankTable is ordered from the highest threshold down.
var rankTable = []rankThreshold{
	{minCredits: 100, label: RankPlatinum},
	{minCredits: 80, label: RankDiamond},
	{minCredits: 60, label: RankGold},
	{minCredits: 40, label: RankSilver},
	{minCredits: 20, label: RankBronze},
}

// ComputeRank maps a credit balance to its rank label. It is monotonic in credits.
func ComputeRank(credits int) string {
	for _, threshold := range rankTable {
		if credits >= threshold.minCredits {
			return threshold.label
		}
	}
	return RankBananaSprout
}

// ComputeProgress returns the rounded completion percentage clamped to [0, 100].
func ComputeProgress(completed, total int) int {
	if completed <= 0 {
		return 0
	}
	if total < 1 {
		total = 1
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	if pct > 100 {
		return 100
	}
	return pct
}
