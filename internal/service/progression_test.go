package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRankThresholds(t *testing.T) {
	cases := map[int]string{
		0:   RankBananaSprout,
		19:  RankBananaSprout,
		20:  RankBronze,
		39:  RankBronze,
		40:  RankSilver,
		60:  RankGold,
		80:  RankDiamond,
		99:  RankDiamond,
		100: RankPlatinum,
		500: RankPlatinum,
	}
	for credits, want := range cases {
		assert.Equal(t, want, ComputeRank(credits), "credits=%d", credits)
	}
}

func TestComputeRankMonotonic(t *testing.T) {
	order := map[string]int{RankBananaSprout: 0, RankBronze: 1, RankSilver: 2, RankGold: 3, RankDiamond: 4, RankPlatinum: 5}
	prev := order[ComputeRank(0)]
	for credits := 1; credits <= 150; credits++ {
		current := order[ComputeRank(credits)]
		assert.GreaterOrEqual(t, current, prev, "credits=%d", credits)
		prev = current
	}
}

func TestComputeProgress(t *testing.T) {
	assert.Equal(t, 0, ComputeProgress(0, 0))
	assert.Equal(t, 0, ComputeProgress(0, 5))
	assert.Equal(t, 33, ComputeProgress(1, 3))
	assert.Equal(t, 67, ComputeProgress(2, 3))
	assert.Equal(t, 100, ComputeProgress(3, 3))
	assert.Equal(t, 100, ComputeProgress(4, 3))
	assert.Equal(t, 100, ComputeProgress(1, 0))
}
