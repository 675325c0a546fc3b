package analytics

import "math"

const rankingSize = 3

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// accumulator 累计评分总和与数量，count 为 0 时不产生均值
type accumulator struct {
	sum   int64
	count int
}

func (a *accumulator) add(rating int32) {
	a.sum += int64(rating)
	a.count++
}

func (a *accumulator) mean() float64 {
	return round2(float64(a.sum) / float64(a.count))
}
