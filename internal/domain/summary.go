package domain

import "math"

// Summarize recomputes the aggregate for a rating list. Category averages
// include only ratings where that category is present and non-zero; an unset
// category must never count as a zero-star vote. Internal values keep full
// precision, rounding is a display concern.
func Summarize(ratings []Rating) RatingSummary {
	summary := RatingSummary{CategoryAverages: map[string]float64{}}
	if len(ratings) == 0 {
		return summary
	}

	var total int
	catSums := map[string]int{}
	catCounts := map[string]int{}
	for _, r := range ratings {
		total += r.Score
		for name, value := range r.CategoryScores {
			if value <= 0 {
				continue
			}
			catSums[name] += value
			catCounts[name]++
		}
	}

	summary.Count = len(ratings)
	summary.AverageOverall = float64(total) / float64(len(ratings))
	for name, sum := range catSums {
		summary.CategoryAverages[name] = float64(sum) / float64(catCounts[name])
	}
	return summary
}

// RoundScore rounds an average to one decimal for display.
func RoundScore(value float64) float64 {
	return math.Round(value*10) / 10
}
