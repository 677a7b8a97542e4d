package service

import "github.com/eduplatforme/exam-backend/internal/model"

// AggregateResults computes statistics over the submitted attempts of one exam.
// Every figure is 0 when there are no submissions.
func AggregateResults(rows []model.SubmissionRow) model.Statistics {
	stats := model.Statistics{TotalSubmissions: len(rows)}
	if len(rows) == 0 {
		return stats
	}

	var sum float64
	stats.HighestScore = rows[0].Percentage
	stats.LowestScore = rows[0].Percentage
	for _, r := range rows {
		if r.Passed {
			stats.PassedCount++
		}
		sum += r.Percentage
		stats.HighestScore = max(stats.HighestScore, r.Percentage)
		stats.LowestScore = min(stats.LowestScore, r.Percentage)
	}
	stats.FailedCount = stats.TotalSubmissions - stats.PassedCount
	stats.AverageScore = round2(sum / float64(len(rows)))
	stats.HighestScore = round2(stats.HighestScore)
	stats.LowestScore = round2(stats.LowestScore)
	return stats
}
