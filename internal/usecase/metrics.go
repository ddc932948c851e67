package usecase

import "context"

// MetricsSummary represents aggregated verification insights.
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	CompletedRequests int64   `json:"completed_requests"`
	Matches           int64   `json:"matches"`
	MatchRate         float64 `json:"match_rate"`
	AverageSimilarity float64 `json:"average_similarity"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
}

// GetMetricsSummary aggregates verification metrics from persisted logs.
func (uc *FaceUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalRequests:     aggregation.TotalCount,
		CompletedRequests: aggregation.SuccessCount,
		Matches:           aggregation.MatchCount,
		AverageSimilarity: aggregation.AverageSimilarity,
		AverageLatencyMs:  aggregation.AverageLatencyMs,
	}
	if aggregation.TotalCount > 0 {
		summary.MatchRate = float64(aggregation.MatchCount) / float64(aggregation.TotalCount)
	}
	return summary, nil
}
