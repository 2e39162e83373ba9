package ingest

import (
	"context"
	"fmt"

	"github.com/sheet-uploader/backend/internal/models"
)

// Chart sums quantity per exact product string, ordered by product.
// Products differing only in case are separate groups.
func (s *Service) Chart(ctx context.Context) ([]models.ChartAggregate, error) {
	totals, err := s.records.AggregateByProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chart data: %w", err)
	}
	if totals == nil {
		totals = []models.ChartAggregate{}
	}
	return totals, nil
}
