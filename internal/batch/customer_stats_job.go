package batch

import (
	"context"
	"fmt"
	"log/slog"
	"osworks-api/internal/infrastructure/monitoring"
	"time"
)

type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// CustomerStatsJob refreshes the registered-customers gauge.
type CustomerStatsJob struct {
	repo   CustomerCounter
	logger *slog.Logger
}

func NewCustomerStatsJob(repo CustomerCounter, logger *slog.Logger) *CustomerStatsJob {
	if repo == nil || logger == nil {
		panic("CustomerStatsJob dependencies cannot be nil")
	}
	return &CustomerStatsJob{
		repo:   repo,
		logger: logger.With("job", "CustomerStats"),
	}
}

func (j *CustomerStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.DebugContext(ctx, "Starting customer stats job.")

	count, err := j.repo.Count(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to count customers, gauge left unchanged.", slog.Any("error", err))
		return fmt.Errorf("cannot refresh customer stats: %w", err)
	}

	monitoring.SetCustomersRegistered(count)
	j.logger.InfoContext(ctx, "Customer stats job finished.",
		slog.Int64("clientes", count),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}
