package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/observability/metrics"
)

// StatsWorker periodically samples inventory sizes and publishes them
// as gauges.
type StatsWorker struct {
	clothingRepository domain.ClothingRepository
	userRepository     domain.UserRepository
	outfitRepository   domain.OutfitRepository
	logger             *slog.Logger
	interval           time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(
	clothingRepo domain.ClothingRepository,
	userRepo domain.UserRepository,
	outfitRepo domain.OutfitRepository,
	logger *slog.Logger,
	interval time.Duration,
) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWorker{
		clothingRepository: clothingRepo,
		userRepository:     userRepo,
		outfitRepository:   outfitRepo,
		logger:             logger,
		interval:           interval,
	}
}

// Start begins the sampling loop. It runs until the context is
// cancelled.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	// Publish once at startup so the gauges are not empty until the
	// first tick.
	w.sample(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *StatsWorker) sample(ctx context.Context) {
	items, err := w.clothingRepository.Count(ctx)
	if err != nil {
		w.logger.Error("failed to count catalog items", slog.String("error", err.Error()))
		return
	}
	users, err := w.userRepository.Count(ctx)
	if err != nil {
		w.logger.Error("failed to count users", slog.String("error", err.Error()))
		return
	}
	outfits, err := w.outfitRepository.Count(ctx)
	if err != nil {
		w.logger.Error("failed to count outfits", slog.String("error", err.Error()))
		return
	}

	metrics.SetInventorySizes(items, users, outfits)
}
