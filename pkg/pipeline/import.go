package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/namelex/pkg/config"
	"github.com/japaniel/namelex/pkg/dataset"
	"github.com/japaniel/namelex/pkg/db"
	"github.com/japaniel/namelex/pkg/ingest"
)

// Import builds or refreshes the dataset at cfg.Dataset.Path from the raw
// CSV files in cfg.Dataset.SourceDir, downloading them first when the
// directory is empty and a source URL is configured.
func Import(ctx context.Context, cfg *config.Config, log *zap.Logger) (ingest.Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := dataset.EnsureSource(ctx, log, cfg.Dataset.SourceDir, cfg.Dataset.SourceURL); err != nil {
		return ingest.Summary{}, fmt.Errorf("prepare source: %w", err)
	}

	conn, err := db.Open(cfg.Dataset.Path)
	if err != nil {
		return ingest.Summary{}, fmt.Errorf("open dataset %s: %w", cfg.Dataset.Path, err)
	}
	defer conn.Close()

	im := ingest.NewImporter(conn, log)
	im.Workers = cfg.Dataset.ImportWorkers
	im.BatchSize = cfg.Dataset.ImportBatchSize
	im.MaxPerCountry = cfg.Dataset.MaxPerCountry
	im.OnProgress = func(done, total int) {
		log.Info("import progress", zap.Int("files_done", done), zap.Int("files_total", total))
	}
	return im.Import(ctx, cfg.Dataset.SourceDir)
}
