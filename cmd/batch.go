package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

var (
	batchInput       string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Reconcile a batch of report pairs from a JSON file",
	Long:  "Reads a JSON array of report pairs (manual + parsed + contributor) and reconciles them concurrently.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		pairs, err := loadPairs(batchInput)
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		var done, noSignal int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		start := time.Now()
		for _, pair := range pairs {
			g.Go(func() error {
				result := env.Engine.Reconcile(pair.Manual, pair.Parsed)

				rec := &model.ReconciliationRecord{
					ID:            uuid.New().String(),
					ReportID:      pair.ReportID,
					ContributorID: pair.ContributorID,
					Guild:         pair.Guild,
					Result:        result,
					CreatedAt:     time.Now().UTC(),
				}
				if err := env.Store.SaveReconciliation(gctx, rec); err != nil {
					return eris.Wrapf(err, "save reconciliation for report %s", pair.ReportID)
				}

				env.Accumulator.RecordAsync(pair.ContributorID, pair.Guild, result)

				atomic.AddInt64(&done, 1)
				if result.NoSignal() {
					atomic.AddInt64(&noSignal, 1)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch reconciliation complete",
			zap.Int64("pairs", done),
			zap.Int64("no_signal", noSignal),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func loadPairs(path string) ([]model.ReportPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch input %s", path)
	}
	var pairs []model.ReportPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, eris.Wrap(err, "parse batch input")
	}
	for i := range pairs {
		if pairs[i].ReportID == "" {
			pairs[i].ReportID = uuid.New().String()
		}
		if pairs[i].ContributorID == "" {
			return nil, eris.Errorf("batch input entry %d: contributor_id is required", i)
		}
	}
	return pairs, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "path to JSON array of report pairs")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent reconciliations (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
