package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

var (
	reconcileManualPath string
	reconcileParsedPath string
	reconcileContrib    string
	reconcileGuild      string
	reconcileReportID   string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile one manual report against its parsed counterpart",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		manual, err := loadReport(reconcileManualPath)
		if err != nil {
			return err
		}
		parsed, err := loadReport(reconcileParsedPath)
		if err != nil {
			return err
		}

		result := env.Engine.Reconcile(manual, parsed)
		if result.NoSignal() {
			zap.L().Warn("no validation signal: zero fields compared",
				zap.String("contributor_id", reconcileContrib),
			)
		}

		reportID := reconcileReportID
		if reportID == "" {
			reportID = uuid.New().String()
		}
		rec := &model.ReconciliationRecord{
			ID:            uuid.New().String(),
			ReportID:      reportID,
			ContributorID: reconcileContrib,
			Guild:         reconcileGuild,
			Result:        result,
			CreatedAt:     time.Now().UTC(),
		}
		if err := env.Store.SaveReconciliation(ctx, rec); err != nil {
			return eris.Wrap(err, "save reconciliation")
		}

		// Credibility update never blocks or fails the reconcile itself.
		env.Accumulator.RecordAsync(reconcileContrib, reconcileGuild, result)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		fmt.Println(string(out))

		return nil
	},
}

func loadReport(path string) (*model.ScoutReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read report %s", path)
	}
	var r model.ScoutReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "parse report %s", path)
	}
	return &r, nil
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileManualPath, "manual", "", "path to the manual report JSON")
	reconcileCmd.Flags().StringVar(&reconcileParsedPath, "parsed", "", "path to the parsed report JSON")
	reconcileCmd.Flags().StringVar(&reconcileContrib, "contributor", "", "contributor id")
	reconcileCmd.Flags().StringVar(&reconcileGuild, "guild", "", "guild scope (empty = global)")
	reconcileCmd.Flags().StringVar(&reconcileReportID, "report-id", "", "observation/report id (generated if empty)")
	_ = reconcileCmd.MarkFlagRequired("manual")
	_ = reconcileCmd.MarkFlagRequired("parsed")
	_ = reconcileCmd.MarkFlagRequired("contributor")
	rootCmd.AddCommand(reconcileCmd)
}
