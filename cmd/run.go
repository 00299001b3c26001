package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khabzox/business-lead-finder/internal/model"
	"github.com/khabzox/business-lead-finder/internal/pipeline"
	"github.com/khabzox/business-lead-finder/internal/store"
)

var (
	runInput         string
	runOutput        string
	runCSV           string
	runNoProbe       bool
	runMinScore      int
	runNoWebsiteOnly bool
	runLimit         int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full lead pipeline over a raw records file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		raws, err := readRawRecords(runInput)
		if err != nil {
			return err
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		rec := newRunRecorder(ctx)
		defer rec.close()

		result, err := p.Run(ctx, raws, pipeline.Options{Probe: !runNoProbe, OnStage: rec.stage})
		if err != nil {
			rec.failed()
			return err
		}

		filter := pipeline.Filter{
			MinScore:      runMinScore,
			NoWebsiteOnly: runNoWebsiteOnly,
			Limit:         runLimit,
		}
		leads := filter.Apply(result.Leads)

		rec.ranked(result.Summary, leads)

		if runCSV != "" {
			if err := writeLeadsCSV(runCSV, leads); err != nil {
				return err
			}
		}
		return writeLeadsJSON(runOutput, leads, result.Summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "path to raw records JSON file (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "path for ranked leads JSON (default stdout)")
	runCmd.Flags().StringVar(&runCSV, "csv", "", "also write leads to a CSV file")
	runCmd.Flags().BoolVar(&runNoProbe, "no-probe", false, "skip website probing")
	runCmd.Flags().IntVar(&runMinScore, "min-score", 0, "drop leads below this score")
	runCmd.Flags().BoolVar(&runNoWebsiteOnly, "no-website-only", false, "keep only leads without a known website")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "cap the number of leads emitted")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

func readRawRecords(path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "run: read input %s", path)
	}
	var raws []model.RawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, eris.Wrap(err, "run: parse input")
	}
	return raws, nil
}

// runRecorder persists a run's status transitions when a store is
// configured, and is a no-op otherwise. The pipeline itself keeps no state
// between runs; persistence is this caller's choice, so failures here are
// logged and never fail the command.
type runRecorder struct {
	ctx   context.Context
	st    store.Store
	runID string
}

func newRunRecorder(ctx context.Context) *runRecorder {
	rec := &runRecorder{ctx: ctx}

	st, err := openStore(ctx)
	if err != nil {
		zap.L().Warn("run: open store failed", zap.Error(err))
		return rec
	}
	if st == nil {
		return rec
	}

	run, err := st.CreateRun(ctx)
	if err != nil {
		zap.L().Warn("run: create run failed", zap.Error(err))
		st.Close()
		return rec
	}
	rec.st = st
	rec.runID = run.ID
	return rec
}

func (r *runRecorder) stage(status model.RunStatus) {
	if r.st == nil {
		return
	}
	if err := r.st.UpdateRunStatus(r.ctx, r.runID, status); err != nil {
		zap.L().Warn("run: update status failed", zap.Error(err))
	}
}

func (r *runRecorder) failed() {
	if r.st == nil {
		return
	}
	// The run context may already be cancelled; the failure marker should
	// still land.
	if err := r.st.CompleteRun(context.Background(), r.runID, model.RunStatusFailed, model.RunSummary{}); err != nil {
		zap.L().Warn("run: mark failed", zap.Error(err))
	}
}

func (r *runRecorder) ranked(summary model.RunSummary, leads []model.BusinessRecord) {
	if r.st == nil {
		return
	}
	if err := r.st.SaveLeads(r.ctx, r.runID, leads); err != nil {
		zap.L().Warn("run: save leads failed", zap.Error(err))
		return
	}
	if err := r.st.CompleteRun(r.ctx, r.runID, model.RunStatusRanked, summary); err != nil {
		zap.L().Warn("run: complete run failed", zap.Error(err))
		return
	}
	zap.L().Info("run: persisted", zap.String("run_id", r.runID), zap.Int("leads", len(leads)))
}

func (r *runRecorder) close() {
	if r.st != nil {
		r.st.Close()
	}
}

// openStore returns the configured store, nil when persistence is disabled.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver == "" {
		return nil, nil
	}
	if cfg.Store.Driver != "sqlite" {
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Store.Driver)
	}
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func writeLeadsJSON(path string, leads []model.BusinessRecord, summary model.RunSummary) error {
	out := struct {
		Leads   []model.BusinessRecord `json:"leads"`
		Summary model.RunSummary       `json:"summary"`
	}{Leads: leads, Summary: summary}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return eris.Wrap(err, "run: marshal output")
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "run: write %s", path)
}

func writeLeadsCSV(path string, leads []model.BusinessRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "run: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"name", "category", "address", "phone", "website", "rating", "review_count", "lead_score", "opportunity"}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "run: write csv header")
	}
	for _, lead := range leads {
		website := lead.Website
		if website == "" && lead.WebsiteProbe != nil && lead.WebsiteProbe.Found {
			website = lead.WebsiteProbe.URL
		}
		row := []string{
			lead.Name,
			lead.Category,
			lead.Address,
			lead.Phone,
			website,
			strconv.FormatFloat(lead.Rating, 'f', 1, 64),
			strconv.Itoa(lead.ReviewCount),
			strconv.Itoa(lead.LeadScore),
			string(model.Opportunity(lead.LeadScore)),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "run: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "run: flush csv")
}
