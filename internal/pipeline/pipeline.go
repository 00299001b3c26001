// Package pipeline wires normalization, deduplication, website probing, and
// lead scoring into one ranked-leads call.
package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/khabzox/business-lead-finder/internal/config"
	"github.com/khabzox/business-lead-finder/internal/dedupe"
	"github.com/khabzox/business-lead-finder/internal/domains"
	"github.com/khabzox/business-lead-finder/internal/model"
	"github.com/khabzox/business-lead-finder/internal/normalize"
	"github.com/khabzox/business-lead-finder/internal/probe"
	"github.com/khabzox/business-lead-finder/internal/scorer"
)

// Options selects per-run behavior.
type Options struct {
	// Probe enables the website-probing stage. Without it, scoring uses
	// only the upstream-supplied website field.
	Probe bool
	// OnStage, when set, is called as each stage begins. Callers persisting
	// runs use it to record status transitions; it must not block.
	OnStage func(model.RunStatus)
}

func (o Options) stage(status model.RunStatus) {
	if o.OnStage != nil {
		o.OnStage(status)
	}
}

// Result is the outcome of one pipeline run: leads ranked by score
// descending, plus the per-stage counters.
type Result struct {
	Leads   []model.BusinessRecord `json:"leads"`
	Summary model.RunSummary       `json:"summary"`
}

// Pipeline runs the normalize -> dedupe -> probe -> score -> rank stages.
// It owns the working record list for the duration of a run; components
// receive and return values and keep no cross-call state.
type Pipeline struct {
	cfg        *config.Config
	normalizer *normalize.Normalizer
	generator  *domains.Generator
	scorer     *scorer.Scorer
}

// New validates the configuration and constructs a Pipeline. Configuration
// mistakes are the only fatal error class, caught here before any record is
// processed.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: invalid config")
	}
	return &Pipeline{
		cfg:        cfg,
		normalizer: normalize.New(cfg.Phone),
		generator:  domains.New(cfg.Domains),
		scorer:     scorer.New(cfg.Score),
	}, nil
}

// Run executes the full pipeline over a batch of raw records. Records that
// fail normalization are dropped and logged, never fatal; the returned
// summary accounts for every input record. Output order is lead score
// descending with original batch order breaking ties.
//
// On caller cancellation Run returns a non-nil error together with a
// partial Result: records probed before the cutoff keep their results and
// everything is still scored and ranked.
func (p *Pipeline) Run(ctx context.Context, raws []model.RawRecord, opts Options) (*Result, error) {
	log := zap.L()
	summary := model.RunSummary{Input: len(raws)}

	// Normalize. A per-record failure excludes only that record.
	opts.stage(model.RunStatusNormalizing)
	records := make([]model.BusinessRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := p.normalizer.Normalize(raw)
		if err != nil {
			summary.Dropped++
			log.Warn("pipeline: record dropped",
				zap.Int("index", i),
				zap.String("source", raw.String("source")),
				zap.Error(err),
			)
			continue
		}
		log.Debug("pipeline: record normalized", zap.String("name", rec.Name))
		records = append(records, rec)
	}

	// Dedupe.
	opts.stage(model.RunStatusDeduplicating)
	before := len(records)
	records = dedupe.Deduplicate(records)
	summary.Duplicates = before - len(records)

	// Probe (the only concurrent stage). A cancellation mid-probe is
	// remembered but the surviving partial results still flow through
	// scoring and ranking below.
	var probeErr error
	if opts.Probe && len(records) > 0 {
		opts.stage(model.RunStatusProbing)
		probeErr = p.probeStage(ctx, records, &summary)
	}

	// Score.
	opts.stage(model.RunStatusScoring)
	for i := range records {
		records[i].LeadScore = p.scorer.Score(records[i])
	}
	summary.Scored = len(records)

	// Rank: stable sort keeps original batch order for equal scores.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LeadScore > records[j].LeadScore
	})

	log.Info("pipeline: run complete",
		zap.Int("input", summary.Input),
		zap.Int("dropped", summary.Dropped),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("probed", summary.Probed),
		zap.Int("leads", len(records)),
	)

	return &Result{Leads: records, Summary: summary}, probeErr
}

// probeStage probes every record through a bounded worker pool. The rate
// limiter and result cache live exactly as long as this run. Workers process
// one record's candidates sequentially; only work across records is
// parallel. The stage carries its own deadline so one slow target cannot
// stall the batch, and caller cancellation abandons in-flight probes while
// keeping whatever results already landed.
func (p *Pipeline) probeStage(ctx context.Context, records []model.BusinessRecord, summary *model.RunSummary) error {
	stageCtx := ctx
	if timeout := p.cfg.Probe.StageTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var limiter *rate.Limiter
	if interval := p.cfg.Probe.RateInterval(); interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	prober := probe.New(p.cfg.Probe, limiter, probe.NewCache(p.cfg.Probe.CacheTTL()))

	g, gctx := errgroup.WithContext(stageCtx)
	g.SetLimit(p.cfg.Probe.Workers)

	for i := range records {
		i := i
		g.Go(func() error {
			rec := &records[i]
			var result model.WebsiteProbeResult
			if rec.Website != "" {
				result = prober.ValidateProvided(gctx, rec.Name, rec.Website)
			} else {
				candidates := p.generator.Generate(rec.Name, rec.Category)
				result = prober.Probe(gctx, rec.Name, candidates)
			}
			// Attached wholesale, never patched in place.
			rec.WebsiteProbe = &result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "pipeline: probe stage")
	}
	summary.Probed = len(records)

	// Deadline expiry is not an error: partially probed records carry
	// whatever accumulated, and caller cancellation still aborts the run.
	if ctx.Err() != nil {
		return eris.Wrap(ctx.Err(), "pipeline: cancelled")
	}
	return nil
}
