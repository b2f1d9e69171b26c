// Package pipeline runs a lexicon build end to end: load the dataset,
// collect candidates, build the lexicon and emit every artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/japaniel/namelex/pkg/config"
	"github.com/japaniel/namelex/pkg/dataset"
	"github.com/japaniel/namelex/pkg/emit"
	"github.com/japaniel/namelex/pkg/lexicon"
	"github.com/japaniel/namelex/pkg/metrics"
	"github.com/japaniel/namelex/pkg/names"
)

// Result describes a finished build.
type Result struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Countries []string
	TopN      int
	Stats     lexicon.Stats
	Artifacts []emit.Result
	// Rejected holds requested country codes the dataset does not recognize.
	Rejected []string
	// Empty holds recognized countries that yielded no names.
	Empty      []string
	ReportPath string
}

// Failed returns the artifacts that could not be written.
func (r *Result) Failed() []emit.Result {
	var out []emit.Result
	for _, a := range r.Artifacts {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Err joins the errors of every failed artifact, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, a := range r.Failed() {
		errs = append(errs, a.Err)
	}
	return errors.Join(errs...)
}

// Pipeline builds a lexicon according to a validated Config.
type Pipeline struct {
	cfg *config.Config
	log *zap.Logger
	rec *metrics.Recorder
	now func() time.Time
}

// New creates a Pipeline. rec may be nil.
func New(cfg *config.Config, log *zap.Logger, rec *metrics.Recorder) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, log: log, rec: rec, now: time.Now}
}

// Run executes one build. A dataset failure is returned as a
// *dataset.ResourceError before anything is written. Artifact failures do not
// make Run fail; inspect Result.Failed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	formats, err := p.cfg.OutputFormats()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Started: p.now(),
		TopN:    p.cfg.Build.TopN,
	}
	log := p.log.With(zap.String("run_id", res.RunID))

	stage := p.now()
	h, err := dataset.Initialize(ctx, dataset.Options{
		Path:             p.cfg.Dataset.Path,
		LoadTimeout:      p.cfg.Dataset.LoadTimeout,
		MaxResidentBytes: p.cfg.Dataset.MaxResidentBytes,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}
	defer h.Close()
	p.observeStage("load", stage)

	res.Countries = p.cfg.Build.Countries
	if len(res.Countries) == 0 {
		res.Countries = h.CountryCodes()
	}

	stage = p.now()
	cands, err := names.NewCollector(h, log).Collect(ctx, res.Countries, res.TopN)
	if err != nil {
		return nil, err
	}
	p.observeStage("collect", stage)
	res.Rejected = cands.Rejected
	res.Empty = cands.Empty
	if err := cands.Err(); err != nil {
		log.Warn("some countries were skipped", zap.Error(err))
	}

	stage = p.now()
	lex := lexicon.Build(cands.First, cands.Last)
	res.Stats = lexicon.Summarize(cands.First, cands.Last, lex)
	p.observeStage("build", stage)
	log.Info("lexicon built",
		zap.Int("entries", res.Stats.Entries),
		zap.Int("ambiguous", res.Stats.Ambiguous),
	)

	stage = p.now()
	if err := os.MkdirAll(p.cfg.Build.OutputDir, 0o755); err != nil {
		// Every artifact fails the same way; report them individually.
		for _, f := range formats {
			path := filepath.Join(p.cfg.Build.OutputDir, f.FileName(p.cfg.Build.BaseName))
			res.Artifacts = append(res.Artifacts, emit.Result{
				Format: f,
				Path:   path,
				Err:    &emit.WriteError{Format: f, Path: path, Err: err},
			})
		}
	} else {
		em := emit.NewEmitter(p.cfg.Build.OutputDir, p.cfg.Build.BaseName, log)
		em.Formats = formats
		em.Parallel = p.cfg.Build.Parallel
		res.Artifacts = em.EmitAll(ctx, lex)
	}
	p.observeStage("emit", stage)
	res.Finished = p.now()

	if p.cfg.Build.Report {
		path := filepath.Join(p.cfg.Build.OutputDir, p.cfg.Build.BaseName+".report.yaml")
		if err := WriteReport(path, res); err != nil {
			log.Warn("run report not written", zap.String("path", path), zap.Error(err))
		} else {
			res.ReportPath = path
		}
	}
	p.writeMetrics(log, res)

	return res, nil
}

func (p *Pipeline) observeStage(name string, start time.Time) {
	if p.rec != nil {
		p.rec.ObserveStage(name, p.now().Sub(start))
	}
}

func (p *Pipeline) writeMetrics(log *zap.Logger, res *Result) {
	if p.rec == nil {
		return
	}
	p.rec.ObserveStats(res.Stats)
	p.rec.ObserveRejected(len(res.Rejected))
	for _, a := range res.Artifacts {
		p.rec.ObserveArtifact(a)
	}
	path := p.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := p.rec.WriteTextfile(path, res.Finished); err != nil {
		log.Warn("metrics textfile not written", zap.String("path", path), zap.Error(err))
	}
}

// Verify checks that every configured artifact in the output directory
// decodes to the same lexicon.
func Verify(cfg *config.Config) (*lexicon.Lexicon, error) {
	formats, err := cfg.OutputFormats()
	if err != nil {
		return nil, err
	}
	lex, err := emit.Verify(cfg.Build.OutputDir, cfg.Build.BaseName, formats)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", cfg.Build.OutputDir, err)
	}
	return lex, nil
}
