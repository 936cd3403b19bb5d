// Package pipeline runs the full dataset build: initial generation,
// augmentation, optional paraphrasing, top-up, trim, quality checks and
// persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"agriqa/internal/config"
	"agriqa/internal/corpus"
	"agriqa/internal/lexicon"
	"agriqa/internal/nlp"
	"agriqa/internal/paraphrase"
	"agriqa/internal/random"
	"agriqa/internal/report"
	"agriqa/internal/storage"
)

// DriftTolerance is the share difference above which a distribution drift
// signal is raised.
const DriftTolerance = 0.05

// Options wires the collaborators of a run. Nil collaborators are built from
// Config.
type Options struct {
	Config      *config.Config
	Lexicon     *lexicon.Lexicon
	Thesaurus   *nlp.Thesaurus
	Paraphraser paraphrase.Paraphraser
	Store       storage.RunStore
	Logger      zerolog.Logger
}

// Summary describes a finished run.
type Summary struct {
	RunID             string                 `json:"run_id"`
	Seed              int64                  `json:"seed"`
	TargetSize        int                    `json:"target_size"`
	Size              int                    `json:"size"`
	Initial           corpus.Stats           `json:"initial"`
	Augment           corpus.AugmentStats    `json:"augment"`
	Paraphrase        corpus.ParaphraseStats `json:"paraphrase"`
	TopUpAttempts     int                    `json:"topup_attempts"`
	Trimmed           int                    `json:"trimmed"`
	DuplicatesRemoved int                    `json:"duplicates_removed"`
	Shortfall         int                    `json:"shortfall"`
	Quality           corpus.QualityReport   `json:"quality"`
	OutputCSV         string                 `json:"output_csv"`
	ReportPath        string                 `json:"report_path,omitempty"`
	Stored            bool                   `json:"stored"`
	Duration          time.Duration          `json:"duration"`

	Table corpus.Table `json:"-"`
}

type runSettings struct {
	Size            int     `json:"size"`
	Seed            int64   `json:"seed"`
	InitialFraction float64 `json:"initial_fraction"`
	Augment         bool    `json:"augment"`
	AugmentFraction float64 `json:"augment_fraction"`
	TopUpAttempts   int     `json:"topup_attempts"`
	MaxAttempts     int     `json:"max_attempts"`
	Lexicon         string  `json:"lexicon,omitempty"`
	Paraphrase      string  `json:"paraphrase,omitempty"`
}

type run struct {
	cfg   *config.Config
	lex   *lexicon.Lexicon
	asm   *corpus.Assembler
	para  paraphrase.Paraphraser
	store storage.RunStore
	rep   *report.Report
	log   zerolog.Logger
	sum   Summary
}

// Run builds, checks and persists one dataset.
func Run(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}

	r, closeStore, err := prepare(ctx, cfg, opts)
	if err != nil {
		return Summary{}, err
	}
	defer closeStore()

	table, err := r.generateStage()
	if err != nil {
		return r.sum, err
	}
	if cfg.Generation.Augment {
		table = r.augmentStage(table)
	}
	if r.para != nil {
		if table, err = r.paraphraseStage(ctx, table); err != nil {
			return r.sum, err
		}
	}
	table = r.topUpStage(table)
	table = r.trimStage(table)
	table = r.qualityStage(table)

	r.sum.Table = table
	r.sum.Size = len(table)
	if err := r.persistStage(ctx, table); err != nil {
		return r.sum, err
	}
	r.sum.Duration = time.Since(start)
	r.log.Info().Int("size", r.sum.Size).Dur("duration", r.sum.Duration).Str("run_id", r.sum.RunID).Msg("dataset generation complete")
	return r.sum, nil
}

func prepare(ctx context.Context, cfg *config.Config, opts Options) (*run, func(), error) {
	noop := func() {}
	lex := opts.Lexicon
	if lex == nil {
		var err error
		if lex, err = lexicon.Load(cfg.Lexicon.Path); err != nil {
			return nil, noop, fmt.Errorf("load lexicon: %w", err)
		}
	}
	th := opts.Thesaurus
	if th == nil {
		var err error
		if cfg.Lexicon.Thesaurus != "" {
			th, err = nlp.LoadThesaurus(cfg.Lexicon.Thesaurus)
		} else {
			th, err = nlp.DefaultThesaurus()
		}
		if err != nil {
			return nil, noop, fmt.Errorf("load thesaurus: %w", err)
		}
	}

	para := opts.Paraphraser
	if para == nil && cfg.Paraphrase.Enabled {
		var err error
		para, err = paraphrase.New(ctx, paraphrase.Options{
			Provider: cfg.Paraphrase.Provider,
			Model:    cfg.Paraphrase.Model,
			APIKey:   cfg.Paraphrase.APIKey,
			BaseURL:  cfg.Paraphrase.BaseURL,
			Timeout:  cfg.Paraphrase.Timeout,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("init paraphraser: %w", err)
		}
	}

	store := opts.Store
	closeStore := noop
	if store == nil && cfg.Output.DB != "" {
		s, err := storage.NewSQLiteStore(cfg.Output.DB)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize database: %w", err)
		}
		store = s
		closeStore = func() { s.Close() }
	}

	asm := corpus.NewAssembler(lex, th, opts.Logger)
	asm.MaxAttempts = cfg.Generation.MaxAttempts

	g := cfg.Generation
	r := &run{
		cfg:   cfg,
		lex:   lex,
		asm:   asm,
		para:  para,
		store: store,
		rep:   report.New(g.Seed, g.Size, cfg.Output.CSV),
		log:   opts.Logger,
		sum:   Summary{Seed: g.Seed, TargetSize: g.Size, OutputCSV: cfg.Output.CSV},
	}
	return r, closeStore, nil
}

func (r *run) generateStage() (corpus.Table, error) {
	g := r.cfg.Generation
	initial := max(1, int(math.Floor(float64(g.Size)*g.InitialFraction+1e-9)))
	r.log.Info().Int("initial", initial).Int64("seed", g.Seed).Msg("generating initial samples")

	h := r.rep.BeginStage("generate")
	res, err := r.asm.Generate(initial, g.Seed)
	r.sum.Initial = res.Stats
	counters := map[string]float64{
		"requested":          float64(initial),
		"rows":               float64(len(res.Table)),
		"in_scope":           float64(res.Stats.InScope),
		"out_of_scope":       float64(res.Stats.OutOfScope),
		"duplicates_dropped": float64(res.Stats.DuplicatesDropped),
		"backfill_attempts":  float64(res.Stats.Attempts),
	}
	switch {
	case errors.Is(err, corpus.ErrExhausted):
		r.rep.EndStage(h, "partial", counters, []string{err.Error()}, nil)
		r.rep.AddSignal("exhausted", "generate", report.SeverityWarning, err.Error(), float64(initial-len(res.Table)))
		r.log.Warn().Err(err).Msg("initial generation fell short")
	case err != nil:
		r.rep.EndStage(h, "", counters, nil, err)
		return nil, fmt.Errorf("generate: %w", err)
	default:
		r.rep.EndStage(h, "ok", counters, nil, nil)
	}
	if res.Stats.Attempts > 0 {
		r.rep.AddSignal("backfill", "generate", report.SeverityInfo,
			fmt.Sprintf("%d backfill rounds replaced duplicate questions", res.Stats.Attempts), float64(res.Stats.Attempts))
	}
	return res.Table, nil
}

func (r *run) augmentStage(table corpus.Table) corpus.Table {
	h := r.rep.BeginStage("augment")
	out, st := r.asm.Augment(table, r.cfg.Generation.AugmentFraction)
	r.sum.Augment = st
	counters := map[string]float64{"sampled": float64(st.Sampled), "added": float64(st.Added), "rows": float64(len(out))}
	for technique, n := range st.Techniques {
		counters["technique_"+string(technique)] = float64(n)
	}
	r.rep.EndStage(h, "ok", counters, nil, nil)
	r.log.Info().Int("sampled", st.Sampled).Int("added", st.Added).Int("rows", len(out)).Msg("augmented dataset")
	return out
}

func (r *run) paraphraseStage(ctx context.Context, table corpus.Table) (corpus.Table, error) {
	h := r.rep.BeginStage("paraphrase")
	out, st, err := r.asm.Paraphrase(ctx, table, r.cfg.Paraphrase.Fraction, r.para)
	r.sum.Paraphrase = st
	counters := map[string]float64{
		"requested": float64(st.Requested),
		"added":     float64(st.Added),
		"skipped":   float64(st.Skipped),
		"failed":    float64(st.Failed),
	}
	r.rep.EndStage(h, "", counters, []string{"provider " + st.Provider}, err)
	if err != nil {
		return nil, fmt.Errorf("paraphrase: %w", err)
	}
	if st.Requested > 0 && st.Failed == st.Requested {
		r.rep.AddSignal("paraphrase_failed", "paraphrase", report.SeverityWarning,
			"every paraphrase request failed", float64(st.Failed))
	}
	return out, nil
}

func (r *run) topUpStage(table corpus.Table) corpus.Table {
	g := r.cfg.Generation
	h := r.rep.BeginStage("topup")
	attempt := 0
	for len(table) < g.Size && attempt < g.TopUpAttempts {
		attempt++
		shortfall := g.Size - len(table)
		r.log.Info().Int("rows", len(table)).Int("target", g.Size).Int("attempt", attempt).Msg("generating more samples")

		res, err := r.asm.Generate(shortfall, g.Seed+int64(attempt))
		if err != nil {
			r.log.Warn().Err(err).Int("attempt", attempt).Msg("top-up fell short")
		}
		table = append(table, res.Table...).Dedup()
	}
	r.sum.TopUpAttempts = attempt
	r.rep.EndStage(h, "ok", map[string]float64{"attempts": float64(attempt), "rows": float64(len(table))}, nil, nil)
	return table
}

func (r *run) trimStage(table corpus.Table) corpus.Table {
	g := r.cfg.Generation
	h := r.rep.BeginStage("trim")
	if len(table) > g.Size {
		r.sum.Trimmed = len(table) - g.Size
		table = table.SampleDown(random.New(g.Seed), g.Size)
	}
	if short := g.Size - len(table); short > 0 {
		r.sum.Shortfall = short
		r.rep.AddSignal("shortfall", "trim", report.SeverityWarning,
			fmt.Sprintf("dataset has %d rows, target is %d", len(table), g.Size), float64(short))
	}
	r.rep.EndStage(h, "ok", map[string]float64{"trimmed": float64(r.sum.Trimmed), "rows": float64(len(table))}, nil, nil)
	return table
}

func (r *run) qualityStage(table corpus.Table) corpus.Table {
	h := r.rep.BeginStage("quality")
	if dup := table.Duplicates(); dup > 0 {
		r.log.Warn().Int("duplicates", dup).Msg("removing duplicates")
		r.rep.AddSignal("duplicates", "quality", report.SeverityWarning,
			fmt.Sprintf("found %d duplicate questions", dup), float64(dup)/float64(len(table)))
		table = table.Dedup()
		r.sum.DuplicatesRemoved = dup
	}

	q := corpus.Analyze(table)
	r.sum.Quality = q
	for _, c := range q.Intents {
		r.log.Debug().Str("intent", c.Key).Int("count", c.Count).Float64("share", c.Share).Msg("intent distribution")
	}
	for _, c := range q.Personas {
		r.log.Debug().Str("persona", c.Key).Int("count", c.Count).Float64("share", c.Share).Msg("persona distribution")
	}
	r.log.Info().Float64("avg_chars", q.Chars.Mean).Int("min_chars", q.Chars.Min).Int("max_chars", q.Chars.Max).
		Msg("question length statistics")

	t := r.lex.Targets
	intentTargets := map[string]float64{lexicon.OutOfScope: t.OutOfScopeFraction}
	for _, w := range t.Intents {
		intentTargets[w.Key] = w.Weight * (1 - t.OutOfScopeFraction)
	}
	intentDrift := r.rep.CompareShares("quality", "intent", intentTargets, table.CountBy(corpus.ByIntent), len(table), DriftTolerance)

	inScope := make(corpus.Table, 0, len(table))
	for _, rec := range table {
		if rec.Intent != lexicon.OutOfScope {
			inScope = append(inScope, rec)
		}
	}
	personaTargets := map[string]float64{}
	for _, w := range t.Personas {
		personaTargets[w.Key] = w.Weight
	}
	personaDrift := r.rep.CompareShares("quality", "persona", personaTargets, inScope.CountBy(corpus.ByPersona), len(inScope), DriftTolerance)

	if q.ShortCount > 0 {
		r.rep.AddSignal("short_questions", "quality", report.SeverityInfo,
			fmt.Sprintf("%d questions have fewer than %d words", q.ShortCount, corpus.ShortQuestionWords), float64(q.ShortCount))
	}
	if q.LongCount > 0 {
		r.rep.AddSignal("long_questions", "quality", report.SeverityInfo,
			fmt.Sprintf("%d questions have more than %d words", q.LongCount, corpus.LongQuestionWords), float64(q.LongCount))
	}

	r.rep.EndStage(h, "ok", map[string]float64{
		"rows":          float64(len(table)),
		"duplicates":    float64(r.sum.DuplicatesRemoved),
		"intent_drift":  intentDrift,
		"persona_drift": personaDrift,
		"avg_chars":     q.Chars.Mean,
		"avg_words":     q.Words.Mean,
	}, nil, nil)
	return table
}

func (r *run) persistStage(ctx context.Context, table corpus.Table) error {
	cfg := r.cfg
	h := r.rep.BeginStage("persist")

	r.log.Info().Str("path", cfg.Output.CSV).Int("rows", len(table)).Msg("saving dataset")
	if err := corpus.SaveCSV(cfg.Output.CSV, table); err != nil {
		r.rep.EndStage(h, "", nil, nil, err)
		return err
	}

	settings := runSettings{
		Size:            cfg.Generation.Size,
		Seed:            cfg.Generation.Seed,
		InitialFraction: cfg.Generation.InitialFraction,
		Augment:         cfg.Generation.Augment,
		AugmentFraction: cfg.Generation.AugmentFraction,
		TopUpAttempts:   cfg.Generation.TopUpAttempts,
		MaxAttempts:     cfg.Generation.MaxAttempts,
		Lexicon:         cfg.Lexicon.Path,
	}
	if r.para != nil {
		settings.Paraphrase = r.para.Name()
	}
	meta, err := storage.NewRun(cfg.Generation.Seed, cfg.Generation.Size, settings)
	if err != nil {
		r.rep.EndStage(h, "", nil, nil, err)
		return err
	}
	r.sum.RunID = meta.ID
	r.rep.RunID = meta.ID

	if r.store != nil {
		if _, err := r.store.SaveRun(ctx, meta, table); err != nil {
			r.rep.EndStage(h, "", nil, nil, err)
			return fmt.Errorf("save run: %w", err)
		}
		r.sum.Stored = true
		r.log.Info().Str("run_id", meta.ID).Msg("run stored")
	}
	r.rep.EndStage(h, "ok", map[string]float64{"rows": float64(len(table))}, nil, nil)

	r.rep.Finalize(len(table))
	if cfg.Output.Report != "" {
		if err := r.rep.Save(cfg.Output.Report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		r.sum.ReportPath = cfg.Output.Report
	}
	return nil
}
