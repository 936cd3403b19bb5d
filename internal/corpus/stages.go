package corpus

import (
	"context"
	"strings"

	"agriqa/internal/paraphrase"
	"agriqa/internal/transform"
)

// AugmentStats reports one augmentation pass.
type AugmentStats struct {
	Sampled    int                         `json:"sampled"`
	Added      int                         `json:"added"`
	Techniques map[transform.Technique]int `json:"techniques"`
}

// Augment samples int(len*fraction) records without replacement, rewrites
// each question with one uniformly chosen transform and appends the variants
// with their labels. The combined table is deduplicated.
func (a *Assembler) Augment(t Table, fraction float64) (Table, AugmentStats) {
	stats := AugmentStats{Techniques: map[transform.Technique]int{}}
	n := int(float64(len(t)) * fraction)
	if n <= 0 {
		return t, stats
	}

	combined := t.Clone()
	for _, i := range a.rng.Sample(len(t), n) {
		r := t[i]
		question, technique := a.augmenter.Apply(r.Question)
		stats.Techniques[technique]++
		r.Question = question
		combined = append(combined, r)
	}
	stats.Sampled = n

	combined = combined.Dedup()
	stats.Added = len(combined) - len(t.Dedup())
	a.log.Debug().Int("sampled", n).Int("added", stats.Added).Msg("augmented")
	return combined, stats
}

// ParaphraseStats reports one paraphrase pass.
type ParaphraseStats struct {
	Provider  string `json:"provider"`
	Requested int    `json:"requested"`
	Added     int    `json:"added"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Paraphrase rewrites a sampled fraction of questions with p. Per-item
// failures and empty or unchanged rewrites are counted and skipped; only a
// cancelled context stops the pass.
func (a *Assembler) Paraphrase(ctx context.Context, t Table, fraction float64, p paraphrase.Paraphraser) (Table, ParaphraseStats, error) {
	stats := ParaphraseStats{Provider: p.Name()}
	n := int(float64(len(t)) * fraction)
	if n <= 0 {
		return t, stats, nil
	}
	stats.Requested = n

	combined := t.Clone()
	for _, i := range a.rng.Sample(len(t), n) {
		if err := ctx.Err(); err != nil {
			return t, stats, err
		}
		r := t[i]
		out, err := p.Paraphrase(ctx, r.Question)
		if err != nil {
			if ctx.Err() != nil {
				return t, stats, ctx.Err()
			}
			stats.Failed++
			a.log.Warn().Err(err).Str("provider", stats.Provider).Str("question", r.Question).Msg("paraphrase failed")
			continue
		}
		out = paraphrase.Clean(out)
		if out == "" || strings.EqualFold(out, r.Question) {
			stats.Skipped++
			continue
		}
		r.Question = out
		combined = append(combined, r)
	}

	before := len(t.Dedup())
	combined = combined.Dedup()
	stats.Added = len(combined) - before
	a.log.Info().Str("provider", stats.Provider).Int("requested", n).Int("added", stats.Added).
		Int("failed", stats.Failed).Msg("paraphrased")
	return combined, stats, nil
}
