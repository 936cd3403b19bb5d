package corpus

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"agriqa/internal/lexicon"
	"agriqa/internal/nlp"
	"agriqa/internal/random"
	"agriqa/internal/synth"
	"agriqa/internal/transform"
)

// DefaultMaxAttempts bounds the backfill rounds of one Generate call.
const DefaultMaxAttempts = 10

// minBackfill is the smallest batch a backfill round generates. Small
// shortfalls would otherwise round their in-scope share down to zero and
// draw only from the out-of-scope pool.
const minBackfill = 100

// minYield caps how far a backfill round scales past its shortfall.
const minYield = 0.05

// ErrExhausted is returned when backfill cannot reach the requested size.
var ErrExhausted = errors.New("corpus: unique questions exhausted")

// Stats are the pre-dedup draw counts of a Generate call.
type Stats struct {
	Requested         int            `json:"requested"`
	InScope           int            `json:"in_scope"`
	OutOfScope        int            `json:"out_of_scope"`
	PersonaCounts     map[string]int `json:"persona_counts"`
	IntentCounts      map[string]int `json:"intent_counts"`
	DuplicatesDropped int            `json:"duplicates_dropped"`
	Attempts          int            `json:"attempts"`
}

func newStats(requested int) Stats {
	return Stats{Requested: requested, PersonaCounts: map[string]int{}, IntentCounts: map[string]int{}}
}

// Result is a generated table with its stats.
type Result struct {
	Table Table
	Stats Stats
}

// Assembler builds tables from the lexicon. It owns the random stream shared
// by the synthesizer and the augmentation transforms.
type Assembler struct {
	lex       *lexicon.Lexicon
	rng       *random.Stream
	synth     *synth.Synthesizer
	augmenter *transform.Augmenter
	log       zerolog.Logger

	MaxAttempts int
}

func NewAssembler(lex *lexicon.Lexicon, thesaurus *nlp.Thesaurus, log zerolog.Logger) *Assembler {
	rng := random.New(0)
	return &Assembler{
		lex:         lex,
		rng:         rng,
		synth:       synth.New(lex, rng),
		augmenter:   transform.NewAugmenter(rng, transform.LexiconTagger(lex), thesaurus),
		log:         log,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Stream returns the shared random stream.
func (a *Assembler) Stream() *random.Stream {
	return a.rng
}

// Synthesizer returns the synthesizer bound to the shared stream.
func (a *Assembler) Synthesizer() *synth.Synthesizer {
	return a.synth
}

// Generate produces up to size unique records. The stream is reseeded with
// seed; backfill round k reseeds with seed+k and generates the shortfall
// divided by the unique yield of the previous round, so rounds grow with the
// duplicate rate. A table that needed backfill is shuffled and capped at size.
// If the shortfall survives MaxAttempts rounds the partial result is returned
// with ErrExhausted.
func (a *Assembler) Generate(size int, seed int64) (Result, error) {
	stats := newStats(size)
	if size <= 0 {
		return Result{Stats: stats}, nil
	}

	table, err := a.batch(size, seed, &stats)
	if err != nil {
		return Result{}, err
	}

	// yield is the share of the last batch that survived dedup against the
	// table. Each round asks for the shortfall scaled by it.
	yield := float64(len(table)) / float64(size)
	backfilled := false
	for len(table) < size {
		if stats.Attempts >= a.MaxAttempts {
			a.log.Warn().Int("requested", size).Int("achieved", len(table)).Int("attempts", stats.Attempts).Msg("backfill exhausted")
			return Result{Table: table, Stats: stats}, fmt.Errorf("%w: requested %d, achieved %d after %d attempts",
				ErrExhausted, size, len(table), stats.Attempts)
		}
		stats.Attempts++
		shortfall := size - len(table)
		need := max(minBackfill, int(math.Ceil(float64(shortfall)/max(yield, minYield))))
		a.log.Debug().Int("attempt", stats.Attempts).Int("shortfall", shortfall).Int("batch", need).Float64("yield", yield).Msg("backfilling duplicates")

		extra, err := a.batch(need, seed+int64(stats.Attempts), &stats)
		if err != nil {
			return Result{}, err
		}
		before := len(table)
		merged := append(table, extra...)
		table = merged.Dedup()
		stats.DuplicatesDropped += len(merged) - len(table)
		yield = float64(len(table)-before) / float64(need)
		backfilled = true
	}

	if backfilled {
		trim := random.New(seed)
		table.Shuffle(trim)
		table = table.SampleDown(trim, size)
	}
	return Result{Table: table, Stats: stats}, nil
}

// batch generates size records from a freshly seeded stream, shuffles them
// and drops duplicates.
func (a *Assembler) batch(size int, seed int64, stats *Stats) (Table, error) {
	a.rng.Seed(seed)

	inScope := int(math.Floor(float64(size)*(1-a.lex.Targets.OutOfScopeFraction) + 1e-9))
	outOfScope := size - inScope

	personas := a.lex.Targets.Personas
	intents := a.lex.Targets.Intents
	personaWeights, intentWeights := personas.Weights(), intents.Weights()

	table := make(Table, 0, size)
	for i := 0; i < inScope; i++ {
		pi := a.rng.Weighted(personaWeights)
		ii := a.rng.Weighted(intentWeights)
		if pi < 0 || ii < 0 {
			return nil, fmt.Errorf("corpus: target distributions have no positive weight")
		}
		persona, intent := personas[pi].Key, intents[ii].Key
		question, meta, err := a.synth.Synthesize(persona, intent, "", "")
		if err != nil {
			return nil, fmt.Errorf("synthesize %s/%s: %w", persona, intent, err)
		}
		stats.PersonaCounts[persona]++
		stats.IntentCounts[intent]++
		table = append(table, Record{
			Question:  question,
			Intent:    intent,
			Persona:   persona,
			Produce:   meta.Produce,
			Condition: meta.Condition,
		})
	}
	stats.InScope += inScope

	keys := personas.Keys()
	for i := 0; i < outOfScope; i++ {
		persona := random.Pick(a.rng, keys)
		question, _, err := a.synth.OutOfScope(persona)
		if err != nil {
			return nil, fmt.Errorf("out-of-scope %s: %w", persona, err)
		}
		table = append(table, Record{Question: question, Intent: lexicon.OutOfScope, Persona: persona})
	}
	stats.OutOfScope += outOfScope

	table.Shuffle(random.New(seed))
	deduped := table.Dedup()
	stats.DuplicatesDropped += len(table) - len(deduped)
	return deduped, nil
}
