// Package corpus assembles, augments and persists tables of labeled questions.
package corpus

import (
	"agriqa/internal/random"
)

// Record is one labeled question.
type Record struct {
	Question  string `json:"question"`
	Intent    string `json:"intent"`
	Persona   string `json:"persona"`
	Produce   string `json:"produce"`
	Condition string `json:"condition"`
}

// Table is an ordered set of records.
type Table []Record

// Dedup keeps the first record for every question.
func (t Table) Dedup() Table {
	seen := make(map[string]struct{}, len(t))
	out := make(Table, 0, len(t))
	for _, r := range t {
		if _, ok := seen[r.Question]; ok {
			continue
		}
		seen[r.Question] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Duplicates counts records whose question already appeared earlier.
func (t Table) Duplicates() int {
	seen := make(map[string]struct{}, len(t))
	n := 0
	for _, r := range t {
		if _, ok := seen[r.Question]; ok {
			n++
			continue
		}
		seen[r.Question] = struct{}{}
	}
	return n
}

// Clone returns a copy backed by a new array.
func (t Table) Clone() Table {
	return append(Table(nil), t...)
}

// Shuffle permutes the table in place.
func (t Table) Shuffle(rng *random.Stream) {
	rng.Shuffle(len(t), func(i, j int) { t[i], t[j] = t[j], t[i] })
}

// SampleDown returns n records drawn without replacement, in draw order.
// A table with at most n records is returned unchanged.
func (t Table) SampleDown(rng *random.Stream, n int) Table {
	if len(t) <= n {
		return t
	}
	out := make(Table, 0, n)
	for _, i := range rng.Sample(len(t), n) {
		out = append(out, t[i])
	}
	return out
}

// CountBy tallies records by a field.
func (t Table) CountBy(field func(Record) string) map[string]int {
	counts := map[string]int{}
	for _, r := range t {
		counts[field(r)]++
	}
	return counts
}

func ByIntent(r Record) string  { return r.Intent }
func ByPersona(r Record) string { return r.Persona }
