package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agriqa/internal/corpus"
	"agriqa/internal/pipeline"
	"agriqa/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func renderSummary(w io.Writer, sum pipeline.Summary) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✓ Generated %d unique questions in %.1fs", sum.Size, sum.Duration.Seconds())))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Output:     %s\n", sum.OutputCSV)
	if sum.ReportPath != "" {
		fmt.Fprintf(w, "  Report:     %s\n", sum.ReportPath)
	}
	if sum.Stored {
		fmt.Fprintf(w, "  Run ID:     %s\n", dimStyle.Render(sum.RunID))
	}
	fmt.Fprintf(w, "  Augmented:  %d added from %d sampled\n", sum.Augment.Added, sum.Augment.Sampled)
	if sum.Paraphrase.Provider != "" {
		fmt.Fprintf(w, "  Paraphrase: %d added, %d failed (%s)\n", sum.Paraphrase.Added, sum.Paraphrase.Failed, sum.Paraphrase.Provider)
	}
	if sum.TopUpAttempts > 0 {
		fmt.Fprintf(w, "  Top-up:     %d attempts\n", sum.TopUpAttempts)
	}
	if sum.Shortfall > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  Shortfall:  %d below target", sum.Shortfall)))
	}
	fmt.Fprintln(w)
	renderCounts(w, "Intent distribution", sum.Quality.Intents)
	renderCounts(w, "Persona distribution", sum.Quality.Personas)
	fmt.Fprintln(w, headerStyle.Render("Final dataset diagnostics"))
	fmt.Fprintf(w, "  Total samples:         %d\n", sum.Quality.Size)
	fmt.Fprintf(w, "  Unique intents:        %d\n", sum.Quality.UniqueIntents)
	fmt.Fprintf(w, "  Unique personas:       %d\n", sum.Quality.UniquePersonas)
	fmt.Fprintf(w, "  Unique produce items:  %d\n", sum.Quality.UniqueProduce)
}

func renderCounts(w io.Writer, title string, counts []corpus.Count) {
	fmt.Fprintln(w, headerStyle.Render(title))
	for _, c := range counts {
		fmt.Fprintf(w, "  %-32s %6d (%5.2f%%)\n", c.Key, c.Count, c.Share*100)
	}
	fmt.Fprintln(w)
}

func renderVerify(w io.Writer, path string, table corpus.Table, head int) {
	fmt.Fprintln(w, titleStyle.Render(path))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(strings.Join(corpus.Columns, " | ")))
	for i, r := range table {
		if i >= head {
			break
		}
		fmt.Fprintf(w, "%d  %s | %s | %s | %s | %s\n", i, r.Question, r.Intent, r.Persona, r.Produce, r.Condition)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%d entries, %d columns\n", len(table), len(corpus.Columns))
	fields := []func(corpus.Record) string{
		func(r corpus.Record) string { return r.Question },
		corpus.ByIntent,
		corpus.ByPersona,
		func(r corpus.Record) string { return r.Produce },
		func(r corpus.Record) string { return r.Condition },
	}
	for i, name := range corpus.Columns {
		nonEmpty := 0
		for _, r := range table {
			if fields[i](r) != "" {
				nonEmpty++
			}
		}
		fmt.Fprintf(w, "  %-10s %6d non-empty  %6d unique\n", name, nonEmpty, len(table.CountBy(fields[i])))
	}
}

func renderQuality(w io.Writer, rep corpus.QualityReport) {
	fmt.Fprintln(w, titleStyle.Render("Dataset quality report"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total questions: %d\n", rep.Size)
	fmt.Fprintf(w, "Duplicate questions: %d (%.2f%%)\n\n", rep.Duplicates, rep.DuplicateRate*100)

	renderCounts(w, "Intent distribution", rep.Intents)
	renderCounts(w, "Persona distribution", rep.Personas)
	renderCounts(w, "Top 10 produce items", rep.TopProduce)
	renderCounts(w, "Top 10 conditions", rep.TopConditions)

	fmt.Fprintln(w, headerStyle.Render("Question length statistics"))
	fmt.Fprintf(w, "  Characters: avg %.1f, min %d, max %d\n", rep.Chars.Mean, rep.Chars.Min, rep.Chars.Max)
	fmt.Fprintf(w, "  Words:      avg %.1f, min %d, max %d\n\n", rep.Words.Mean, rep.Words.Min, rep.Words.Max)

	fmt.Fprintln(w, headerStyle.Render("Average length by persona"))
	for _, p := range rep.PersonaLengths {
		fmt.Fprintf(w, "  %-24s %6.1f chars %5.1f words\n", p.Persona, p.MeanChars, p.MeanWords)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Very short questions (< %d words): %d\n", corpus.ShortQuestionWords, rep.ShortCount)
	for _, q := range rep.ShortSamples {
		fmt.Fprintf(w, "  - %s\n", q)
	}
	fmt.Fprintf(w, "Very long questions (> %d words): %d\n", corpus.LongQuestionWords, rep.LongCount)
	for _, q := range rep.LongSamples {
		fmt.Fprintf(w, "  - %s\n", q)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("Most common words"))
	for _, c := range rep.TopWords {
		fmt.Fprintf(w, "  %-20s %d\n", c.Key, c.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("Sample questions"))
	last := ""
	for _, ex := range rep.Examples {
		if ex.Intent != last {
			fmt.Fprintf(w, "\n%s\n", strings.ToUpper(ex.Intent))
			last = ex.Intent
		}
		fmt.Fprintf(w, "  [%s] %s\n", ex.Persona, ex.Question)
	}
}

func renderRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No stored runs."))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d stored runs", len(runs))))
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  seed=%d  size=%d/%d\n",
			r.ID, dimStyle.Render(r.CreatedAt.Format("2006-01-02 15:04:05")), r.Seed, r.Size, r.TargetSize)
	}
}
