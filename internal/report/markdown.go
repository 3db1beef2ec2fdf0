package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"
)

// WriteMarkdown renders r as a Markdown document.
func WriteMarkdown(w io.Writer, r *Report, generated time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Chess960 start position report")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Generated: %s\n\n", generated.Format(time.RFC3339))

	fmt.Fprintln(bw, "## Coverage")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "- **Evaluated:** %d\n", r.Evaluated)
	fmt.Fprintf(bw, "- **Sharpness scored:** %d\n", r.Scored)
	fmt.Fprintf(bw, "- **Forced mates:** %d\n", r.Mates)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Distribution")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "| Metric | N | Mean | Median | Std Dev | Min | P25 | P75 | Max |")
	fmt.Fprintln(bw, "|--------|---|------|--------|---------|-----|-----|-----|-----|")
	writeSummary(bw, "Eval (pawns)", r.Evals)
	writeSummary(bw, "Depth", r.Depths)
	writeSummary(bw, "Sharpness", r.Sharpness)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Correlation of |eval| and sharpness: %s\n\n", formatFloat(r.Correlation))

	writeRanking(bw, "Most balanced", r.Balanced)
	writeRanking(bw, "Best for white", r.White)
	writeRanking(bw, "Sharpest", r.Sharpest)

	return bw.Flush()
}

func writeSummary(w io.Writer, name string, s Summary) {
	if s.N == 0 {
		fmt.Fprintf(w, "| %s | 0 | - | - | - | - | - | - | - |\n", name)
		return
	}
	fmt.Fprintf(w, "| %s | %d | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
		name, s.N, s.Mean, s.Median, s.StdDev, s.Min, s.P25, s.P75, s.Max)
}

func writeRanking(w io.Writer, title string, rows []Row) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "## %s\n\n", title)
	fmt.Fprintln(w, "| # | Setup | Score | Depth | Sharpness |")
	fmt.Fprintln(w, "|---|-------|-------|-------|-----------|")
	for _, rw := range rows {
		score := rw.Score
		if score == "" {
			score = "-"
		}
		fmt.Fprintf(w, "| %d | %s | %s | %d | %s |\n",
			rw.ID, rw.BackRank, score, rw.Depth, formatFloat(rw.Sharpness))
	}
	fmt.Fprintln(w)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f)
}
