package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kilianp07/lineloss/core/batch"
)

const rule = "------------------------------------------------------------"

var medalIcons = map[string]string{"gold": "🥇", "silver": "🥈", "bronze": "🥉"}

// errWriter remembers the first write error so report builders can print
// freely and check once.
type errWriter struct {
	p   *message.Printer
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *errWriter {
	return &errWriter{p: message.NewPrinter(language.English), w: w}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = e.p.Fprintf(e.w, format, args...)
}

// WriteLines prints the per-line results followed by the lines that failed.
func WriteLines(w io.Writer, snap batch.Snapshot) error {
	ew := newWriter(w)
	ew.printf("LINE-BY-LINE RESULTS\n%s\n", rule)
	for _, l := range snap.Lines {
		r := l.Result
		ew.printf("%s - %s:\n", r.LineID, r.AreaName)
		ew.printf("  Current: %.2f A | Loss: %.2f kW | Efficiency: %.2f%%\n", r.CurrentAmps, r.TotalLossesKW, r.Efficiency)
	}
	for _, f := range snap.Failures {
		ew.printf("%s: FAILED: %s\n", f.LineID, f.Message)
	}
	return ew.err
}

// WriteSummary prints the system totals with the worst and best lines.
func WriteSummary(w io.Writer, snap batch.Snapshot) error {
	ew := newWriter(w)
	s := snap.Summary
	ew.printf("SYSTEM SUMMARY (%.0f kV)\n%s\n", snap.VoltageKV, rule)
	ew.printf("Total Load: %.2f kW\n", s.TotalLoadKW)
	ew.printf("Total System Losses: %.2f kW\n", s.TotalLossKW)
	ew.printf("Overall Loss Percentage: %.2f%%\n", s.OverallLossPct)
	ew.printf("Overall Efficiency: %.2f%%\n", s.OverallEfficiency)
	if worst, ok := snap.Worst(); ok {
		ew.printf("Worst Performing Line: %s (%.2f%% loss)\n", worst.Record.LineID, worst.Result.LossPercentage)
	}
	if best, ok := snap.Best(); ok {
		ew.printf("Best Performing Line: %s (%.2f%% efficiency)\n", best.Record.LineID, best.Result.Efficiency)
	}
	if s.FailedCount > 0 {
		ew.printf("Lines not computed: %d\n", s.FailedCount)
	}
	return ew.err
}

// WriteAnalytics prints the analytics report.
func WriteAnalytics(w io.Writer, a Analytics) error {
	ew := newWriter(w)
	s := a.Summary
	ew.printf("POWER SYSTEM ANALYTICS\n%s\n", rule)
	ew.printf("System has %d transmission lines\n\n", s.LineCount)

	ew.printf("1. BASIC STATISTICS\n%s\n", rule)
	ew.printf("Total Load: %.0f kW\n", s.TotalLoadKW)
	ew.printf("Total Losses: %.1f kW\n", s.TotalLossKW)
	ew.printf("Average Efficiency: %.1f%%\n", s.AvgEfficiency)
	ew.printf("Average Loss %%: %.2f%%\n\n", s.AvgLossPct)

	ew.printf("2. LINE PERFORMANCE RANKING\n%s\n", rule)
	for _, r := range a.Ranking {
		prefix := fmt.Sprintf("%d.", r.Position)
		if icon, ok := medalIcons[r.Medal]; ok {
			prefix = icon
		}
		ew.printf("%s %s - %s: %.1f%% efficiency\n", prefix, r.LineID, r.AreaName, r.Efficiency)
	}
	ew.printf("\n3. PROBLEM IDENTIFICATION\n%s\n", rule)
	if len(a.HighLoss) > 0 {
		ew.printf("High Loss Lines (>%g%%):\n", a.Thresholds.HighLossPct)
		for _, p := range a.HighLoss {
			ew.printf("   %s: %.2f%% loss\n", p.LineID, p.Value)
		}
	}
	if len(a.HighVoltageDrop) > 0 {
		ew.printf("High Voltage Drop (>%gV):\n", a.Thresholds.HighVoltageDropV)
		for _, p := range a.HighVoltageDrop {
			ew.printf("   %s: %.1f V drop\n", p.LineID, p.Value)
		}
	}
	if len(a.HighLoss) == 0 && len(a.HighVoltageDrop) == 0 {
		ew.printf("No line exceeds the thresholds\n")
	}
	for _, f := range a.Failures {
		ew.printf("   %s: not computed: %s\n", f.LineID, f.Message)
	}

	ew.printf("\n4. RECOMMENDATIONS\n%s\n", rule)
	if p := a.Priority; p != nil {
		ew.printf("Priority Action: %s (%s)\n", p.LineID, p.AreaName)
		ew.printf("   Current loss: %.2f%%\n", p.LossPct)
		ew.printf("   Suggested: Check %s conductor condition\n", p.ConductorType)
	}
	c := a.Cost
	ew.printf("\nDaily Cost of Losses: $%s\n", money(ew.p, c.Daily.InexactFloat64()))
	ew.printf("Annual Cost of Losses: $%s\n", money(ew.p, c.Annual.InexactFloat64()))
	ew.printf("Potential Annual Savings (%g%% improvement): $%s\n", c.ImprovementPct, money(ew.p, c.PotentialSavings.InexactFloat64()))
	return ew.err
}

// WriteSystemReport prints the dashboard summary report.
func WriteSystemReport(w io.Writer, snap batch.Snapshot, source string, now time.Time) error {
	ew := newWriter(w)
	s := snap.Summary
	ew.printf("POWER SYSTEM LOSS REPORT\n%s\n\n", strings.Repeat("=", 24))
	ew.printf("System Configuration:\n")
	ew.printf("- Transmission Voltage: %gkV\n", snap.VoltageKV)
	ew.printf("- Number of Lines: %d\n", s.LineCount)
	ew.printf("- Data Source: %s\n\n", source)
	ew.printf("Summary Statistics:\n")
	ew.printf("- Total Load: %.0f kW\n", s.TotalLoadKW)
	ew.printf("- Total Losses: %.1f kW\n", s.TotalLossKW)
	ew.printf("- Overall Efficiency: %.2f%%\n", s.OverallEfficiency)
	ew.printf("- Average Loss Percentage: %.2f%%\n\n", s.AvgLossPct)
	if l, ok := snap.HighestTotalLoss(); ok {
		ew.printf("Highest Loss Line: %s\n", l.Record.LineID)
	}
	if l, ok := snap.Best(); ok {
		ew.printf("Most Efficient Line: %s\n", l.Record.LineID)
	}
	ew.printf("\nGenerated on: %s\n", now.Format("2006-01-02 15:04:05"))
	return ew.err
}

func money(p *message.Printer, v float64) string {
	return p.Sprintf("%.2f", v)
}
