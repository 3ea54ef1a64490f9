package main

import (
	"fmt"
	"strings"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/batch"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("86")
	colorGood   = lipgloss.Color("42")
	colorBad    = lipgloss.Color("203")
	colorDim    = lipgloss.Color("242")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(colorDim).Width(22)
	goodStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGood)
	badStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorBad)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

func row(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

func verdict(secure bool) string {
	if secure {
		return goodStyle.Render("SECURE")
	}
	return badStyle.Render("COMPROMISED")
}

func renderResult(params string, res *bb84.Result, key string) string {
	r := res.Report
	lines := []string{
		titleStyle.Render("BB84 session") + "  " + verdict(r.Secure),
		lipgloss.NewStyle().Foreground(colorDim).Render(params),
		"",
		row("qubits sent", r.Total),
		row("sifted bits", fmt.Sprintf("%d (%.1f%%)", r.Sifted, r.SiftingEfficiency)),
		row("checked bits", r.Checked),
		row("errors found", r.Errors),
		row("QBER", fmt.Sprintf("%.2f%% (threshold %.0f%%)", r.QBER, r.Threshold)),
		row("mutual information", fmt.Sprintf("%.4f", r.MutualInformation)),
		row("secure key rate", fmt.Sprintf("%.2f%%", r.SecureKeyRate)),
		row("efficiency", fmt.Sprintf("%.1f (%s)", r.EfficiencyScore, r.Rating)),
		row("attempts", res.Attempts),
		row("undetected errors", res.UndetectedErrors),
	}
	if e := res.Eavesdropper; e != nil {
		lines = append(lines, row("intercepted", fmt.Sprintf("%d (%.1f%%)", e.TotalIntercepted, e.ObservedRate*100)))
	}
	q := r.Quality
	lines = append(lines,
		row("key balance", fmt.Sprintf("%.3f (%d ones, %d zeros)", q.Balance, q.Ones, q.Zeros)),
		"",
		titleStyle.Render("key"),
		key,
	)
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderBatch(params string, out *batch.Outcome) string {
	c, t := out.Comparison, out.Trend
	lines := []string{
		titleStyle.Render("BB84 batch"),
		lipgloss.NewStyle().Foreground(colorDim).Render(params),
		"",
		row("runs", fmt.Sprintf("%d ok, %d failed", out.Successful, out.Failed)),
		row("secure runs", fmt.Sprintf("%d (%.1f%%)", c.SecureRuns, c.SuccessRate)),
		row("mean sifting", fmt.Sprintf("%.2f%%", c.MeanSiftingEfficiency)),
		row("mean QBER", fmt.Sprintf("%.2f%%", c.MeanQBER)),
		row("mean key rate", fmt.Sprintf("%.2f%%", c.MeanKeyRate)),
		row("QBER range", fmt.Sprintf("%.2f%% .. %.2f%%", t.Min, t.Max)),
		row("QBER std-dev", fmt.Sprintf("%.2f", t.StdDev)),
	}
	stability := badStyle.Render("unstable")
	if t.Stable {
		stability = goodStyle.Render("stable")
	}
	lines = append(lines, row("trend", stability))
	if c.Best >= 0 {
		lines = append(lines,
			row("best run", fmt.Sprintf("#%d (seed %d)", c.Best, out.Runs[c.Best].Seed)),
			row("worst run", fmt.Sprintf("#%d (seed %d)", c.Worst, out.Runs[c.Worst].Seed)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderSweep(points []analysis.Point) string {
	lines := []string{
		titleStyle.Render("Intercept-resend detectability"),
		labelStyle.Render("intercept rate") + labelStyle.Render("expected QBER") + "status",
	}
	for _, p := range points {
		status := goodStyle.Render("secure")
		if p.Detectable {
			status = badStyle.Render("detected")
		}
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%.2f", p.Rate))+
			labelStyle.Render(fmt.Sprintf("%.2f%%", p.ExpectedQBER))+status)
	}
	lines = append(lines, "", fmt.Sprintf("Detectable from an intercept rate of %.2f.", analysis.DetectionThreshold))
	return boxStyle.Render(strings.Join(lines, "\n"))
}
