package notifier

import (
	"fmt"
	"html"
	"strings"

	"GapSentinel/internal/model"
)

// FormatStatus renders one symbol the way the dashboard tiles do:
// STATUS @ avg (Level n).
func FormatStatus(res *model.SimulationResult) string {
	if !res.HasSignal() {
		return fmt.Sprintf("%s: no signal", res.Symbol)
	}
	p := res.Position
	return fmt.Sprintf("%s: %s @ %.2f (Level %d)", res.Symbol, strings.ToUpper(string(p.Status)), p.AvgPrice, p.Level)
}

// FormatReport formats a replay report into a Telegram HTML message.
func FormatReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>FVG replay</b> | %s | %s\n\n",
		r.FinishedAt.UTC().Format("2006-01-02 15:04 UTC"), html.EscapeString(r.Timeframe)))

	for i := range r.Results {
		b.WriteString(html.EscapeString(FormatStatus(&r.Results[i])))
		b.WriteString("\n")
	}
	for _, f := range r.Failures {
		b.WriteString(fmt.Sprintf("%s: ⚠️ %s\n", html.EscapeString(f.Symbol), html.EscapeString(f.Error)))
	}

	if len(r.Trades) == 0 {
		b.WriteString("\nNo pair met the entry condition.")
		return b.String()
	}

	b.WriteString("\n📈 <b>Trades:</b>\n")
	for i, t := range r.Trades {
		cum := t.Profit
		if i < len(r.Cumulative) {
			cum = r.Cumulative[i].Cumulative
		}
		b.WriteString(fmt.Sprintf("  %s %s avg %.4f → %.4f ×%g = %+.4f (Σ %+.4f)\n",
			html.EscapeString(t.Symbol), t.ExitTime.UTC().Format("01-02 15:04"),
			t.AvgEntry, t.ExitPrice, t.Quantity, t.Profit, cum))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total profit: %+.4f", r.TotalProfit))
	return b.String()
}

// FormatSymbols lists the symbols of the last replay.
func FormatSymbols(r *model.Report) string {
	if len(r.Symbols) == 0 {
		return "No symbols selected."
	}
	return fmt.Sprintf("Watching %d pairs (%s):\n%s", len(r.Symbols), html.EscapeString(r.Source),
		html.EscapeString(strings.Join(r.Symbols, ", ")))
}
