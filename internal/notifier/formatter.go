package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"CycleSentinel/internal/model"
	"CycleSentinel/internal/recorder"
)

// FormatCycleReport formats one analysis into a Telegram message.
func FormatCycleReport(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔄 <b>Cycle report</b> | %s\n", html.EscapeString(a.Symbol)))
	b.WriteString(fmt.Sprintf("Range %s, interval %s", a.Range, a.Interval))
	if a.Series != nil && len(a.Series.Bars) > 0 {
		last := a.Series.Bars[len(a.Series.Bars)-1]
		b.WriteString(fmt.Sprintf(", %d bars\nLast close: %.2f (%s)",
			len(a.Series.Bars), last.Close, last.Time.UTC().Format("2006-01-02")))
	}
	b.WriteString("\n\n")

	if a.Result == nil || len(a.Result.TopCycles) == 0 {
		b.WriteString("No dominant cycle detected.\n")
		return b.String()
	}

	b.WriteString("📈 <b>Dominant cycles:</b>\n")
	for i, c := range a.Result.TopCycles {
		b.WriteString(fmt.Sprintf("  %d. %s, power %.0f%%\n", i+1, formatPeriod(c.PeriodDays), c.Power*100))
	}
	return b.String()
}

// FormatHistory summarises recorded runs for a symbol, newest first.
func FormatHistory(symbol string, records []recorder.AnalysisRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Recent runs</b> | %s\n\n", html.EscapeString(symbol)))
	if len(records) == 0 {
		b.WriteString("No recorded analyses.\n")
		return b.String()
	}
	for _, r := range records {
		dominant := "no dominant cycle"
		if len(r.Cycles) > 0 {
			dominant = formatPeriod(r.Cycles[0].PeriodDays)
		}
		b.WriteString(fmt.Sprintf("%s  %s/%s  %s\n",
			r.AnalyzedAt.Format("2006-01-02 15:04"), r.Range, r.Interval, dominant))
	}
	return b.String()
}

// FormatHelp lists the supported chat commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /cycles SYMBOL [range] [interval]\n" +
		"• /history SYMBOL\n" +
		"• /help\n\n" +
		"Range like 90d, 6m, 5y. Interval 1d, 1wk or 1mo."
}

func formatPeriod(days float64) string {
	return fmt.Sprintf("~%d days", int(math.Round(days)))
}
