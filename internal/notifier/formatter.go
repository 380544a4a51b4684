package notifier

import (
	"fmt"
	"html"
	"strings"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/model"
	"HalalScreener/internal/screening"
	"HalalScreener/internal/standard"
)

// FormatReport renders a batch as an HTML chat message.
func FormatReport(r *batch.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🌙 <b>Halal Screening Report</b> | %s\n", r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s\n\n", html.EscapeString(r.Methodology)))

	var current model.Overall
	for i := range r.Results {
		res := &r.Results[i]
		if res.Overall != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = res.Overall
			b.WriteString(fmt.Sprintf("<b>%s</b>\n", res.Overall.Label()))
		}
		b.WriteString(resultLine(res))
	}

	s := r.Summary
	b.WriteString("\n📊 <b>Summary</b>\n")
	b.WriteString(fmt.Sprintf("✅ %d | 🟡 %d | ❌ %d | ⚠️ %d\n", s.Compliant, s.Questionable, s.NonCompliant, s.Errors))
	b.WriteString(fmt.Sprintf("Purification: mean %.3f%% · median %.3f%%\n", s.MeanPurification, s.MedianPurification))
	if s.MeanDebtRatio != nil {
		b.WriteString(fmt.Sprintf("Mean debt/market cap: %.2f%%\n", *s.MeanDebtRatio))
	}
	if len(r.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\n⏹ Cancelled, %d skipped: %s\n", len(r.Skipped), strings.Join(r.Skipped, " ")))
	}
	return b.String()
}

func resultLine(r *model.ScreeningResult) string {
	name := html.EscapeString(r.Name)
	switch r.Overall {
	case model.OverallError:
		return fmt.Sprintf("  <b>%s</b> %s\n", r.Ticker, html.EscapeString(r.Error))
	case model.OverallCompliant:
		return fmt.Sprintf("  <b>%s</b> %s | Debt %s | Purify %.3f%%\n",
			r.Ticker, name, pct(r.Financial.Ratio(screening.RatioDebt)), r.Purification.Pct)
	case model.OverallQuestionable:
		return fmt.Sprintf("  <b>%s</b> %s | %s\n", r.Ticker, name, html.EscapeString(r.Business.Reason))
	default:
		reason := r.Business.Reason
		if r.Business.Verdict != model.VerdictFail {
			reason = r.Financial.Reason
		}
		return fmt.Sprintf("  <b>%s</b> %s | %s\n", r.Ticker, name, html.EscapeString(reason))
	}
}

// FormatResult renders a single screening result in detail.
func FormatResult(r *model.ScreeningResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", r.Overall.Label(), r.Ticker, html.EscapeString(r.Name)))
	if r.Overall == model.OverallError {
		b.WriteString(html.EscapeString(r.Error))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s · %s · %s\n", html.EscapeString(r.Sector), html.EscapeString(r.Country), r.MarketCap))
	b.WriteString(fmt.Sprintf("\n🏢 <b>Business:</b> %s\n   %s\n", r.Business.Verdict.Label(), html.EscapeString(r.Business.Reason)))
	b.WriteString(fmt.Sprintf("📑 <b>Financial:</b> %s\n", r.Financial.Verdict.Label()))
	for _, ratio := range r.Financial.Ratios {
		mark := "✓"
		if ratio.Violated {
			mark = "✗"
		}
		b.WriteString(fmt.Sprintf("   %s %s: %s (limit %.0f%%)\n", mark, ratio.Label, pct(ratio.Value), ratio.Limit))
	}
	for _, w := range r.Financial.Warnings {
		b.WriteString(fmt.Sprintf("   ⚠️ %s\n", html.EscapeString(w)))
	}
	b.WriteString(fmt.Sprintf("\n💧 %s\n", html.EscapeString(r.Purification.Note)))
	b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(r.Methodology)))
	return b.String()
}

// FormatStandard renders the active standard and its thresholds.
func FormatStandard(cfg standard.Config) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚖️ <b>%s</b>\n", html.EscapeString(cfg.Methodology())))
	for _, key := range cfg.Battery.Keys() {
		v, _ := cfg.Limit(key)
		b.WriteString(fmt.Sprintf("  %s: %.0f%%\n", key, v*100))
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🌙 <b>Halal Screener</b>\n\n")
	b.WriteString("/screen T1 T2 ... - screen tickers\n")
	b.WriteString("/watchlist - screen the configured watchlist\n")
	b.WriteString("/preset NAME - screen a named preset\n")
	b.WriteString("/standard - show the active standard\n")
	b.WriteString(fmt.Sprintf("/standard NAME [legacy] - switch standard (%s)\n", strings.Join(standardNames(), ", ")))
	b.WriteString("/help - this message\n")
	return b.String()
}

func standardNames() []string {
	names := make([]string, 0, len(standard.Names))
	for _, n := range standard.Names {
		if n != standard.Custom {
			names = append(names, string(n))
		}
	}
	return names
}

func pct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v)
}
