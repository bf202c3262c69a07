package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/model"
	"EquitySheet/internal/store"
)

const notAvailable = "—"

// FormatDigest formats the reports of one batch as a ranked table, best
// timeliness first, preserving input order among ties.
func FormatDigest(reports []*model.PublishedReport, asOf time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>EquitySheet 日报</b> | %s\n\n", asOf.Format("2006-01-02")))
	if len(reports) == 0 {
		b.WriteString("本次没有生成任何报告\n")
		return b.String()
	}

	ordered := make([]*model.PublishedReport, len(reports))
	copy(ordered, reports)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ranks.Timeliness < ordered[j].Ranks.Timeliness
	})

	b.WriteString("<pre>代码        时效 安全 技术  PE(TTM) 分位\n")
	for _, r := range ordered {
		b.WriteString(fmt.Sprintf("%-10s  %d    %d    %d   %7s %4s\n",
			r.Meta.Symbol, r.Ranks.Timeliness, r.Ranks.Safety, r.Ranks.Technical,
			num(r.TopMetrics.PETTM, "%.1f"),
			pct(r.SummaryScores.Valuation.PEPercentile)))
	}
	b.WriteString("</pre>\n")
	b.WriteString("排名 1 为最佳，5 为最差\n")
	return b.String()
}

// FormatReport formats one report for a command reply.
func FormatReport(r *model.PublishedReport) string {
	var b strings.Builder
	m := r.Meta
	name := notAvailable
	if m.Name.Valid {
		name = html.EscapeString(m.Name.String)
	}
	b.WriteString(fmt.Sprintf("📄 <b>%s</b> (%s) | %s\n\n", name, m.Symbol, m.AsOf))

	t := r.TopMetrics
	b.WriteString(fmt.Sprintf("最新价: %s | PE(TTM): %s | PB: %s\n",
		num(t.RecentPrice, "%.2f"), num(t.PETTM, "%.1f"), num(t.PB, "%.2f")))
	b.WriteString(fmt.Sprintf("十年PE中位数: %s | 股息率: %s\n",
		num(t.PE10YMedian, "%.1f"), pct(t.DividendYield)))
	b.WriteString(fmt.Sprintf("时效 %d | 安全 %d | 技术 %d | Beta %s\n",
		r.Ranks.Timeliness, r.Ranks.Safety, r.Ranks.Technical, num(r.Ranks.Beta, "%.2f")))

	v := r.SummaryScores.Valuation
	if v.TargetPriceLow.Valid && v.TargetPriceHigh.Valid {
		b.WriteString(fmt.Sprintf("目标价: %.2f ~ %.2f\n", v.TargetPriceLow.Float64, v.TargetPriceHigh.Float64))
	}
	if r.Commentary != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(r.Commentary))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatBatchSummary reports the outcome of a batch run.
func FormatBatchSummary(run *store.BatchRun) string {
	var b strings.Builder
	icon := "✅"
	if len(run.Failures) > 0 {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>批处理完成</b> | %s\n\n", icon, run.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("成功: %d / %d\n", run.Succeeded, run.Total))
	if !run.FinishedAt.IsZero() && !run.StartedAt.IsZero() {
		b.WriteString(fmt.Sprintf("耗时: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)))
	}
	if len(run.Failures) > 0 {
		b.WriteString("\n失败列表:\n")
		for _, f := range run.Failures {
			b.WriteString(fmt.Sprintf("  • %s: %s\n", html.EscapeString(f.Security), html.EscapeString(f.Error)))
		}
	}
	b.WriteString(fmt.Sprintf("\n批次: <code>%s</code>\n", run.ID))
	return b.String()
}

// Split breaks text into chunks of at most limit bytes, cutting on newlines
// where possible.
func Split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			cut := runeBoundary(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// runeBoundary returns the largest index <= limit that does not split a
// UTF-8 sequence.
func runeBoundary(s string, limit int) int {
	i := limit
	for i > 0 && s[i]&0xC0 == 0x80 {
		i--
	}
	if i == 0 {
		return limit
	}
	return i
}

func num(v null.Float, format string) string {
	if !v.Valid {
		return notAvailable
	}
	return fmt.Sprintf(format, v.Float64)
}

func pct(v null.Float) string {
	if !v.Valid {
		return notAvailable
	}
	return fmt.Sprintf("%.0f%%", v.Float64*100)
}
