// Package narrative renders the one-paragraph commentary of a report.
package narrative

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/model"
)

// Generator produces commentary for an assembled bundle.
type Generator interface {
	Generate(b *model.ReportBundle) string
}

// TemplateGenerator fills a fixed template from the bundle's headline
// figures. Absent figures render as NotAvailable.
type TemplateGenerator struct {
	NotAvailable string
}

// NewTemplateGenerator returns a generator using "暂无" for absent figures.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{NotAvailable: "暂无"}
}

func (g *TemplateGenerator) Generate(b *model.ReportBundle) string {
	var sb strings.Builder
	top := b.TopMetrics
	val := b.SummaryScores.Valuation

	sb.WriteString(fmt.Sprintf("%s (%s) 属于 %s 行业。", g.text(b.Meta.Name), b.Meta.Symbol, g.text(b.Meta.Industry)))
	sb.WriteString(fmt.Sprintf("当前股价 %s，PE(TTM) 为 %s", g.num(top.RecentPrice, 2), g.num(top.PETTM, 1)))
	if val.PEPercentile.Valid {
		sb.WriteString(fmt.Sprintf("，处于历史 PE 的 %.0f%% 分位", val.PEPercentile.Float64*100))
	}
	sb.WriteString("。")

	sb.WriteString(fmt.Sprintf("时效性 %d / 安全性 %d / 技术面 %d，Beta %s。",
		b.Ranks.Timeliness, b.Ranks.Safety, b.Ranks.Technical, g.num(b.Ranks.Beta, 2)))

	if val.TargetPriceLow.Valid {
		sb.WriteString(fmt.Sprintf("按合理 PE 区间 %s–%s 估算，%d 年目标价 %s–%s",
			g.num(val.ReasonablePELow, 1), g.num(val.ReasonablePEHigh, 1), val.HorizonYears,
			g.num(val.TargetPriceLow, 2), g.num(val.TargetPriceHigh, 2)))
		if val.AnnualReturnLow.Valid && val.AnnualReturnHigh.Valid {
			sb.WriteString(fmt.Sprintf("，预期年化回报 %s 至 %s", g.pct(val.AnnualReturnLow), g.pct(val.AnnualReturnHigh)))
		}
		sb.WriteString("。")
	}
	if val.Degenerate {
		sb.WriteString("缺少历史 PE，估值区间按当前 PE 计算。")
	}
	return sb.String()
}

func (g *TemplateGenerator) text(v null.String) string {
	if !v.Valid || v.String == "" {
		return g.NotAvailable
	}
	return v.String
}

func (g *TemplateGenerator) num(v null.Float, decimals int) string {
	if !v.Valid {
		return g.NotAvailable
	}
	return fmt.Sprintf("%.*f", decimals, v.Float64)
}

func (g *TemplateGenerator) pct(v null.Float) string {
	if !v.Valid {
		return g.NotAvailable
	}
	return fmt.Sprintf("%+.1f%%", v.Float64*100)
}
