package collector

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquitySheet/internal/model"
)

var moutai = model.SecurityKey{Exchange: "SH", Code: "600519"}

func samplePayload() *Payload {
	return &Payload{
		Profile: ProfileDTO{TSCode: "600519.SH", Name: "Kweichow Moutai", Industry: "Liquor", ListDate: "20010827"},
		Prices: []PriceDTO{
			{TradeDate: "20240103", Close: 1700, Volume: 20, TotalShare: 1256},
			{TradeDate: "2024-01-02", Close: 1680, AdjClose: null.FloatFrom(1650)},
			{TradeDate: "20240103", Close: 1710},
			{TradeDate: "20240104", Close: 0},
		},
		Periods: []PeriodDTO{
			{EndDate: "20231231", AnnDate: "20240402", Type: "annual", EPS: null.FloatFrom(59.49)},
			{EndDate: "20230930", AnnDate: "20231021", Type: "quarterly", Cumulative: true, Revenue: null.FloatFrom(1000)},
		},
		Benchmark:      []DatedDTO{{Date: "20240102", Value: 3386}},
		MarketMedianPE: []DatedDTO{{Date: "20240102", Value: 25}},
		ForwardEPSLow:  null.FloatFrom(65),
	}
}

func TestNormalize(t *testing.T) {
	raw, err := Normalize(moutai, samplePayload())
	require.NoError(t, err)

	assert.Equal(t, moutai, raw.Profile.Key)
	assert.Equal(t, time.Date(2001, 8, 27, 0, 0, 0, 0, time.UTC), raw.Profile.ListDate)

	require.Len(t, raw.Prices, 2, "duplicate day collapsed, zero close dropped")
	assert.Equal(t, 1650.0, raw.Prices[0].AdjClose)
	assert.Equal(t, 1680.0, raw.Prices[0].Close)
	assert.Equal(t, 1710.0, raw.Prices[1].Close, "last duplicate wins")
	assert.Equal(t, 1710.0, raw.Prices[1].AdjClose)

	require.Len(t, raw.Periods, 2)
	assert.Equal(t, model.PeriodQuarterly, raw.Periods[0].PeriodType)
	assert.True(t, raw.Periods[0].Cumulative)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), raw.Periods[1].ReportDate)
	assert.Equal(t, moutai, raw.Periods[1].Security)

	assert.Len(t, raw.Benchmark, 1)
	assert.Len(t, raw.MarketMedianPE, 1)
	assert.Equal(t, 65.0, raw.ForwardEPSLow.Float64)
	assert.False(t, raw.ForwardEPSHigh.Valid)
}

func TestNormalize_ProfileMismatch(t *testing.T) {
	p := samplePayload()
	p.Profile.TSCode = "000001.SZ"
	_, err := Normalize(moutai, p)
	assert.True(t, errors.Is(err, model.ErrUnresolvableSecurity))

	_, err = Normalize(moutai, &Payload{})
	assert.True(t, errors.Is(err, model.ErrUnresolvableSecurity))

	_, err = Normalize(moutai, nil)
	assert.True(t, errors.Is(err, model.ErrUnresolvableSecurity))
}

func TestNormalize_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Payload)
	}{
		{"price date", func(p *Payload) { p.Prices[0].TradeDate = "yesterday" }},
		{"period type", func(p *Payload) { p.Periods[0].Type = "semiannual" }},
		{"period end", func(p *Payload) { p.Periods[0].EndDate = "" }},
		{"list date", func(p *Payload) { p.Profile.ListDate = "2001/08/27" }},
		{"benchmark date", func(p *Payload) { p.Benchmark[0].Date = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePayload()
			tt.mutate(p)
			_, err := Normalize(moutai, p)
			assert.Error(t, err)
		})
	}
}

func TestUsable(t *testing.T) {
	assert.True(t, usable(1))
	assert.False(t, usable(0))
	assert.False(t, usable(-1))
	assert.False(t, usable(math.NaN()))
	assert.False(t, usable(math.Inf(1)))
}
