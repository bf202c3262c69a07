package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"EquitySheet/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooBenchmark fetches daily benchmark index closes from the Yahoo
// Finance chart API, e.g. 000300.SS for the CSI 300.
type YahooBenchmark struct {
	Symbol  string
	BaseURL string
	Client  *http.Client
}

// NewYahooBenchmark creates a benchmark source with optional proxy support.
func NewYahooBenchmark(symbol, proxyURL string) *YahooBenchmark {
	return &YahooBenchmark{
		Symbol:  symbol,
		BaseURL: yahooChartURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (y *YahooBenchmark) Name() string { return "yahoo:" + y.Symbol }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooBenchmark) FetchBenchmark(ctx context.Context, from, to time.Time) ([]model.BenchmarkPoint, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(from.Unix()))
	q.Set("period2", fmt.Sprint(to.Unix()))
	u := fmt.Sprintf("%s/%s?%s", y.BaseURL, url.PathEscape(y.Symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.BenchmarkPoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || !usable(*closes[i]) {
			continue // holidays come back as null
		}
		t := time.Unix(ts, 0).UTC()
		points = append(points, model.BenchmarkPoint{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Close: *closes[i],
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// ToDated converts benchmark points back to the wire shape so they can be
// merged into a payload before normalisation.
func ToDated(points []model.BenchmarkPoint) []DatedDTO {
	out := make([]DatedDTO, len(points))
	for i, p := range points {
		out[i] = DatedDTO{Date: p.Date.Format("2006-01-02"), Value: p.Close}
	}
	return out
}
