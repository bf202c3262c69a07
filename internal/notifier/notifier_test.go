package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquitySheet/internal/model"
	"EquitySheet/internal/store"
)

type captured struct {
	mu       sync.Mutex
	messages []map[string]string
}

func (c *captured) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	for i, m := range c.messages {
		out[i] = m["text"]
	}
	return out
}

func telegramServer(t *testing.T, failFirst int) (*TelegramNotifier, *captured) {
	t.Helper()
	c := &captured{}
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		c.mu.Lock()
		calls++
		n := calls
		c.mu.Unlock()
		if n <= failFirst {
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		var m map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		c.mu.Lock()
		c.messages = append(c.messages, m)
		c.mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.APIBase = srv.URL
	return n, c
}

func TestSend(t *testing.T) {
	n, c := telegramServer(t, 0)
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	require.Len(t, c.messages, 1)
	assert.Equal(t, "42", c.messages[0]["chat_id"])
	assert.Equal(t, "HTML", c.messages[0]["parse_mode"])
	assert.Equal(t, "<b>hi</b>", c.messages[0]["text"])
}

func TestSendWithRetry(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		n, c := telegramServer(t, 2)
		require.NoError(t, n.sendWithBackoff(context.Background(), "x", 3, time.Millisecond))
		assert.Equal(t, []string{"x"}, c.texts())
	})
	t.Run("gives up", func(t *testing.T) {
		n, _ := telegramServer(t, 10)
		err := n.sendWithBackoff(context.Background(), "x", 1, time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all 2 retries exhausted")
	})
	t.Run("cancelled", func(t *testing.T) {
		n, _ := telegramServer(t, 10)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := n.sendWithBackoff(ctx, "x", 3, time.Hour)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDispatch(t *testing.T) {
	n, c := telegramServer(t, 0)
	raw := `[
		{"update_id": 7, "message": {"text": " /help ", "chat": {"id": 42}}},
		{"update_id": 8, "message": {"text": "/help", "chat": {"id": 99}}},
		{"update_id": 9}
	]`
	var updates []telegramUpdate
	require.NoError(t, json.Unmarshal([]byte(raw), &updates))

	var got []string
	next := n.dispatch(context.Background(), updates, 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "reply:" + cmd
	})
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/help"}, got)
	assert.Equal(t, []string{"reply:/help"}, c.texts())
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "abc", 10, []string{"abc"}},
		{"on newlines", "aaaa\nbbbb\ncc", 6, []string{"aaaa\n", "bbbb\n", "cc"}},
		{"long line", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"keeps runes whole", "中文字", 4, []string{"中", "文", "字"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, strings.Join(got, ""))
		})
	}
}

func published(symbol string, timeliness int, pe float64) *model.PublishedReport {
	return &model.PublishedReport{
		ReportBundle: &model.ReportBundle{
			Meta:       model.Meta{Symbol: symbol, Name: null.StringFrom("Kweichow <Moutai>"), AsOf: "2024-06-28"},
			Ranks:      model.Ranks{Timeliness: timeliness, Safety: 2, Technical: 3, Beta: null.FloatFrom(0.85)},
			TopMetrics: model.TopMetrics{PETTM: null.FloatFrom(pe), RecentPrice: null.FloatFrom(1500)},
			SummaryScores: model.SummaryScores{Valuation: model.ValuationBand{
				PEPercentile:    null.FloatFrom(0.4),
				TargetPriceLow:  null.FloatFrom(1400),
				TargetPriceHigh: null.FloatFrom(2100),
			}},
		},
		Commentary: "估值 & 趋势",
	}
}

func TestFormatDigest(t *testing.T) {
	asOf := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)
	msg := FormatDigest([]*model.PublishedReport{
		published("000001.SZ", 4, 5.1),
		published("600519.SH", 1, 25.3),
		published("300750.SZ", 4, 18),
	}, asOf)

	assert.Contains(t, msg, "2024-06-28")
	first := strings.Index(msg, "600519.SH")
	second := strings.Index(msg, "000001.SZ")
	third := strings.Index(msg, "300750.SZ")
	assert.True(t, first < second && second < third, "ordered by timeliness, ties stable")
	assert.Contains(t, msg, "25.3")
	assert.Contains(t, msg, "40%")

	assert.Contains(t, FormatDigest(nil, asOf), "没有生成")
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(published("600519.SH", 1, 25.3))
	assert.Contains(t, msg, "Kweichow &lt;Moutai&gt;")
	assert.Contains(t, msg, "目标价: 1400.00 ~ 2100.00")
	assert.Contains(t, msg, "Beta 0.85")
	assert.Contains(t, msg, "PB: —")
	assert.Contains(t, msg, "估值 &amp; 趋势")
}

func TestFormatBatchSummary(t *testing.T) {
	start := time.Date(2024, time.June, 28, 9, 0, 0, 0, time.UTC)
	run := &store.BatchRun{
		ID:         "run-1",
		AsOf:       time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC),
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Total:      3,
		Succeeded:  2,
		Failures:   []store.BatchFailure{{Security: "999999", Error: "unresolvable <code>"}},
	}
	msg := FormatBatchSummary(run)
	assert.Contains(t, msg, "⚠️")
	assert.Contains(t, msg, "成功: 2 / 3")
	assert.Contains(t, msg, "1.5s")
	assert.Contains(t, msg, "999999: unresolvable &lt;code&gt;")
	assert.Contains(t, msg, "<code>run-1</code>")

	run.Failures = nil
	assert.Contains(t, FormatBatchSummary(run), "✅")
}
