package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"EquitySheet/internal/model"
)

// HTTPProvider fetches payloads from a REST data service.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPProvider creates a provider with optional proxy support.
func NewHTTPProvider(baseURL, apiKey, proxyURL string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (h *HTTPProvider) Name() string { return "http" }

func (h *HTTPProvider) Fetch(ctx context.Context, key model.SecurityKey, asOf time.Time) (*Payload, error) {
	q := url.Values{}
	q.Set("ts_code", key.String())
	q.Set("as_of", asOf.Format("20060102"))
	endpoint := fmt.Sprintf("%s/api/v1/report-inputs?%s", h.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch report inputs: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &model.UnresolvableSecurityError{Identifier: key.String()}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch report inputs: status %d, body: %s", resp.StatusCode, string(body))
	}

	var p Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode report inputs: %w", err)
	}
	return &p, nil
}
