package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/hud"
	"github.com/DrFREEST/omcm/state"
)

// ControlClient talks to a running serve process over plain loopback HTTP.
type ControlClient struct {
	http    *http.Client
	baseURL string
}

func NewControlClient(addr string) *ControlClient {
	return &ControlClient{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: "http://" + addr,
	}
}

func (c *ControlClient) Fusion(sessionID string) (state.FusionState, error) {
	var st state.FusionState
	path := "/fusion"
	if sessionID != "" {
		path += "?session=" + url.QueryEscape(sessionID)
	}
	err := c.get(path, &st)
	return st, err
}

func (c *ControlClient) Limits() (state.ProviderLimits, error) {
	var limits state.ProviderLimits
	err := c.get("/limits", &limits)
	return limits, err
}

func (c *ControlClient) Fallback() (state.FallbackState, error) {
	var st state.FallbackState
	err := c.get("/fallback", &st)
	return st, err
}

func (c *ControlClient) Calls(limit int) ([]calllog.Entry, error) {
	path := "/calls"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var entries []calllog.Entry
	if err := c.get(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *ControlClient) Stats() (map[string]calllog.ProviderStats, error) {
	var stats map[string]calllog.ProviderStats
	if err := c.get("/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *ControlClient) Metrics() ([]hud.MetricSummary, error) {
	var metrics []hud.MetricSummary
	if err := c.get("/metrics", &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

func (c *ControlClient) Config() (*config.Config, error) {
	var cfg config.Config
	if err := c.get("/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ControlClient) Activate(model, reason string) (state.FallbackState, error) {
	var st state.FallbackState
	err := c.post("/fallback/activate", map[string]string{"model": model, "reason": reason}, &st)
	return st, err
}

func (c *ControlClient) Recover(reason string) (state.FallbackState, error) {
	var st state.FallbackState
	err := c.post("/fallback/recover", map[string]string{"reason": reason}, &st)
	return st, err
}

func (c *ControlClient) get(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *ControlClient) post(path string, body any, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: %s", path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
