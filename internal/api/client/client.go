package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/qarote/qarote/internal/models"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient() (*Client, error) {
	baseURL := os.Getenv("QAROTE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	token := os.Getenv("QAROTE_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("QAROTE_API_TOKEN environment variable is not set")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) ListServers() ([]models.Server, error) {
	var servers []models.Server
	if err := c.get("/api/v1/servers", &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func (c *Client) ListAlerts(status, severity string) ([]models.Alert, error) {
	endpoint := "/api/v1/alerts"

	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if severity != "" {
		query.Set("severity", severity)
	}

	var alerts []models.Alert
	if err := c.get(endpoint+"?"+query.Encode(), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (c *Client) AcknowledgeAlert(alertID string) error {
	return c.put(fmt.Sprintf("/api/v1/alerts/%s/acknowledge", alertID), nil, nil)
}

func (c *Client) ResolveAlert(alertID string) error {
	return c.put(fmt.Sprintf("/api/v1/alerts/%s/resolve", alertID), nil, nil)
}

func (c *Client) ListRules(enabled string) ([]models.AlertRule, error) {
	endpoint := "/api/v1/rules"
	if enabled != "" {
		endpoint += "?enabled=" + enabled
	}

	var rules []models.AlertRule
	if err := c.get(endpoint, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) EnableRule(ruleID string) error {
	return c.put(fmt.Sprintf("/api/v1/rules/%s/enable", ruleID), nil, nil)
}

func (c *Client) DisableRule(ruleID string) error {
	return c.put(fmt.Sprintf("/api/v1/rules/%s/disable", ruleID), nil, nil)
}

func (c *Client) ImportRules(rules []models.AlertRule) error {
	return c.post("/api/v1/rules/import", rules, nil)
}

func (c *Client) ExportRules() ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := c.get("/api/v1/rules/export", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) TestChannel(channelID string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.post(fmt.Sprintf("/api/v1/channels/%s/test", channelID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) get(endpoint string, v interface{}) error {
	resp, err := c.doRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) post(endpoint string, data, v interface{}) error {
	return c.send(http.MethodPost, endpoint, data, v)
}

func (c *Client) put(endpoint string, data, v interface{}) error {
	return c.send(http.MethodPut, endpoint, data, v)
}

func (c *Client) send(method, endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		body = bytes.NewReader(jsonData)
	}

	resp, err := c.doRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

func (c *Client) doRequest(method, endpoint string, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %v", err)
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %v", err)
	}
	u.Path = path.Join(u.Path, parsed.Path)
	u.RawQuery = parsed.RawQuery

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return resp, nil
}
