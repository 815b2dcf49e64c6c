package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/qarote/qarote/internal/models"
)

// Client talks to a RabbitMQ node's management HTTP API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

func NewClient(server *models.Server) *Client {
	return &Client{
		baseURL:  server.ManagementURL(),
		username: server.Username,
		password: server.Password,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Raw management-API payloads. Only the fields the mappers consume are
// declared; the API returns far more.

type rawOverview struct {
	RabbitMQVersion string `json:"rabbitmq_version"`
	ClusterName     string `json:"cluster_name"`
	ObjectTotals    struct {
		Connections int `json:"connections"`
		Channels    int `json:"channels"`
		Queues      int `json:"queues"`
		Consumers   int `json:"consumers"`
		Exchanges   int `json:"exchanges"`
	} `json:"object_totals"`
	QueueTotals struct {
		Messages               int64 `json:"messages"`
		MessagesUnacknowledged int64 `json:"messages_unacknowledged"`
	} `json:"queue_totals"`
	MessageStats struct {
		PublishDetails struct {
			Rate float64 `json:"rate"`
		} `json:"publish_details"`
		DeliverGetDetails struct {
			Rate float64 `json:"rate"`
		} `json:"deliver_get_details"`
	} `json:"message_stats"`
}

type rawQueue struct {
	Name                   string `json:"name"`
	Vhost                  string `json:"vhost"`
	State                  string `json:"state"`
	Messages               int64  `json:"messages"`
	MessagesReady          int64  `json:"messages_ready"`
	MessagesUnacknowledged int64  `json:"messages_unacknowledged"`
	Consumers              int    `json:"consumers"`
	Memory                 int64  `json:"memory"`
	IdleSince              string `json:"idle_since"`
}

type rawNode struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Running       bool   `json:"running"`
	MemUsed       int64  `json:"mem_used"`
	MemLimit      int64  `json:"mem_limit"`
	DiskFree      int64  `json:"disk_free"`
	DiskFreeLimit int64  `json:"disk_free_limit"`
	FDUsed        int    `json:"fd_used"`
	FDTotal       int    `json:"fd_total"`
	SocketsUsed   int    `json:"sockets_used"`
}

type rawConnection struct {
	Name     string `json:"name"`
	User     string `json:"user"`
	Vhost    string `json:"vhost"`
	State    string `json:"state"`
	Channels int    `json:"channels"`
	RecvOct  int64  `json:"recv_oct"`
	SendOct  int64  `json:"send_oct"`
}

func (c *Client) Overview(ctx context.Context) (*OverviewSummary, error) {
	var raw rawOverview
	if err := c.get(ctx, "/api/overview", &raw); err != nil {
		return nil, err
	}
	return mapOverview(&raw), nil
}

func (c *Client) Queues(ctx context.Context) ([]QueueSummary, error) {
	var raw []rawQueue
	if err := c.get(ctx, "/api/queues", &raw); err != nil {
		return nil, err
	}
	return mapQueues(raw), nil
}

func (c *Client) Nodes(ctx context.Context) ([]NodeSummary, error) {
	var raw []rawNode
	if err := c.get(ctx, "/api/nodes", &raw); err != nil {
		return nil, err
	}
	return mapNodes(raw), nil
}

func (c *Client) Connections(ctx context.Context) ([]ConnectionSummary, error) {
	var raw []rawConnection
	if err := c.get(ctx, "/api/connections", &raw); err != nil {
		return nil, err
	}
	return mapConnections(raw), nil
}

// Snapshot fetches everything the evaluator needs in one pass.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	overview, err := c.Overview(ctx)
	if err != nil {
		return nil, err
	}
	queues, err := c.Queues(ctx)
	if err != nil {
		return nil, err
	}
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Overview:  *overview,
		Queues:    queues,
		Nodes:     nodes,
		Timestamp: time.Now(),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v interface{}) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}
	u.Path = endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("management API error: %s (%s)", errResp.Error, errResp.Reason)
		}
		return fmt.Errorf("management API returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
