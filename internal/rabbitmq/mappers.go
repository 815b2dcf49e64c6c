package rabbitmq

import "time"

// Lean response shapes. The management API returns dozens of fields per
// object; the dashboard and the evaluator only consume these.

type OverviewSummary struct {
	RabbitMQVersion string  `json:"rabbitmq_version"`
	ClusterName     string  `json:"cluster_name"`
	Connections     int     `json:"connections"`
	Channels        int     `json:"channels"`
	Queues          int     `json:"queues"`
	Consumers       int     `json:"consumers"`
	Exchanges       int     `json:"exchanges"`
	Messages        int64   `json:"messages"`
	MessagesUnacked int64   `json:"messages_unacknowledged"`
	PublishRate     float64 `json:"publish_rate"`
	DeliverRate     float64 `json:"deliver_rate"`
}

type QueueSummary struct {
	Name            string `json:"name"`
	Vhost           string `json:"vhost"`
	State           string `json:"state"`
	Messages        int64  `json:"messages"`
	MessagesReady   int64  `json:"messages_ready"`
	MessagesUnacked int64  `json:"messages_unacknowledged"`
	Consumers       int    `json:"consumers"`
	Memory          int64  `json:"memory"`
}

type NodeSummary struct {
	Name          string  `json:"name"`
	Running       bool    `json:"running"`
	MemUsed       int64   `json:"mem_used"`
	MemLimit      int64   `json:"mem_limit"`
	MemPercent    float64 `json:"mem_percent"`
	DiskFree      int64   `json:"disk_free"`
	DiskFreeLimit int64   `json:"disk_free_limit"`
	FDUsed        int     `json:"fd_used"`
	FDTotal       int     `json:"fd_total"`
}

type ConnectionSummary struct {
	Name     string `json:"name"`
	User     string `json:"user"`
	Vhost    string `json:"vhost"`
	State    string `json:"state"`
	Channels int    `json:"channels"`
}

// Snapshot is one poll of a server, handed to the rule evaluator.
type Snapshot struct {
	Overview  OverviewSummary `json:"overview"`
	Queues    []QueueSummary  `json:"queues"`
	Nodes     []NodeSummary   `json:"nodes"`
	Timestamp time.Time       `json:"timestamp"`
}

func mapOverview(raw *rawOverview) *OverviewSummary {
	return &OverviewSummary{
		RabbitMQVersion: raw.RabbitMQVersion,
		ClusterName:     raw.ClusterName,
		Connections:     raw.ObjectTotals.Connections,
		Channels:        raw.ObjectTotals.Channels,
		Queues:          raw.ObjectTotals.Queues,
		Consumers:       raw.ObjectTotals.Consumers,
		Exchanges:       raw.ObjectTotals.Exchanges,
		Messages:        raw.QueueTotals.Messages,
		MessagesUnacked: raw.QueueTotals.MessagesUnacknowledged,
		PublishRate:     raw.MessageStats.PublishDetails.Rate,
		DeliverRate:     raw.MessageStats.DeliverGetDetails.Rate,
	}
}

func mapQueues(raw []rawQueue) []QueueSummary {
	queues := make([]QueueSummary, 0, len(raw))
	for _, q := range raw {
		queues = append(queues, QueueSummary{
			Name:            q.Name,
			Vhost:           q.Vhost,
			State:           q.State,
			Messages:        q.Messages,
			MessagesReady:   q.MessagesReady,
			MessagesUnacked: q.MessagesUnacknowledged,
			Consumers:       q.Consumers,
			Memory:          q.Memory,
		})
	}
	return queues
}

func mapNodes(raw []rawNode) []NodeSummary {
	nodes := make([]NodeSummary, 0, len(raw))
	for _, n := range raw {
		memPercent := 0.0
		if n.MemLimit > 0 {
			memPercent = float64(n.MemUsed) / float64(n.MemLimit) * 100.0
		}
		nodes = append(nodes, NodeSummary{
			Name:          n.Name,
			Running:       n.Running,
			MemUsed:       n.MemUsed,
			MemLimit:      n.MemLimit,
			MemPercent:    memPercent,
			DiskFree:      n.DiskFree,
			DiskFreeLimit: n.DiskFreeLimit,
			FDUsed:        n.FDUsed,
			FDTotal:       n.FDTotal,
		})
	}
	return nodes
}

func mapConnections(raw []rawConnection) []ConnectionSummary {
	conns := make([]ConnectionSummary, 0, len(raw))
	for _, c := range raw {
		conns = append(conns, ConnectionSummary{
			Name:     c.Name,
			User:     c.User,
			Vhost:    c.Vhost,
			State:    c.State,
			Channels: c.Channels,
		})
	}
	return conns
}
