package rabbitmq

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/qarote/qarote/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overviewJSON = `{
	"rabbitmq_version": "3.12.4",
	"cluster_name": "rabbit@rabbit-1",
	"object_totals": {"connections": 12, "channels": 30, "queues": 7, "consumers": 9, "exchanges": 15},
	"queue_totals": {"messages": 1200, "messages_unacknowledged": 40},
	"message_stats": {
		"publish_details": {"rate": 52.4},
		"deliver_get_details": {"rate": 48.1}
	},
	"listeners": [{"node": "rabbit@rabbit-1", "protocol": "amqp", "port": 5672}]
}`

const queuesJSON = `[
	{"name": "orders", "vhost": "/", "state": "running", "messages": 150,
	 "messages_ready": 145, "messages_unacknowledged": 5, "consumers": 3,
	 "memory": 68720, "idle_since": "", "node": "rabbit@rabbit-1",
	 "backing_queue_status": {"mode": "default"}},
	{"name": "emails", "vhost": "/", "state": "idle", "messages": 0,
	 "messages_ready": 0, "messages_unacknowledged": 0, "consumers": 1, "memory": 13912}
]`

const nodesJSON = `[
	{"name": "rabbit@rabbit-1", "type": "disc", "running": true,
	 "mem_used": 536870912, "mem_limit": 1073741824,
	 "disk_free": 21474836480, "disk_free_limit": 50000000,
	 "fd_used": 40, "fd_total": 1024, "sockets_used": 12,
	 "partitions": [], "uptime": 902144}
]`

func managementStub(t *testing.T) (*httptest.Server, *models.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "guest" || pass != "guest" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"not_authorised","reason":"Login failed"}`)
			return
		}
		switch r.URL.Path {
		case "/api/overview":
			fmt.Fprint(w, overviewJSON)
		case "/api/queues":
			fmt.Fprint(w, queuesJSON)
		case "/api/nodes":
			fmt.Fprint(w, nodesJSON)
		case "/api/connections":
			fmt.Fprint(w, `[{"name":"10.0.0.1:49152","user":"guest","vhost":"/","state":"running","channels":2,"recv_oct":1024,"send_oct":2048}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return srv, &models.Server{
		Name:     "rabbit-1",
		Host:     u.Hostname(),
		Port:     port,
		Username: "guest",
		Password: "guest",
	}
}

func TestOverviewMapsToLeanSummary(t *testing.T) {
	srv, server := managementStub(t)
	defer srv.Close()

	overview, err := NewClient(server).Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "3.12.4", overview.RabbitMQVersion)
	assert.Equal(t, "rabbit@rabbit-1", overview.ClusterName)
	assert.Equal(t, 12, overview.Connections)
	assert.Equal(t, 7, overview.Queues)
	assert.Equal(t, int64(1200), overview.Messages)
	assert.Equal(t, int64(40), overview.MessagesUnacked)
	assert.Equal(t, 52.4, overview.PublishRate)
	assert.Equal(t, 48.1, overview.DeliverRate)
}

func TestQueuesDropUnusedFields(t *testing.T) {
	srv, server := managementStub(t)
	defer srv.Close()

	queues, err := NewClient(server).Queues(context.Background())
	require.NoError(t, err)
	require.Len(t, queues, 2)

	assert.Equal(t, QueueSummary{
		Name:            "orders",
		Vhost:           "/",
		State:           "running",
		Messages:        150,
		MessagesReady:   145,
		MessagesUnacked: 5,
		Consumers:       3,
		Memory:          68720,
	}, queues[0])
}

func TestNodesComputeMemPercent(t *testing.T) {
	srv, server := managementStub(t)
	defer srv.Close()

	nodes, err := NewClient(server).Nodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	assert.Equal(t, "rabbit@rabbit-1", nodes[0].Name)
	assert.True(t, nodes[0].Running)
	assert.InDelta(t, 50.0, nodes[0].MemPercent, 0.01)
	assert.Equal(t, int64(21474836480), nodes[0].DiskFree)
}

func TestSnapshotFetchesAllSections(t *testing.T) {
	srv, server := managementStub(t)
	defer srv.Close()

	snap, err := NewClient(server).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "rabbit@rabbit-1", snap.Overview.ClusterName)
	assert.Len(t, snap.Queues, 2)
	assert.Len(t, snap.Nodes, 1)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestClientSurfacesManagementErrors(t *testing.T) {
	srv, server := managementStub(t)
	defer srv.Close()

	server.Password = "wrong"
	_, err := NewClient(server).Overview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_authorised")
}

func TestMapNodesZeroMemLimit(t *testing.T) {
	nodes := mapNodes([]rawNode{{Name: "rabbit@new", MemUsed: 100, MemLimit: 0}})
	require.Len(t, nodes, 1)
	assert.Equal(t, 0.0, nodes[0].MemPercent)
}
