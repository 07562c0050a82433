// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	// subscriptions holds job IDs. An unfiltered client receives every
	// job's events; a filtered one only those of its subscriptions.
	subscriptions map[string]bool
	filtered      bool
	mutex         sync.RWMutex
}

// Subscribe restricts the client to events of the given job
func (c *Client) Subscribe(jobID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.subscriptions == nil {
		c.subscriptions = make(map[string]bool)
	}
	c.subscriptions[jobID] = true
	c.filtered = true
}

// Unsubscribe removes a job subscription. Dropping the last one returns the
// client to receiving every job.
func (c *Client) Unsubscribe(jobID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.subscriptions, jobID)
	if len(c.subscriptions) == 0 {
		c.filtered = false
	}
}

// release drops a subscription whose job has finished. The client stays
// filtered.
func (c *Client) release(jobID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.subscriptions, jobID)
}

// Wants reports whether the client should receive events of jobID
func (c *Client) Wants(jobID string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return !c.filtered || c.subscriptions[jobID]
}

func (c *Client) subscriptionCount() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.subscriptions)
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager manages WebSocket connections
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister unregisters a client and closes its send channel. Safe to call
// more than once.
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Broadcast queues message for every client interested in jobID and returns
// the IDs of clients whose queue was full. Sends happen under the read lock
// so a concurrent Unregister cannot close a channel mid-send.
func (cm *ConnectionManager) Broadcast(jobID string, message []byte) []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var dropped []string
	for _, client := range cm.clients {
		if !client.Wants(jobID) {
			continue
		}
		select {
		case client.Send <- message:
		default:
			dropped = append(dropped, client.ID)
		}
	}
	return dropped
}

// ReleaseJob removes jobID from every client's subscriptions
func (cm *ConnectionManager) ReleaseJob(jobID string) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	for _, client := range cm.clients {
		client.release(jobID)
	}
}

// SendTo queues message for a single registered client. It returns false
// when the client is gone or its queue is full.
func (cm *ConnectionManager) SendTo(client *Client, message []byte) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if _, ok := cm.clients[client.ID]; !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}

// CloseAll unregisters every client
func (cm *ConnectionManager) CloseAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.Send)
	}
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{TotalConnections: len(cm.clients)}
	for _, client := range cm.clients {
		stats.Subscriptions += client.subscriptionCount()
	}

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
	Subscriptions    int `json:"subscriptions"`
}
