package dev

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/saiuns/create-autofe-app/internal/logging"
)

// ContentChanged is the single live-reload message token. It is opaque to
// the server and distinct from any granular hot-update message; browser
// clients perform a full page reload on receipt.
const ContentChanged = "content-changed"

// internalPrefix namespaces the session's own endpoints away from any
// project route or proxy rule.
const internalPrefix = "/__autofe/"

// ReloadPath is the WebSocket endpoint the injected client connects to.
const ReloadPath = internalPrefix + "reload"

// reloadClient pairs a connection with its write lock. gorilla/websocket
// allows at most one concurrent writer per connection, and broadcasts
// arrive from several goroutines (build loop, bridge watchers).
type reloadClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *reloadClient) send(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// ReloadServer manages the live-reload WebSocket clients. Delivery is
// at-most-once and best-effort: clients not connected at broadcast time
// receive nothing.
type ReloadServer struct {
	clients  map[string]*reloadClient
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	metrics  *Metrics
}

// NewReloadServer creates a reload server. metrics may be nil.
func NewReloadServer(metrics *Metrics) *ReloadServer {
	return &ReloadServer{
		clients: make(map[string]*reloadClient),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // development only
			},
		},
	}
}

// HandleWebSocket upgrades the connection and tracks the client until it
// disconnects.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.clients[id] = &reloadClient{conn: conn}
	r.mu.Unlock()
	r.trackClients()

	logging.Debug().Str("client", id).Msg("reload client connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
	r.trackClients()
	conn.Close()

	logging.Debug().Str("client", id).Msg("reload client disconnected")
}

// BroadcastContentChanged sends the content-changed token to every
// currently connected client. Broadcasting is idempotent: a client already
// reloading simply reloads once. Safe to call from any goroutine; the
// per-client lock serializes overlapping broadcasts.
func (r *ReloadServer) BroadcastContentChanged() {
	r.mu.RLock()
	clients := make(map[string]*reloadClient, len(r.clients))
	for id, client := range r.clients {
		clients[id] = client
	}
	r.mu.RUnlock()

	for id, client := range clients {
		if err := client.send(websocket.TextMessage, []byte(ContentChanged)); err != nil {
			r.mu.Lock()
			delete(r.clients, id)
			r.mu.Unlock()
			client.conn.Close()
		}
	}
	r.trackClients()

	if r.metrics != nil {
		r.metrics.BroadcastsTotal.Inc()
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	for id, client := range r.clients {
		client.conn.Close()
		delete(r.clients, id)
	}
	r.mu.Unlock()
	r.trackClients()
}

func (r *ReloadServer) trackClients() {
	if r.metrics != nil {
		r.metrics.ClientsConnected.Set(float64(r.ClientCount()))
	}
}

// HotClientScript is injected into HTML responses when hot-update client
// injection is enabled. The client performs a full page reload on the
// content-changed token.
const HotClientScript = `
<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/__autofe/reload');

        ws.onopen = function() {
            console.log('[autofe] live reload connected');
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            if (e.data === 'content-changed') {
                console.log('[autofe] content changed, reloading...');
                location.reload();
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`
