package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rag-chat-be/internal/apperr"
	"rag-chat-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	// Outbound buffer per connection. A consumer that can't drain this
	// many queued events is dropped rather than allowed to stall us.
	sendBufferSize = 256
)

// envelope is the wire format in both directions: an event name plus payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound event names (mirrored by the browser client).
const (
	evJoinSession  = "join-session"
	evSendMessage  = "send-message"
	evGetHistory   = "get-history"
	evClearSession = "clear-session"
)

// Outbound event names.
const (
	evMessageReceived  = "message-received"
	evResponseChunk    = "response-chunk"
	evResponseComplete = "response-complete"
	evHistory          = "history"
	evSessionCleared   = "session-cleared"
	evError            = "error"
)

// Client is a middleman between one websocket connection and the rag service.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// ID identifies this connection in logs.
	ID string

	// Buffered channel of outbound messages.
	Send chan []byte

	svc service.IRagService

	// sessionID is the session this client joined, guarded by mu.
	mu        sync.RWMutex
	sessionID string

	// dropOnce guards the overflow disconnect path.
	dropOnce sync.Once

	// gone flips once the connection is closed so in-flight streams stop
	// trying to enqueue deliveries.
	gone chan struct{}
}

type sessionRef struct {
	SessionId string `json:"session_id"`
}

type inboundMessage struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message"`
}

// readPump pumps messages from the websocket connection to the dispatcher.
func (c *Client) readPump() {
	defer func() {
		close(c.gone)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"client_id": c.ID, "error": err.Error(),
				})
			}
			break
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("invalid message format")
			continue
		}
		c.dispatch(env)
	}
}

// writePump pumps messages from the Send channel to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(env envelope) {
	switch env.Event {
	case evJoinSession:
		c.handleJoin(env.Data)
	case evSendMessage:
		// Each query runs as its own task; a slow generation must not
		// block this connection's other requests.
		go c.handleSendMessage(env.Data)
	case evGetHistory:
		go c.handleGetHistory(env.Data)
	case evClearSession:
		go c.handleClearSession(env.Data)
	default:
		c.sendError("unknown event: " + env.Event)
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	var ref sessionRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.SessionId == "" {
		c.sendError("session id is required")
		return
	}

	c.mu.Lock()
	c.sessionID = ref.SessionId
	c.mu.Unlock()

	c.Hub.logger.Info("Client", "Joined session", map[string]interface{}{
		"client_id": c.ID, "session_id": ref.SessionId,
	})
}

func (c *Client) handleSendMessage(data json.RawMessage) {
	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message payload")
		return
	}

	sessionID := in.SessionId
	if sessionID == "" {
		sessionID = c.joinedSession()
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if in.Message == "" {
		c.sendError("message is required")
		return
	}

	c.sendEvent(evMessageReceived, sessionRef{SessionId: sessionID})

	// The stream runs on a background context: if this listener drops
	// mid-answer we stop forwarding but let generation finish so the
	// completed turn still lands in the session.
	events := c.svc.ProcessQueryStream(context.Background(), sessionID, in.Message)

	for ev := range events {
		switch {
		case ev.Err != nil:
			c.sendError(errorMessage(ev.Err))
		case ev.Result != nil:
			c.sendEvent(evResponseComplete, map[string]interface{}{
				"session_id": sessionID,
				"response":   ev.Result.Answer,
				"sources":    ev.Result.Sources,
				"timestamp":  time.Now().UTC(),
			})
		default:
			c.sendEvent(evResponseChunk, map[string]interface{}{
				"session_id": sessionID,
				"chunk":      ev.Fragment,
			})
		}
	}
}

func (c *Client) handleGetHistory(data json.RawMessage) {
	var ref sessionRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.SessionId == "" {
		c.sendError("session id is required")
		return
	}

	history, err := c.svc.GetSessionHistory(context.Background(), ref.SessionId)
	if err != nil {
		c.sendError(errorMessage(err))
		return
	}

	c.sendEvent(evHistory, map[string]interface{}{
		"session_id": ref.SessionId,
		"history":    history,
	})
}

func (c *Client) handleClearSession(data json.RawMessage) {
	var ref sessionRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.SessionId == "" {
		c.sendError("session id is required")
		return
	}

	if err := c.svc.ClearSession(context.Background(), ref.SessionId); err != nil {
		c.sendError(errorMessage(err))
		return
	}

	c.sendEvent(evSessionCleared, sessionRef{SessionId: ref.SessionId})
}

func (c *Client) joinedSession() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// sendEvent queues an outbound event. A full buffer means this consumer has
// fallen hopelessly behind: the connection is dropped rather than letting it
// backpressure the generating side.
func (c *Client) sendEvent(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	raw, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return
	}

	select {
	case <-c.gone:
		return
	default:
	}

	select {
	case c.Send <- raw:
	default:
		c.dropOnce.Do(func() {
			c.Hub.logger.Warn("Client", "Send buffer full, dropping connection", map[string]interface{}{
				"client_id": c.ID,
			})
			c.Conn.Close()
		})
	}
}

func (c *Client) sendError(msg string) {
	c.sendEvent(evError, map[string]interface{}{"error": msg})
}

func errorMessage(err error) string {
	if kind := apperr.KindOf(err); kind != "" {
		return err.Error()
	}
	return "internal error"
}
