package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teemow/auraflow/internal/conversation"
	"github.com/teemow/auraflow/internal/history"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/prompt"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 64 << 10
	wsHistoryOnOpen  = 50
	wsPendingTurns   = 4
)

// Websocket message types.
const (
	WSTypeChatMessage  = "chat_message"
	WSTypeChatResponse = "chat_response"
	WSTypeHistory      = "history"
	WSTypeError        = "error"
)

// WSMessage is the envelope of every websocket frame in either direction.
type WSMessage struct {
	Type        string                      `json:"type"`
	Message     string                      `json:"message,omitempty"`
	Model       string                      `json:"model,omitempty"`
	TurnID      string                      `json:"turnId,omitempty"`
	ToolResults []conversation.ExecutedTool `json:"toolResults,omitempty"`
	History     []history.Exchange          `json:"history,omitempty"`
	Timestamp   time.Time                   `json:"timestamp,omitzero"`
}

type wsClient struct {
	sc   *ServerContext
	conn *websocket.Conn
	user prompt.UserContext

	send chan WSMessage
	done chan struct{}
}

// WebSocketHandler serves GET /ws. The identity comes from the upgrade
// request's proxy headers and holds for the whole connection.
func (sc *ServerContext) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromRequest(r)
		if !ok {
			http.Error(w, "missing "+HeaderUserID+" header", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			sc.logger.Warn("websocket upgrade failed", logging.Err(err))
			return
		}

		c := &wsClient{
			sc:   sc,
			conn: conn,
			user: user,
			send: make(chan WSMessage, 16),
			done: make(chan struct{}),
		}
		go c.writePump()
		c.readPump(sc.Context())
	})
}

func (c *wsClient) push(m WSMessage) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	select {
	case c.send <- m:
	case <-c.done:
	}
}

// readPump keeps reading while turns run on a separate worker, so a
// disconnect cancels the connection context and with it the running turn.
func (c *wsClient) readPump(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	turns := make(chan WSMessage, wsPendingTurns)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for in := range turns {
			c.handleChat(ctx, in)
		}
	}()
	defer func() {
		cancel()
		close(turns)
		wg.Wait()
		close(c.send)
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	if past, err := c.sc.history.Recent(ctx, c.user.ID, wsHistoryOnOpen); err == nil && len(past) > 0 {
		c.push(WSMessage{Type: WSTypeHistory, History: past})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.sc.logger.Debug("websocket closed", logging.Err(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var in WSMessage
		if err := json.Unmarshal(data, &in); err != nil {
			c.push(WSMessage{Type: WSTypeError, Message: "invalid message"})
			continue
		}
		switch in.Type {
		case WSTypeChatMessage:
			select {
			case turns <- in:
			default:
				c.push(WSMessage{Type: WSTypeError, Message: "too many pending messages"})
			}
		default:
			c.push(WSMessage{Type: WSTypeError, Message: "unknown message type " + in.Type})
		}
	}
}

func (c *wsClient) handleChat(ctx context.Context, in WSMessage) {
	if in.Message == "" {
		c.push(WSMessage{Type: WSTypeError, Message: "message is required"})
		return
	}
	reply, err := c.sc.HandleMessage(ctx, c.user, in.Message, in.Model)
	if err != nil {
		c.sc.logger.Warn("websocket turn failed", logging.UserHash(c.user.ID), logging.Err(err))
		c.push(WSMessage{Type: WSTypeError, Message: reply.Response, TurnID: reply.TurnID, ToolResults: reply.ToolResults})
		return
	}
	c.push(WSMessage{
		Type:        WSTypeChatResponse,
		Message:     reply.Response,
		Model:       reply.Model,
		TurnID:      reply.TurnID,
		ToolResults: reply.ToolResults,
	})
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		_ = c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(m); err != nil {
				c.sc.logger.Debug("websocket write failed", logging.Err(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
