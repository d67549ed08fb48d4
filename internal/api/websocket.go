package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/session"
)

// WebSocket message types for the token protocol
const (
	// Client -> Server messages
	MsgTypeTokensRequest = "tokens:request"
	MsgTypePing          = "ping"

	// Server -> Client messages
	MsgTypeConnected   = "connected"
	MsgTypeTokensBatch = "tokens:batch"
	MsgTypeTokensDone  = "tokens:complete"
	MsgTypeError       = "error"
	MsgTypePong        = "pong"
)

// DefaultTokenBatchSize is how many spans go into one batch message.
const DefaultTokenBatchSize = 2048

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope of every websocket message.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// TokensRequestPayload selects the byte window to tokenize. A zero limit means
// the rest of the document.
type TokensRequestPayload struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// TokensBatchPayload carries one batch of spans.
type TokensBatchPayload struct {
	Seq   int           `json:"seq"`
	Spans []models.Span `json:"spans"`
}

// TokensDonePayload ends a tokens request.
type TokensDonePayload struct {
	Start   int `json:"start"`
	End     int `json:"end"`
	Total   int `json:"total"`
	Batches int `json:"batches"`
}

// WSErrorPayload describes a failed request.
type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams highlight spans of a session's document
type WebSocketHandler struct {
	sessionMgr SessionManager
	upgrader   websocket.Upgrader
	batchSize  int
}

// NewWebSocketHandler creates a new token stream handler
func NewWebSocketHandler(sessionMgr SessionManager, batchSize int) *WebSocketHandler {
	if batchSize <= 0 {
		batchSize = DefaultTokenBatchSize
	}
	return &WebSocketHandler{
		sessionMgr: sessionMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		batchSize: batchSize,
	}
}

// HandleTokenStream upgrades the connection and answers tokens requests until
// the client disconnects.
func (wsh *WebSocketHandler) HandleTokenStream(c echo.Context) error {
	id := c.Param("id")
	if _, ok := wsh.sessionMgr.GetSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	slog.Debug("token stream connected", "session", id)
	wsh.send(ws, MsgTypeConnected, id, nil)

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("token stream read failed", "session", id, "error", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			wsh.send(ws, MsgTypePong, msg.ID, nil)
		case MsgTypeTokensRequest:
			wsh.handleTokensRequest(ws, id, msg)
		default:
			wsh.sendError(ws, msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	slog.Debug("token stream disconnected", "session", id)
	return nil
}

func (wsh *WebSocketHandler) handleTokensRequest(ws *websocket.Conn, sessionID string, msg WSMessage) {
	var req TokensRequestPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			wsh.sendError(ws, msg.ID, "Invalid tokens payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
	}

	// Copy the window under the read lock, tokenize outside it.
	var text string
	var start, end int
	err := wsh.sessionMgr.WithDocument(sessionID, func(doc *session.Document) error {
		start, end = doc.LineWindow(req.Offset, req.Limit)
		text = string(doc.Content()[start:end])
		return nil
	})
	if err != nil {
		apiErr := sessionError(err, sessionID)
		wsh.sendError(ws, msg.ID, apiErr.Message, apiErr.Code)
		return
	}
	wsh.sessionMgr.TouchSession(sessionID)

	sink := &batchSink{
		size: wsh.batchSize,
		flush: func(seq int, spans []models.Span) error {
			return wsh.send(ws, MsgTypeTokensBatch, msg.ID, TokensBatchPayload{Seq: seq, Spans: spans})
		},
	}
	parser.TokenizeAt(text, start, sink)
	if err := sink.Close(); err != nil {
		slog.Warn("token stream write failed", "session", sessionID, "error", err)
		return
	}

	wsh.send(ws, MsgTypeTokensDone, msg.ID, TokensDonePayload{
		Start:   start,
		End:     end,
		Total:   sink.total,
		Batches: sink.seq,
	})
}

// batchSink groups spans and hands each full batch to flush. After a flush
// error it drops the remaining spans.
type batchSink struct {
	size  int
	flush func(seq int, spans []models.Span) error
	batch []models.Span
	seq   int
	total int
	err   error
}

func (b *batchSink) AddToken(span models.Span) {
	if b.err != nil {
		return
	}
	b.batch = append(b.batch, span)
	b.total++
	if len(b.batch) >= b.size {
		b.emit()
	}
}

func (b *batchSink) emit() {
	if len(b.batch) == 0 || b.err != nil {
		return
	}
	b.err = b.flush(b.seq, b.batch)
	b.seq++
	b.batch = make([]models.Span, 0, b.size)
}

// Close flushes the final partial batch.
func (b *batchSink) Close() error {
	b.emit()
	return b.err
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msgType, id string, payload interface{}) error {
	msg := WSMessage{Type: msgType, ID: id, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = data
	}
	ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return ws.WriteJSON(msg)
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, id, message, code string) {
	if err := wsh.send(ws, MsgTypeError, id, WSErrorPayload{Message: message, Code: code}); err != nil {
		slog.Warn("failed to send websocket error", "error", err)
	}
}
