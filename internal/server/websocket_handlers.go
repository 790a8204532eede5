package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS origin policy is applied by corsMiddleware
		return true
	},
}

// WebSocketRequest is a client message. Type is "ean13" or "batch".
type WebSocketRequest struct {
	Type   string   `json:"type"`
	Code   string   `json:"code,omitempty"`
	Codes  []string `json:"codes,omitempty"`
	Format string   `json:"format,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is a server message.
type WebSocketResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// webSocketHandler handles WebSocket connections for streaming encodes.
func (s *Server) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
// Frames larger than the HTTP body limit close the connection with 1009.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(s.maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	// Keep the connection alive until the read loop exits
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				slog.Warn("WebSocket frame exceeds size limit", "limit_bytes", s.maxBodyBytes)
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage processes one client message.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := uuid.NewString()

	switch req.Type {
	case "ean13":
		s.processWebSocketEAN13(conn, req, requestID)
	case "batch":
		s.processWebSocketBatch(ctx, conn, req, requestID)
	default:
		s.sendWebSocketError(conn, requestID, "invalid_request", "Unsupported request type: "+req.Type)
	}
}

// processWebSocketEAN13 encodes a single code.
func (s *Server) processWebSocketEAN13(conn WebSocketConnWriter, req WebSocketRequest, requestID string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "ean13_response",
		Status:    "processing",
		RequestID: requestID,
	})

	res, err := encodeEAN13(req.Code)
	recordEncode("websocket", err == nil)
	if err != nil {
		s.sendWebSocketError(conn, requestID, "invalid_input", err.Error())
		return
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "ean13_response",
		Status:    "completed",
		Result:    res,
		RequestID: requestID,
	})
}

// processWebSocketBatch encodes a list of codes.
func (s *Server) processWebSocketBatch(ctx context.Context, conn WebSocketConnWriter, req WebSocketRequest, requestID string) {
	if len(req.Codes) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", batch.ErrNoCodes.Error())
		return
	}
	if len(req.Codes) > s.maxBatchSize {
		s.sendWebSocketError(conn, requestID, "invalid_request",
			fmt.Sprintf("batch of %d codes exceeds limit of %d", len(req.Codes), s.maxBatchSize))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "batch_response",
		Status:    "processing",
		RequestID: requestID,
	})

	batchSize.Observe(float64(len(req.Codes)))
	res, err := batch.Process(ctx, req.Codes, s.batchConfig)
	if err != nil {
		recordEncode("websocket", false)
		s.sendWebSocketError(conn, requestID, "processing_error", err.Error())
		return
	}
	for _, it := range res.Items {
		recordEncode("websocket", it.OK())
	}

	var result interface{} = map[string]interface{}{
		"id":      res.ID,
		"items":   res.Items,
		"summary": res.Stats(),
	}
	if req.Format != "" && req.Format != batch.FormatJSON {
		output, err := res.Format(req.Format)
		if err != nil {
			s.sendWebSocketError(conn, requestID, "invalid_request", err.Error())
			return
		}
		result = output
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "batch_response",
		Status:    "completed",
		Result:    result,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
