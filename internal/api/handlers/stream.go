package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/frontier/internal/contracts"
)

const (
	writeWait      = 10 * time.Second
	requestTimeout = 30 * time.Second
)

// StreamMessage types
const (
	StreamPoint = "point"
	StreamDone  = "done"
	StreamError = "error"
)

// StreamMessage is one websocket frame of the frontier stream
type StreamMessage struct {
	Type   string                   `json:"type"`
	Point  *contracts.FrontierPoint `json:"point,omitempty"`  // 연율
	Points int                      `json:"points,omitempty"` // done: 수렴한 점 수
	Error  string                   `json:"error,omitempty"`
}

func (h *EngineHandler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin allows same-host and allow-listed origins
// Origin 헤더가 없으면 브라우저 요청이 아니므로 허용
func (h *EngineHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// StreamFrontier streams frontier points as they converge
// GET /api/frontier/stream (websocket)
// 첫 메시지로 EngineRequest를 받고 point... → done (또는 error) 순서로 전송
func (h *EngineHandler) StreamFrontier(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade가 이미 HTTP 에러를 기록함
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(requestTimeout))
	var req EngineRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeStream(conn, StreamMessage{Type: StreamError, Error: "invalid request: " + err.Error()})
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 클라이언트가 연결을 끊으면 solve 중단
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	n, err := h.points(&req)
	if err != nil {
		h.streamError(conn, "stream", err)
		return
	}
	ds, opt, err := h.build(ctx, &req)
	if err != nil {
		h.streamError(conn, "stream", err)
		return
	}

	p := ds.engine.PeriodsPerYear
	frontier, err := opt.StreamFrontier(ctx, n, func(pt contracts.FrontierPoint) {
		annual := contracts.Frontier{pt}.Annualized(p)[0]
		if err := h.writeStream(conn, StreamMessage{Type: StreamPoint, Point: &annual}); err != nil {
			cancel()
		}
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			h.streamError(conn, "stream", err)
		}
		return
	}

	h.writeStream(conn, StreamMessage{Type: StreamDone, Points: len(frontier)})
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// streamError logs err and sends the error frame (HTTP 응답과 같은 노출 규칙)
func (h *EngineHandler) streamError(conn *websocket.Conn, op string, err error) {
	status := statusFor(err)
	entry := h.logger.WithError(err).WithField("op", op)
	if status >= http.StatusInternalServerError {
		entry.Error("Frontier stream failed")
	} else {
		entry.Debug("Frontier stream rejected")
	}
	h.writeStream(conn, StreamMessage{Type: StreamError, Error: clientMessage(status, err)})
}

// writeStream writes one frame; StreamFrontier 콜백은 직렬 호출되므로 writer는 하나
func (h *EngineHandler) writeStream(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.WithError(err).Debug("WebSocket write failed")
		return err
	}
	return nil
}
