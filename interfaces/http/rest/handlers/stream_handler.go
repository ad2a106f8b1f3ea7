package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notegraph/application/interaction"
	"notegraph/application/registry"
	"notegraph/application/session"
	"notegraph/domain/core/valueobjects"
)

// StreamHandler is the renderer boundary: one websocket per renderer, layout
// frames and activation events flowing out, pointer events flowing in.
type StreamHandler struct {
	session  *session.Session
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStreamHandler creates a stream handler
func NewStreamHandler(sess *session.Session, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		session: sess,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16384,
			// The REST layer already handles CORS; the renderer may be
			// served from any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// outboundMessage wraps everything the renderer receives
type outboundMessage struct {
	Type  string                `json:"type"`
	Frame *registry.LayoutFrame `json:"frame,omitempty"`
	Slug  string                `json:"slug,omitempty"`
}

// pointerMessage is what the renderer sends back
type pointerMessage struct {
	Type string  `json:"type"` // pointer_down | pointer_move | pointer_up
	Node string  `json:"node,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Stream upgrades the connection and pumps frames until the client leaves
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.session.Subscribe()
	defer h.session.Unsubscribe(sub)
	defer conn.Close()

	done := make(chan struct{})
	go h.readPointerEvents(conn, done)

	for {
		select {
		case <-done:
			return
		case frame, ok := <-sub.Frames:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "frame", Frame: &frame}); err != nil {
				return
			}
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			if ev.Kind == interaction.EventNodeActivated {
				if err := conn.WriteJSON(outboundMessage{Type: "node_activated", Slug: ev.Slug.String()}); err != nil {
					return
				}
			}
		}
	}
}

// readPointerEvents forwards renderer pointer input into the session, where
// it is applied on the simulation goroutine before the next step
func (h *StreamHandler) readPointerEvents(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg pointerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed pointer message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "pointer_down":
			h.session.PointerDown(valueobjects.Slug(msg.Node), msg.X, msg.Y)
		case "pointer_move":
			h.session.PointerMove(msg.X, msg.Y)
		case "pointer_up":
			h.session.PointerUp()
		}
	}
}
