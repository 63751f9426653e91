package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Inbound message types.
const (
	msgCreateLobby   = "create_lobby"
	msgJoinLobby     = "join_lobby"
	msgStartQuestion = "start_question"
	msgSubmitAnswer  = "submit_answer"
	msgRevealAnswer  = "reveal_answer"
	msgEndQuiz       = "end_quiz"
)

// Authenticator resolves the identity presented at handshake time.
type Authenticator interface {
	Authenticate(r *http.Request) (domain.Identity, error)
}

// ConnectionMetrics records gateway activity.
type ConnectionMetrics interface {
	ConnectionOpened(role string)
	ConnectionClosed(role string)
	HandlerFailed(op string)
}

type noOpConnectionMetrics struct{}

func (noOpConnectionMetrics) ConnectionOpened(string) {}
func (noOpConnectionMetrics) ConnectionClosed(string) {}
func (noOpConnectionMetrics) HandlerFailed(string)    {}

type WSHandler struct {
	service  *app.LobbyService
	hub      *Hub
	auth     Authenticator
	metrics  ConnectionMetrics
	upgrader websocket.Upgrader
}

// WSOption customizes a WSHandler.
type WSOption func(*WSHandler)

func WithConnectionMetrics(metrics ConnectionMetrics) WSOption {
	return func(h *WSHandler) { h.metrics = metrics }
}

// WithAllowedOrigins restricts the websocket upgrade to the given origins. Empty or "*" allows all.
func WithAllowedOrigins(origins []string) WSOption {
	return func(h *WSHandler) { h.upgrader.CheckOrigin = originChecker(origins) }
}

func NewWSHandler(service *app.LobbyService, hub *Hub, auth Authenticator, opts ...WSOption) *WSHandler {
	h := &WSHandler{
		service: service,
		hub:     hub,
		auth:    auth,
		metrics: noOpConnectionMetrics{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createLobbyPayload struct {
	QuizRef string                 `json:"quizRef"`
	Config  domain.ConfigOverrides `json:"config"`
}

type lobbyPayload struct {
	SessionID string `json:"sessionId"`
}

type joinPayload struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

type answerPayload struct {
	SessionID   string `json:"sessionId"`
	ChoiceIndex *int   `json:"choiceIndex"`
}

// connection is the per-socket context handed to message handlers.
type connection struct {
	id       string
	identity domain.Identity
}

// ServeWS authenticates the handshake, upgrades the request and serves lobby messages until the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Authenticate(r)
	if err != nil {
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws handshake rejected")
		http.Error(w, domain.ErrAuthenticationFailed.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	c := connection{id: uuid.NewString(), identity: identity}
	send := h.hub.Register(c.id)
	role := string(identity.Role)
	h.metrics.ConnectionOpened(role)
	log.Debug().Str("conn_id", c.id).Str("user_id", identity.ID).Str("role", role).Msg("ws connected")

	writerDone := make(chan struct{})
	go h.writePump(conn, send, writerDone)

	h.readPump(r.Context(), conn, c)

	// Closing the queue stops the writer.
	h.hub.Unregister(c.id)
	<-writerDone
	h.service.Disconnect(context.WithoutCancel(r.Context()), identity, c.id)
	h.metrics.ConnectionClosed(role)
	log.Debug().Str("conn_id", c.id).Str("user_id", identity.ID).Msg("ws disconnected")
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, c connection) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn_id", c.id).Msg("ws read error")
			}
			return
		}
		if err := h.handle(ctx, c, inbound); err != nil {
			h.metrics.HandlerFailed(inbound.Type)
			log.Debug().Err(err).Str("conn_id", c.id).Str("type", inbound.Type).Msg("message failed")
			h.hub.Send(c.id, domain.ErrorEvent(err))
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Msg("ws write error")
				h.abandon(conn, send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.abandon(conn, send)
				return
			}
		}
	}
}

// abandon closes a broken socket so the reader returns, then drains the queue until the hub closes it.
func (h *WSHandler) abandon(conn *websocket.Conn, send <-chan []byte) {
	_ = conn.Close()
	for range send {
	}
}

func (h *WSHandler) handle(ctx context.Context, c connection, msg inboundMessage) error {
	switch msg.Type {
	case msgCreateLobby:
		var p createLobbyPayload
		if err := h.decode(c, msg, domain.RoleHost, &p); err != nil {
			return err
		}
		_, err := h.service.CreateLobby(ctx, c.identity.ID, c.id, p.QuizRef, p.Config)
		return err

	case msgJoinLobby:
		var p joinPayload
		if err := h.decode(c, msg, domain.RoleViewer, &p); err != nil {
			return err
		}
		name := c.identity.DisplayName
		if name == "" {
			name = p.DisplayName
		}
		return h.service.JoinLobby(ctx, p.SessionID, domain.Viewer{
			ID:           c.identity.ID,
			DisplayName:  name,
			ConnectionID: c.id,
		})

	case msgStartQuestion:
		var p lobbyPayload
		if err := h.decode(c, msg, domain.RoleHost, &p); err != nil {
			return err
		}
		return h.service.StartQuestion(ctx, c.identity.ID, p.SessionID)

	case msgSubmitAnswer:
		var p answerPayload
		if err := h.decode(c, msg, domain.RoleViewer, &p); err != nil {
			return err
		}
		if p.ChoiceIndex == nil {
			return domain.ErrChoiceNotFound
		}
		return h.service.SubmitAnswer(ctx, c.identity.ID, p.SessionID, *p.ChoiceIndex)

	case msgRevealAnswer:
		var p lobbyPayload
		if err := h.decode(c, msg, domain.RoleHost, &p); err != nil {
			return err
		}
		return h.service.RevealAnswer(ctx, c.identity.ID, p.SessionID)

	case msgEndQuiz:
		var p lobbyPayload
		if err := h.decode(c, msg, domain.RoleHost, &p); err != nil {
			return err
		}
		_, err := h.service.EndQuiz(ctx, c.identity.ID, p.SessionID)
		return err

	default:
		return domain.ErrUnsupportedMessage
	}
}

// decode checks the sender's role and unmarshals the payload into dst.
func (h *WSHandler) decode(c connection, msg inboundMessage, role domain.Role, dst any) error {
	if c.identity.Role != role {
		return domain.ErrForbidden
	}
	if len(msg.Payload) == 0 {
		return fmt.Errorf("missing %s payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		return fmt.Errorf("invalid %s payload", msg.Type)
	}
	return nil
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = struct{}{}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
