package handler

import (
	"context"
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	livesync "back2me/internal/infrastructure/sync"
	ws "back2me/internal/infrastructure/websocket"
	"back2me/internal/usecase"
	"back2me/pkg/errors"
	"back2me/pkg/logger"
)

// WebSocketHandler is the transport for live sync. Each connection is one
// view: the client subscribes to its conversation list or to one
// conversation's messages, and receives the full current snapshot on every
// change. Visibility transitions map to pause/resume commands.
type WebSocketHandler struct {
	wsManager   *ws.Manager
	chatUseCase *usecase.ChatUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:   wsManager,
		chatUseCase: chatUseCase,
	}
}

type clientCommand struct {
	Action         string `json:"action"` // subscribe, unsubscribe, pause, resume
	Target         string `json:"target"` // conversations, messages
	ConversationID string `json:"conversation_id,omitempty"`
}

type serverFrame struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Error          string      `json:"error,omitempty"`
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	// The session outlives the HTTP request; it dies with the connection.
	ctx, cancel := context.WithCancel(context.Background())

	client := &ws.Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Session: livesync.NewSession(ctx),
	}

	h.wsManager.Register <- client

	go client.WritePump()
	go func() {
		client.ReadPump(h.wsManager, func(raw []byte) {
			h.dispatch(ctx, client, raw)
		})
		cancel()
	}()

	return nil
}

func (h *WebSocketHandler) dispatch(ctx context.Context, client *ws.Client, raw []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		client.EnqueueJSON(serverFrame{Type: "error", Error: "malformed command"})
		return
	}

	switch cmd.Action {
	case "subscribe":
		h.subscribe(ctx, client, cmd)
	case "unsubscribe":
		client.Session.Stop(h.target(client, cmd))
	case "pause":
		client.Session.Pause()
	case "resume":
		client.Session.Resume()
	default:
		client.EnqueueJSON(serverFrame{Type: "error", Error: "unknown action: " + cmd.Action})
	}
}

func (h *WebSocketHandler) target(client *ws.Client, cmd clientCommand) livesync.Target {
	if cmd.Target == livesync.TargetMessages {
		return livesync.Target{Kind: livesync.TargetMessages, ID: cmd.ConversationID}
	}
	return livesync.Target{Kind: livesync.TargetConversations, ID: client.UserID}
}

func (h *WebSocketHandler) subscribe(ctx context.Context, client *ws.Client, cmd clientCommand) {
	switch cmd.Target {
	case livesync.TargetConversations:
		client.Session.Start(h.target(client, cmd), func(subCtx context.Context) {
			for snapshot := range h.chatUseCase.StreamConversations(subCtx, client.UserID) {
				if snapshot.Err != nil {
					logger.Warn("Conversation stream for %s failed: %v", client.UserID, snapshot.Err)
					client.EnqueueJSON(serverFrame{Type: "error", Error: snapshot.Err.Error()})
					return
				}
				client.EnqueueJSON(serverFrame{Type: "conversations", Data: snapshot.Conversations})
			}
		})

	case livesync.TargetMessages:
		if cmd.ConversationID == "" {
			client.EnqueueJSON(serverFrame{Type: "error", Error: "conversation_id is required"})
			return
		}
		// Membership check before the listener is attached.
		if _, err := h.chatUseCase.GetConversation(ctx, client.UserID, cmd.ConversationID); err != nil {
			client.EnqueueJSON(serverFrame{Type: "error", ConversationID: cmd.ConversationID, Error: err.Error()})
			return
		}

		conversationID := cmd.ConversationID
		client.Session.Start(h.target(client, cmd), func(subCtx context.Context) {
			for snapshot := range h.chatUseCase.StreamMessages(subCtx, conversationID) {
				if snapshot.Err != nil {
					logger.Warn("Message stream for conversation %s failed: %v", conversationID, snapshot.Err)
					client.EnqueueJSON(serverFrame{Type: "error", ConversationID: conversationID, Error: snapshot.Err.Error()})
					return
				}
				client.EnqueueJSON(serverFrame{Type: "messages", ConversationID: conversationID, Data: snapshot.Messages})
			}
		})

	default:
		client.EnqueueJSON(serverFrame{Type: "error", Error: "unknown target: " + cmd.Target})
	}
}
