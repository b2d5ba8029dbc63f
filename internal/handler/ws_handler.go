package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/service"
	"siteops/internal/util"
	"siteops/internal/ws"
)

const inboundTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browser clients connect from the SPA origin; auth is the JWT, not the origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades /ws connections and routes inbound frames. Browsers
// cannot set headers on WebSocket dials, so the JWT may arrive as a ?token=
// query parameter instead of the Authorization header.
type WSHandler struct {
	hub         *ws.Hub
	chatService *service.ChatService
	jwtSecret   string
	logger      *zap.Logger
}

func NewWSHandler(hub *ws.Hub, chatService *service.ChatService, jwtSecret string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:         hub,
		chatService: chatService,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c *gin.Context) {
	token := util.ExtractToken(c.Request)
	if token == "" {
		token = c.Query("token")
	}
	userID, err := util.ParseJWT(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, userID, h.inbound, h.logger)
	client.Run()
}

// inbound routes a frame from a connected client. Chat frames persist before
// fan-out; typing frames are relayed as-is.
func (h *WSHandler) inbound(userID int, f ws.Frame) {
	switch f.Type {
	case ws.FrameTypeChat:
		ctx, cancel := context.WithTimeout(context.Background(), inboundTimeout)
		defer cancel()

		msg := &model.ChatMessage{
			ProjectID:   f.ProjectID,
			SenderID:    userID,
			RecipientID: f.RecipientID,
			Body:        f.Body,
		}
		saved, err := h.chatService.Send(ctx, msg)
		if err != nil {
			h.logger.Warn("Chat message rejected",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
			return
		}

		out := ws.Frame{
			Type:        ws.FrameTypeChat,
			SenderID:    userID,
			ProjectID:   saved.ProjectID,
			RecipientID: saved.RecipientID,
			Body:        saved.Body,
			At:          saved.CreatedAt,
		}
		if saved.RecipientID != 0 {
			h.hub.SendToUser(saved.RecipientID, out)
			h.hub.SendToUser(userID, out)
		} else {
			h.hub.Broadcast(out)
		}

	case ws.FrameTypeTyping:
		f.At = time.Now()
		if f.RecipientID != 0 {
			h.hub.SendToUser(f.RecipientID, f)
		} else {
			h.hub.Broadcast(f)
		}

	default:
		h.logger.Debug("Ignoring frame of unknown type",
			zap.Int("user_id", userID),
			zap.String("type", f.Type),
		)
	}
}
