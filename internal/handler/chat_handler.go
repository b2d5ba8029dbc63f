package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"siteops/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// History handles GET /projects/:id/chat
func (h *ChatHandler) History(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.chatService.History(c.Request.Context(), projectID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// DirectHistory handles GET /chat/direct/:id
func (h *ChatHandler) DirectHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.chatService.DirectHistory(c.Request.Context(), userID, otherID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
