package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/service"
)

// ConversationHandler отдаёт историю переписки и отметки о прочтении.
type ConversationHandler struct {
	chats *service.ChatService
}

// NewConversationHandler создаёт хэндлер.
func NewConversationHandler(chats *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chats: chats}
}

// GetHistory обрабатывает GET /api/conversations/:userA/:userB.
// История — единственный источник истины: клиент перечитывает её
// целиком при открытии диалога и после reconnect.
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	userA, userB, ok := h.conversationPair(c)
	if !ok {
		return
	}

	messages, err := h.chats.History(c.Request.Context(), userA, userB)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkRead обрабатывает PUT /api/conversations/:userA/:userB/read.
// Прочитавший — текущий пользователь; отмечаются сообщения, адресованные ему.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userA, userB, ok := h.conversationPair(c)
	if !ok {
		return
	}

	readerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	partnerID := userA
	if readerID == userA {
		partnerID = userB
	}

	marked, err := h.chats.MarkRead(c.Request.Context(), readerID, partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// conversationPair разбирает участников из маршрута и проверяет,
// что текущий пользователь — один из них.
func (h *ConversationHandler) conversationPair(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userA, err := parseUUIDParam(c, "userA")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, uuid.Nil, false
	}

	userB, err := parseUUIDParam(c, "userB")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, uuid.Nil, false
	}

	currentID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return uuid.Nil, uuid.Nil, false
	}

	if currentID != userA && currentID != userB {
		c.JSON(http.StatusForbidden, gin.H{"error": "переписка доступна только её участникам"})
		return uuid.Nil, uuid.Nil, false
	}

	return userA, userB, true
}
