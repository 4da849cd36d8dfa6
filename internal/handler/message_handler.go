package handler

import (
	"net/http"
	"strconv"
	"time"

	"relaydesk/internal/domain"
	"relaydesk/internal/services"
	"relaydesk/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	dispatch      *services.DispatchService
	conversations *services.ConversationService
}

func NewMessageHandler(dispatch *services.DispatchService, conversations *services.ConversationService) *MessageHandler {
	return &MessageHandler{dispatch: dispatch, conversations: conversations}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	conversationID, err := parseUUID(req.ConversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation_id", "INVALID_REQUEST"))
		return
	}

	msgType := domain.MessageType(req.Type)
	if req.Type == "" {
		msgType = domain.MessageTypeText
	}

	message, err := h.dispatch.SendMessage(c.Request.Context(), services.SendMessageInput{
		ConversationID: conversationID,
		Type:           msgType,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		MediaType:      req.MediaType,
		TemplateRef:    req.TemplateRef,
	})
	if err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(message))
}

func (h *MessageHandler) List(c *gin.Context) {
	conversationID, err := parseUUID(c.Query("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation_id", "INVALID_REQUEST"))
		return
	}

	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid limit", "INVALID_REQUEST"))
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid before cursor", "INVALID_REQUEST"))
			return
		}
		before = &parsed
	}

	messages, err := h.conversations.Messages(c.Request.Context(), conversationID, before, limit)
	if err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"messages": messages}))
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "REQUEST_FAILED"
	}
}
