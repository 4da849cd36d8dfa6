package handler

import (
	"net/http"

	"relaydesk/internal/domain"
	"relaydesk/internal/services"
	"relaydesk/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

func (h *ConversationHandler) List(c *gin.Context) {
	page, err := parseInt(c.Query("page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid page", "INVALID_REQUEST"))
		return
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid limit", "INVALID_REQUEST"))
		return
	}

	conversations, total, err := h.service.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"conversations": conversations,
		"total":         total,
	}))
}

func (h *ConversationHandler) Start(c *gin.Context) {
	var req httpdto.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	contactID, err := parseUUID(req.ContactID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid contact_id", "INVALID_REQUEST"))
		return
	}

	channel := domain.Channel(req.Channel)
	if req.Channel == "" {
		channel = domain.ChannelWhatsApp
	}

	conversation, err := h.service.Start(c.Request.Context(), contactID, channel)
	if err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conversation))
}

func (h *ConversationHandler) Assign(c *gin.Context) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.AssignConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	var assigneeID *uuid.UUID
	if req.AssigneeID != nil {
		parsed, err := parseUUID(*req.AssigneeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid assignee_id", "INVALID_REQUEST"))
			return
		}
		assigneeID = &parsed
	}

	if err := h.service.Assign(c.Request.Context(), conversationID, assigneeID); err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) Archive(c *gin.Context) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.Archive(c.Request.Context(), conversationID); err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), conversationID); err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) SetOptIn(c *gin.Context) {
	contactID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid contact id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.SetOptInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.service.SetContactOptIn(c.Request.Context(), contactID, req.OptedIn); err != nil {
		status := services.HTTPStatusForError(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), codeForStatus(status)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
