package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ai-super-hub/hub-api/internal/service"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
	"github.com/ai-super-hub/hub-api/pkg/response"
)

// ChatHandler wires HTTP endpoints to the AI assistant service.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler creates a new handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Send godoc
// @Summary Send chat message
// @Description Sends a message to the assistant and returns its reply
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body service.ChatRequest true "Chat payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}

	res, err := h.service.Send(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// History godoc
// @Summary Get chat history
// @Description Returns the caller's recent conversation in chronological order
// @Tags Chat
// @Produce json
// @Param limit query int false "Max messages"
// @Success 200 {object} response.Envelope
// @Router /chat/history [get]
func (h *ChatHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.service.History(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, nil)
}

// Clear godoc
// @Summary Clear chat history
// @Description Wipes the caller's conversation
// @Tags Chat
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /chat/history [delete]
func (h *ChatHandler) Clear(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Clear(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
