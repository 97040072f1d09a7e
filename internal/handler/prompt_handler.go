package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/internal/service"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
	"github.com/ai-super-hub/hub-api/pkg/response"
)

// PromptHandler wires HTTP endpoints to the prompt library service.
type PromptHandler struct {
	service *service.PromptService
}

// NewPromptHandler creates a new handler.
func NewPromptHandler(svc *service.PromptService) *PromptHandler {
	return &PromptHandler{service: svc}
}

// List godoc
// @Summary List prompts
// @Description Returns public prompts; pass mine=true for the caller's own
// @Tags Prompts
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param category query string false "Category filter"
// @Param search query string false "Search in title and body"
// @Param mine query bool false "Only own prompts"
// @Success 200 {object} response.Envelope
// @Router /prompts [get]
func (h *PromptHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)

	filter := models.PromptFilter{
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if c.Query("mine") == "true" {
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		filter.AuthorID = claims.UserID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: result.Total}
	response.JSON(c, http.StatusOK, result.Prompts, pagination)
}

// Get godoc
// @Summary Get prompt
// @Description Returns one prompt; private prompts require authorship or admin
// @Tags Prompts
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prompts/{id} [get]
func (h *PromptHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	callerID := ""
	if claims != nil {
		callerID = claims.UserID
	}

	prompt, err := h.service.Get(c.Request.Context(), c.Param("id"), callerID, isAdmin(claims))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, prompt, nil)
}

// Create godoc
// @Summary Create prompt
// @Description Adds a prompt owned by the caller
// @Tags Prompts
// @Accept json
// @Produce json
// @Param payload body service.PromptRequest true "Prompt payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /prompts [post]
func (h *PromptHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid prompt payload"))
		return
	}

	prompt, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, prompt)
}

// Update godoc
// @Summary Update prompt
// @Description Edits a prompt; requires authorship or admin
// @Tags Prompts
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param payload body service.PromptRequest true "Prompt payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prompts/{id} [put]
func (h *PromptHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid prompt payload"))
		return
	}

	prompt, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, isAdmin(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, prompt, nil)
}

// Delete godoc
// @Summary Delete prompt
// @Description Removes a prompt; requires authorship or admin
// @Tags Prompts
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prompts/{id} [delete]
func (h *PromptHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, isAdmin(claims)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Copy godoc
// @Summary Copy prompt
// @Description Returns the prompt and bumps its copy counter
// @Tags Prompts
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prompts/{id}/copy [post]
func (h *PromptHandler) Copy(c *gin.Context) {
	claims := claimsFromContext(c)
	callerID := ""
	if claims != nil {
		callerID = claims.UserID
	}

	prompt, err := h.service.RecordCopy(c.Request.Context(), c.Param("id"), callerID, isAdmin(claims))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, prompt, nil)
}
