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

// ToolHandler wires HTTP endpoints to the tool directory service.
type ToolHandler struct {
	service *service.ToolService
}

// NewToolHandler creates a new handler.
func NewToolHandler(svc *service.ToolService) *ToolHandler {
	return &ToolHandler{service: svc}
}

// List godoc
// @Summary List tools
// @Description Returns a paginated AI tools directory page
// @Tags Tools
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param category query string false "Category filter"
// @Param search query string false "Search in name and description"
// @Param featured query bool false "Only featured tools"
// @Success 200 {object} response.Envelope
// @Router /tools [get]
func (h *ToolHandler) List(c *gin.Context) {
	filter := models.ToolFilter{
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if featured := c.Query("featured"); featured != "" {
		v := featured == "true"
		filter.Featured = &v
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: result.Total}
	response.JSON(c, http.StatusOK, result.Tools, pagination)
}

// Get godoc
// @Summary Get tool
// @Description Returns one directory entry
// @Tags Tools
// @Produce json
// @Param id path string true "Tool ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tools/{id} [get]
func (h *ToolHandler) Get(c *gin.Context) {
	tool, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tool, nil)
}

// Create godoc
// @Summary Create tool
// @Description Adds a directory entry (admin only)
// @Tags Tools
// @Accept json
// @Produce json
// @Param payload body service.ToolRequest true "Tool payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/tools [post]
func (h *ToolHandler) Create(c *gin.Context) {
	var req service.ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tool payload"))
		return
	}

	tool, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, tool)
}

// Update godoc
// @Summary Update tool
// @Description Replaces a directory entry (admin only)
// @Tags Tools
// @Accept json
// @Produce json
// @Param id path string true "Tool ID"
// @Param payload body service.ToolRequest true "Tool payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/tools/{id} [put]
func (h *ToolHandler) Update(c *gin.Context) {
	var req service.ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tool payload"))
		return
	}

	tool, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tool, nil)
}

// Delete godoc
// @Summary Delete tool
// @Description Removes a directory entry (admin only)
// @Tags Tools
// @Produce json
// @Param id path string true "Tool ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/tools/{id} [delete]
func (h *ToolHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AddFavorite godoc
// @Summary Star tool
// @Description Adds a tool to the caller's favorites
// @Tags Tools
// @Produce json
// @Param id path string true "Tool ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tools/{id}/favorite [post]
func (h *ToolHandler) AddFavorite(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.AddFavorite(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RemoveFavorite godoc
// @Summary Unstar tool
// @Description Removes a tool from the caller's favorites
// @Tags Tools
// @Produce json
// @Param id path string true "Tool ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tools/{id}/favorite [delete]
func (h *ToolHandler) RemoveFavorite(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.RemoveFavorite(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListFavorites godoc
// @Summary List favorites
// @Description Returns the caller's starred tools
// @Tags Tools
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tools/favorites [get]
func (h *ToolHandler) ListFavorites(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tools, err := h.service.ListFavorites(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tools, nil)
}
