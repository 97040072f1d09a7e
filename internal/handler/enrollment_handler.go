package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-super-hub/hub-api/internal/service"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
	"github.com/ai-super-hub/hub-api/pkg/response"
)

// EnrollmentHandler wires HTTP endpoints to the enrollment and certificate
// services.
type EnrollmentHandler struct {
	service      *service.EnrollmentService
	certificates *service.CertificateService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService, certs *service.CertificateService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, certificates: certs}
}

// Enroll godoc
// @Summary Enroll in course
// @Description Enrolls the caller in a published course
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, enrollment)
}

// CompleteLesson godoc
// @Summary Complete lesson
// @Description Marks a lesson done and recomputes progress. Idempotent.
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId}/complete [post]
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollment, err := h.service.CompleteLesson(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}

// SubmitQuiz godoc
// @Summary Submit quiz
// @Description Grades a quiz submission and returns the result with per-answer review
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.SubmitQuizRequest true "Quiz answers"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/quiz [post]
func (h *EnrollmentHandler) SubmitQuiz(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}

	result, err := h.service.SubmitQuiz(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get enrollment
// @Description Returns the caller's enrollment state for a course, or null when not enrolled
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollment [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollment, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}

// ListMine godoc
// @Summary List own enrollments
// @Description Returns the caller's enrollments with course summaries
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollments, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Certificate godoc
// @Summary Download certificate
// @Description Returns the completion certificate PDF for an earned course
// @Tags Enrollments
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Success 200 {file} binary
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/certificate [get]
func (h *EnrollmentHandler) Certificate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, err := h.certificates.Render(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=certificate-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
