package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyboost/tutor-market-api/internal/models"
	"github.com/studyboost/tutor-market-api/internal/service"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
	"github.com/studyboost/tutor-market-api/pkg/response"
)

// ScoreHandler wires HTTP endpoints to the score record service.
type ScoreHandler struct {
	service *service.ScoreService
}

// NewScoreHandler creates a new handler.
func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: svc}
}

// Create godoc
// @Summary Record assessment
// @Description Record a before/after score measurement for a student
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ScoreRecordCreateRequest true "Score payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Create(c *gin.Context) {
	var req models.ScoreRecordCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}

// ListByStudent godoc
// @Summary List student scores
// @Description Return a student's score records in date order
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /scores/student/{id} [get]
func (h *ScoreHandler) ListByStudent(c *gin.Context) {
	records, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
