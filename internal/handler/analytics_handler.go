package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyboost/tutor-market-api/internal/service"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
	"github.com/studyboost/tutor-market-api/pkg/export"
	"github.com/studyboost/tutor-market-api/pkg/response"
)

// AnalyticsHandler wires HTTP endpoints to the analytics service.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	csv     *export.CSVRenderer
	pdf     *export.PDFRenderer
}

// NewAnalyticsHandler creates a new handler.
func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc, csv: export.NewCSVRenderer(), pdf: export.NewPDFRenderer()}
}

// Student godoc
// @Summary Student analytics
// @Description Per-subject improvement roll-up for a student
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /analytics/student/{id} [get]
func (h *AnalyticsHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.StudentAnalytics(c.Request.Context(), claims.Subject, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Teacher godoc
// @Summary Teacher analytics
// @Description Effectiveness roll-up for a teacher
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /analytics/teacher/{id} [get]
func (h *AnalyticsHandler) Teacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.TeacherAnalytics(c.Request.Context(), claims.Subject, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Subject godoc
// @Summary Subject analytics
// @Description Subject-wide improvement and success rate
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /analytics/subject/{subject} [get]
func (h *AnalyticsHandler) Subject(c *gin.Context) {
	result, err := h.service.SubjectAnalytics(c.Request.Context(), c.Param("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Overview godoc
// @Summary Platform overview
// @Description Site-wide counts and quality aggregates
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	result, err := h.service.PlatformOverview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Students godoc
// @Summary List student accounts
// @Description Admin directory of student users
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /analytics/users/students [get]
func (h *AnalyticsHandler) Students(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 100)

	students, pagination, err := h.service.ListStudents(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// My godoc
// @Summary My analytics
// @Description Analytics scoped to the caller's own role
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/my [get]
func (h *AnalyticsHandler) My(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.MyAnalytics(c.Request.Context(), claims.Subject, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportOverview godoc
// @Summary Export platform overview
// @Description Download the platform overview as CSV or PDF
// @Tags Analytics
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "Export format (csv, pdf)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /analytics/overview/export [get]
func (h *AnalyticsHandler) ExportOverview(c *gin.Context) {
	report, err := h.service.OverviewReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	filename := fmt.Sprintf("platform-overview-%s", time.Now().UTC().Format("2006-01-02"))

	switch format {
	case "csv":
		data, err := h.csv.Render(*report)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.pdf.Render(*report)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, filename))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
