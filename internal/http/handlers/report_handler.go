package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/service"
)

// ReportHandler предоставляет HTTP слой модерации сообщений.
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler создаёт хэндлер.
func NewReportHandler(s *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: s}
}

// CreateReport обрабатывает POST /api/messages/report.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	reporterID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		MessageID      string  `json:"message_id" binding:"required,uuid"`
		Reason         string  `json:"reason" binding:"required"`
		AdditionalInfo *string `json:"additional_info"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageID, _ := uuid.Parse(req.MessageID)
	report, err := h.svc.CreateReport(c.Request.Context(), messageID, reporterID, req.Reason, req.AdditionalInfo)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListMyReports обрабатывает GET /api/messages/report.
func (h *ReportHandler) ListMyReports(c *gin.Context) {
	reporterID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit, offset := getPagination(c)

	reports, err := h.svc.ListMyReports(c.Request.Context(), reporterID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ListOpenReports обрабатывает GET /api/moderation/reports.
func (h *ReportHandler) ListOpenReports(c *gin.Context) {
	limit, offset := getPagination(c)

	reports, err := h.svc.ListOpenReports(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ResolveReport обрабатывает PUT /api/moderation/reports/:id.
func (h *ReportHandler) ResolveReport(c *gin.Context) {
	moderatorID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	reportID, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.ResolveReport(c.Request.Context(), reportID, moderatorID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
