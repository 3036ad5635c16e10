package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/middleware"
	"github.com/quocanhngo/deadlinemind/internal/model"
)

// SummarySender e-mails a user their vehicle summary
type SummarySender interface {
	SendSummary(ctx context.Context, userID, email, name string) (*model.SummaryEmailResponse, error)
}

// ReportHandler handles on-demand report endpoints
type ReportHandler struct {
	reports SummarySender
}

func NewReportHandler(reports SummarySender) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// SendSummary godoc
// @Summary E-mail the caller a summary of all their vehicles
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SummaryEmailResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /reports/summary [post]
func (h *ReportHandler) SendSummary(c *gin.Context) {
	resp, err := h.reports.SendSummary(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		c.GetString(middleware.ContextEmail),
		c.GetString(middleware.ContextName),
	)

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case apperr.IsMalformed(err):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "User information is missing.", Message: err.Error()})
	case apperr.IsConfiguration(err):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "E-mail is not available right now.", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to send summary email.", Message: err.Error()})
	}
}
