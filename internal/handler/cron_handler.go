package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"github.com/quocanhngo/deadlinemind/internal/service"
)

// Scanner runs one expiry scan
type Scanner interface {
	Run(ctx context.Context) (*model.RunSummary, error)
}

// CronHandler exposes the expiry scan to the external scheduler
type CronHandler struct {
	scanner Scanner
}

func NewCronHandler(scanner Scanner) *CronHandler {
	return &CronHandler{scanner: scanner}
}

// CheckExpiries godoc
// @Summary Run the expiry notification scan
// @Description Scans every vehicle, sends due tax/insurance reminders by e-mail and WhatsApp and records when each was sent.
// @Tags Cron
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.CheckExpiriesResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.CheckExpiriesResponse
// @Failure 500 {object} model.CheckExpiriesResponse
// @Router /cron/check-expiries [get]
// @Router /cron/check-expiries [post]
func (h *CronHandler) CheckExpiries(c *gin.Context) {
	summary, err := h.scanner.Run(c.Request.Context())

	switch {
	case errors.Is(err, service.ErrScanInProgress):
		resp := model.NewCheckExpiriesResponse("Expiry check already running.", nil)
		resp.Error = err.Error()
		c.JSON(http.StatusConflict, resp)
	case err != nil:
		resp := model.NewCheckExpiriesResponse("Expiry check failed with critical error.", summary)
		resp.Error = "Failed to process expiry checks."
		c.JSON(http.StatusInternalServerError, resp)
	case summary.Partial:
		c.JSON(http.StatusOK, model.NewCheckExpiriesResponse("Expiry check interrupted, partial results.", summary))
	default:
		c.JSON(http.StatusOK, model.NewCheckExpiriesResponse("Expiry check complete.", summary))
	}
}
