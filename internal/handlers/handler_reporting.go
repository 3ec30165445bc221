package handlers

import (
	"net/http"

	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler streams CSV exports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvc
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingSvc) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers the CSV export routes.
func registerReportingRoutes(rg *gin.RouterGroup, rs portssvc.ReportingSvc) {
	h := newReportingHandler(rs)

	reports := rg.Group("/reports")
	{
		reports.GET("/households/:id/ledger.csv", h.exportLedger)
		reports.GET("/sources/:id/bookings.csv", h.exportBookings)
	}
}

func (h *reportingHandler) exportLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	householdID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ledger-`+householdID+`.csv"`)

	if err := h.reportingService.WriteLedgerCSV(c.Request.Context(), actor, householdID, c.Writer); err != nil {
		// Headers may already be written; the client sees a truncated file.
		logger.Error("Failed to export ledger CSV", "error", err.Error())
		c.Abort()
		return
	}
}

func (h *reportingHandler) exportBookings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	from, to, err := parseTimeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="bookings-`+sourceID+`.csv"`)

	if err := h.reportingService.WriteBookingsCSV(c.Request.Context(), actor, sourceID, from, to, c.Writer); err != nil {
		logger.Error("Failed to export bookings CSV", "error", err.Error())
		c.Abort()
		return
	}
}
