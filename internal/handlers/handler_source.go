package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// sourceHandler handles HTTP requests related to water sources and slots.
type sourceHandler struct {
	sourceService portssvc.SourceSvcFacade
	slotService   portssvc.SlotRegistrySvc
}

// newSourceHandler creates a new sourceHandler.
func newSourceHandler(ss portssvc.SourceSvcFacade, sl portssvc.SlotRegistrySvc) *sourceHandler {
	return &sourceHandler{
		sourceService: ss,
		slotService:   sl,
	}
}

// registerSourceRoutes registers routes related to water sources.
func registerSourceRoutes(rg *gin.RouterGroup, ss portssvc.SourceSvcFacade, sl portssvc.SlotRegistrySvc) {
	h := newSourceHandler(ss, sl)

	sources := rg.Group("/sources")
	{
		sources.POST("", h.createSource)
		sources.GET("", h.listSources)
		sources.GET("/:id", h.getSource)
		sources.PUT("/:id/status", h.setSourceStatus)
		sources.POST("/:id/slots", h.createSlot)
		sources.GET("/:id/slots", h.listSlots)
	}
}

func (h *sourceHandler) createSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSource", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received request to create water source", slog.String("name", req.Name))

	source, err := h.sourceService.CreateSource(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create water source")
		return
	}

	logger.Info("Water source created successfully", slog.String("source_id", source.SourceID))
	c.JSON(http.StatusCreated, dto.ToSourceResponse(source))
}

func (h *sourceHandler) listSources(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	sources, err := h.sourceService.ListSources(c.Request.Context())
	if err != nil {
		respondWithError(c, logger, err, "Failed to list water sources")
		return
	}

	responses := make([]dto.SourceResponse, len(sources))
	for i := range sources {
		responses[i] = dto.ToSourceResponse(&sources[i])
	}
	c.JSON(http.StatusOK, gin.H{"sources": responses})
}

func (h *sourceHandler) getSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceID := c.Param("id")

	source, err := h.sourceService.GetSource(c.Request.Context(), sourceID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve water source")
		return
	}

	c.JSON(http.StatusOK, dto.ToSourceResponse(source))
}

func (h *sourceHandler) setSourceStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceID := c.Param("id")

	var req dto.UpdateSourceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SetSourceStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("source_id", sourceID))
	logger.Info("Received request to update source status", slog.String("status", string(req.Status)))

	if err := h.sourceService.SetSourceStatus(c.Request.Context(), actor, sourceID, req.Status); err != nil {
		respondWithError(c, logger, err, "Failed to update source status")
		return
	}

	logger.Info("Source status updated successfully")
	c.Status(http.StatusNoContent)
}

func (h *sourceHandler) createSlot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceID := c.Param("id")

	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSlot", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("source_id", sourceID))
	logger.Info("Received request to create slot",
		slog.Time("start_time", req.StartTime),
		slog.Int64("capacity_liters", req.CapacityLiters))

	slot, err := h.sourceService.CreateSlot(c.Request.Context(), actor, sourceID, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create slot")
		return
	}

	logger.Info("Slot created successfully", slog.String("slot_id", slot.SlotID))
	c.JSON(http.StatusCreated, dto.ToSlotResponse(slot))
}

func (h *sourceHandler) listSlots(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceID := c.Param("id")

	from, to, err := parseTimeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slots, err := h.slotService.ListAvailableSlots(c.Request.Context(), sourceID, from, to)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list slots")
		return
	}

	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// parseTimeRange reads the from/to query parameters as RFC3339 timestamps.
// Absent parameters default to the next 7 days.
func parseTimeRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now
	to := now.Add(7 * 24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}
