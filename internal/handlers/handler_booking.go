package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// bookingHandler handles HTTP requests driving the booking lifecycle.
type bookingHandler struct {
	bookingService portssvc.BookingSvcFacade
}

// newBookingHandler creates a new bookingHandler.
func newBookingHandler(bs portssvc.BookingSvcFacade) *bookingHandler {
	return &bookingHandler{
		bookingService: bs,
	}
}

// registerBookingRoutes registers routes related to bookings.
func registerBookingRoutes(rg *gin.RouterGroup, bs portssvc.BookingSvcFacade) {
	h := newBookingHandler(bs)

	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.requestBooking)
		bookings.GET("/:id", h.getBooking)
		bookings.POST("/:id/approve", h.approveBooking)
		bookings.POST("/:id/deny", h.denyBooking)
		bookings.POST("/:id/cancel", h.cancelBooking)
	}
}

func (h *bookingHandler) requestBooking(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RequestBooking", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received booking request",
		slog.String("slot_id", req.SlotID),
		slog.Int64("quantity_liters", req.QuantityLiters))

	booking, err := h.bookingService.Request(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create booking")
		return
	}

	logger.Info("Booking requested successfully", slog.String("booking_id", booking.BookingID))
	c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *bookingHandler) getBooking(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookingID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve booking")
		return
	}

	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *bookingHandler) approveBooking(c *gin.Context) {
	h.resolveBooking(c, domain.BookingApproved)
}

func (h *bookingHandler) denyBooking(c *gin.Context) {
	h.resolveBooking(c, domain.BookingDenied)
}

func (h *bookingHandler) cancelBooking(c *gin.Context) {
	h.resolveBooking(c, domain.BookingCancelled)
}

// resolveBooking dispatches the lifecycle actions that share a shape: path
// param ID in, updated booking out.
func (h *bookingHandler) resolveBooking(c *gin.Context, target domain.BookingStatus) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookingID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("booking_id", bookingID), slog.String("target_status", string(target)))
	logger.Info("Received booking lifecycle request")

	var booking *domain.Booking
	var err error
	switch target {
	case domain.BookingApproved:
		booking, err = h.bookingService.Approve(c.Request.Context(), actor, bookingID)
	case domain.BookingDenied:
		booking, err = h.bookingService.Deny(c.Request.Context(), actor, bookingID)
	case domain.BookingCancelled:
		booking, err = h.bookingService.Cancel(c.Request.Context(), actor, bookingID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported booking action"})
		return
	}
	if err != nil {
		respondWithError(c, logger, err, "Failed to update booking")
		return
	}

	logger.Info("Booking updated successfully", slog.String("status", string(booking.Status)))
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
