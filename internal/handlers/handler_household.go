package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// householdHandler handles HTTP requests related to households and their ledgers.
type householdHandler struct {
	householdService portssvc.HouseholdSvcFacade
	ledgerService    portssvc.LedgerSvcFacade
	bookingService   portssvc.BookingSvcFacade
}

// newHouseholdHandler creates a new householdHandler.
func newHouseholdHandler(hs portssvc.HouseholdSvcFacade, ls portssvc.LedgerSvcFacade, bs portssvc.BookingSvcFacade) *householdHandler {
	return &householdHandler{
		householdService: hs,
		ledgerService:    ls,
		bookingService:   bs,
	}
}

// registerHouseholdRoutes registers routes related to households.
func registerHouseholdRoutes(rg *gin.RouterGroup, hs portssvc.HouseholdSvcFacade, ls portssvc.LedgerSvcFacade, bs portssvc.BookingSvcFacade) {
	h := newHouseholdHandler(hs, ls, bs)

	households := rg.Group("/households")
	{
		households.POST("", h.createHousehold)
		households.GET("", h.listHouseholds)
		households.GET("/:id", h.getHousehold)
		households.POST("/:id/deposits", h.deposit)
		households.GET("/:id/balance", h.getBalance)
		households.GET("/:id/transactions", h.listTransactions)
		households.GET("/:id/bookings", h.listBookings)
	}
}

func (h *householdHandler) createHousehold(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateHousehold", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received request to create household", slog.String("name", req.Name), slog.String("tier", string(req.Tier)))

	household, err := h.householdService.CreateHousehold(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create household")
		return
	}

	logger.Info("Household created successfully", slog.String("household_id", household.HouseholdID))
	c.JSON(http.StatusCreated, dto.ToHouseholdResponse(household))
}

func (h *householdHandler) listHouseholds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	households, err := h.householdService.ListHouseholds(c.Request.Context(), actor, limit, offset)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list households")
		return
	}

	responses := make([]dto.HouseholdResponse, len(households))
	for i := range households {
		responses[i] = dto.ToHouseholdResponse(&households[i])
	}
	c.JSON(http.StatusOK, gin.H{"households": responses})
}

func (h *householdHandler) getHousehold(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	householdID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	household, err := h.householdService.GetHousehold(c.Request.Context(), actor, householdID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve household")
		return
	}

	c.JSON(http.StatusOK, dto.ToHouseholdResponse(household))
}

func (h *householdHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	householdID := c.Param("id")

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("household_id", householdID))
	logger.Info("Received deposit request", slog.String("amount", req.Amount.String()))

	txn, err := h.householdService.Deposit(c.Request.Context(), actor, householdID, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record deposit")
		return
	}

	logger.Info("Deposit recorded successfully", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

func (h *householdHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	householdID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !actor.IsCoordinator() && actor.ID != householdID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	balance, err := h.ledgerService.Balance(c.Request.Context(), householdID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve balance")
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{HouseholdID: householdID, Balance: balance})
}

func (h *householdHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	householdID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !actor.IsCoordinator() && actor.ID != householdID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.ledgerService.History(c.Request.Context(), householdID, params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve transaction history")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *householdHandler) listBookings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	householdID := c.Param("id")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListBookingsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.bookingService.ListBookingsByHousehold(c.Request.Context(), actor, householdID, params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list bookings")
		return
	}

	c.JSON(http.StatusOK, page)
}

// respondWithError translates service errors into HTTP responses. Sentinel
// errors map to their status codes; everything else is a 500 with a generic
// message.
func respondWithError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrSlotFull),
		errors.Is(err, apperrors.ErrSourceUnderMaintenance),
		errors.Is(err, apperrors.ErrPriorityWindowClosed),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Operation conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
