package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"courtly/models"
	"courtly/services/reservation"
)

// ReservationHandler exposes hold placement and read endpoints.
type ReservationHandler struct {
	Service reservation.ReservationService
	Logger  *zap.Logger
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(svc reservation.ReservationService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{Service: svc, Logger: logger}
}

// CreateHoldHandler places a temporary hold on a slot.
func (rh *ReservationHandler) CreateHoldHandler(c *gin.Context) {
	var input reservation.CreateHoldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	hold, err := rh.Service.CreateHold(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, reservation.ErrInvalidHold) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rh.Logger.Error("failed to create hold", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create hold"})
		return
	}

	c.JSON(http.StatusCreated, hold)
}

// GetHoldHandler returns one hold by its reference.
func (rh *ReservationHandler) GetHoldHandler(c *gin.Context) {
	reference := c.Param("reference")

	hold, err := rh.Service.GetHold(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, models.ErrHoldNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "hold not found"})
			return
		}
		rh.Logger.Error("failed to fetch hold", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch hold"})
		return
	}

	c.JSON(http.StatusOK, hold)
}

// GetBookingHandler returns one confirmed booking by id.
func (rh *ReservationHandler) GetBookingHandler(c *gin.Context) {
	id := c.Param("id")

	booking, err := rh.Service.GetBooking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		rh.Logger.Error("failed to fetch booking", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return
	}

	c.JSON(http.StatusOK, booking)
}
