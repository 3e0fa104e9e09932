package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stayhive/hotel-booking-backend/internal/models"
	"github.com/stayhive/hotel-booking-backend/internal/services"
)

// BookingReader is the read side of the booking store used by list and get
// endpoints. Writes go through the lifecycle service only.
type BookingReader interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter, limit, offset int) ([]*models.Booking, error)
}

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	lifecycleService *services.LifecycleService
	reader           BookingReader
	logger           *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	lifecycleService *services.LifecycleService,
	reader BookingReader,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		lifecycleService: lifecycleService,
		reader:           reader,
		logger:           logger,
	}
}

// CreateBookingRequest is the request body for creating a booking
type CreateBookingRequest struct {
	RoomID        uuid.UUID `json:"room_id" binding:"required"`
	GuestID       uuid.UUID `json:"guest_id" binding:"required"`
	CheckInDate   time.Time `json:"check_in_date" binding:"required"`
	CheckOutDate  time.Time `json:"check_out_date" binding:"required"`
	PricePerNight float64   `json:"price_per_night" binding:"required,gt=0"`
}

// respondLifecycleError maps a lifecycle error kind to an HTTP status.
// Validation failures are 400, missing bookings 404, state conflicts 409.
func (h *BookingHandler) respondLifecycleError(c *gin.Context, err error) {
	le, ok := models.LifecycleErrorFrom(err)
	if !ok {
		h.logger.WithError(err).Error("Booking operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := http.StatusBadRequest
	switch le.Kind {
	case models.ErrUnknownBooking:
		status = http.StatusNotFound
	case models.ErrInvalidTransition, models.ErrRoomUnavailable:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"error":   string(le.Kind),
		"message": le.Message,
	})
}

// ============================================================================
// CREATE - POST /api/v1/bookings
// ============================================================================

// CreateBooking creates a new booking in pending state
// @Summary Create booking
// @Description Validates dates and availability, creates a pending booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "Booking request"
// @Success 201 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Invalid dates"
// @Failure 409 {object} map[string]interface{} "Room unavailable"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.lifecycleService.CreateBooking(c.Request.Context(), services.CreateBookingParams{
		RoomID:        req.RoomID,
		GuestID:       req.GuestID,
		CheckInDate:   req.CheckInDate,
		CheckOutDate:  req.CheckOutDate,
		PricePerNight: req.PricePerNight,
	}, time.Now().UTC())
	if err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ============================================================================
// READ - GET /api/v1/bookings, GET /api/v1/bookings/:id
// ============================================================================

// GetBooking returns a booking with its fees
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{}
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.reader.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_booking"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListBookings returns bookings matching the query filters
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param guest_id query string false "Filter by guest"
// @Param room_id query string false "Filter by room"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var filter models.BookingFilter

	if raw := c.Query("guest_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guest_id"})
			return
		}
		filter.GuestID = &id
	}
	if raw := c.Query("room_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
			return
		}
		filter.RoomID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := models.BookingStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return
		}
		filter.ToDate = &to
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	bookings, err := h.reader.ListBookings(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ============================================================================
// TRANSITIONS - POST /api/v1/bookings/:id/{cancel,check-in,check-out}
// ============================================================================

// CancelBooking cancels a pending or confirmed booking
// @Summary Cancel booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, _, err := h.lifecycleService.CancelBooking(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CheckIn marks the guest as arrived
// @Summary Check in
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Too early"
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Router /bookings/{id}/check-in [post]
func (h *BookingHandler) CheckIn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.lifecycleService.CheckIn(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CheckOut completes the stay, appending an overstay fee when applicable
// @Summary Check out
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Router /bookings/{id}/check-out [post]
func (h *BookingHandler) CheckOut(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, _, err := h.lifecycleService.CheckOut(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
