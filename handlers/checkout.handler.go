package handlers

import (
	"errors"
	"net/http"
	"time"

	"booking-service/domain"
	"booking-service/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const dateLayout = "2006-01-02"

type CheckoutHandler struct {
	checkoutService services.CheckoutService
	roomService     services.RoomService
	Tracer          trace.Tracer
	logger          *logrus.Logger
}

func NewCheckoutHandler(checkoutService services.CheckoutService, roomService services.RoomService, tr trace.Tracer, logger *logrus.Logger) CheckoutHandler {
	return CheckoutHandler{checkoutService, roomService, tr, logger}
}

func ExtractTraceInfoMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *CheckoutHandler) GetRooms(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.GetRooms")
	defer span.End()

	rooms, err := s.roomService.GetRooms(spanCtx)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to load rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rooms. Try again later."})
		return
	}

	c.JSON(http.StatusOK, rooms)
}

func (s *CheckoutHandler) GetAddons(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.GetAddons")
	defer span.End()

	addons, err := s.roomService.GetAddons(spanCtx)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to load addons")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load add-ons. Try again later."})
		return
	}

	c.JSON(http.StatusOK, addons)
}

func (s *CheckoutHandler) StartSession(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.StartSession")
	defer span.End()

	session, err := s.checkoutService.StartSession(spanCtx)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to start session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start a checkout session. Try again later."})
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *CheckoutHandler) GetSession(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.GetSession")
	defer span.End()

	session, err := s.checkoutService.GetSession(spanCtx, c.Param("sessionId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) SetDates(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.SetDates")
	defer span.End()

	var body struct {
		CheckIn  string `json:"check_in" binding:"required"`
		CheckOut string `json:"check_out" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide check_in and check_out dates."})
		return
	}

	checkIn, errIn := time.Parse(dateLayout, body.CheckIn)
	checkOut, errOut := time.Parse(dateLayout, body.CheckOut)
	if errIn != nil || errOut != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must use the YYYY-MM-DD format."})
		return
	}

	session, err := s.checkoutService.SetDates(spanCtx, c.Param("sessionId"), checkIn, checkOut)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) AddRoom(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.AddRoom")
	defer span.End()

	var body struct {
		RoomID    string `json:"room_id" binding:"required"`
		Adults    int    `json:"adults" binding:"required,min=1"`
		ChildAges []int  `json:"child_ages"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide room_id and at least one adult."})
		return
	}

	roomID, err := primitive.ObjectIDFromHex(body.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id."})
		return
	}

	session, err := s.checkoutService.AddRoom(spanCtx, c.Param("sessionId"), roomID, body.Adults, body.ChildAges)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) RemoveRoom(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.RemoveRoom")
	defer span.End()

	roomID, err := primitive.ObjectIDFromHex(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id."})
		return
	}

	session, err := s.checkoutService.RemoveRoom(spanCtx, c.Param("sessionId"), roomID)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) UpdateGuests(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.UpdateGuests")
	defer span.End()

	var body struct {
		Adults    int   `json:"adults" binding:"required,min=1"`
		ChildAges []int `json:"child_ages"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide at least one adult."})
		return
	}

	roomID, err := primitive.ObjectIDFromHex(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id."})
		return
	}

	session, err := s.checkoutService.UpdateGuests(spanCtx, c.Param("sessionId"), roomID, body.Adults, body.ChildAges)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) SetAddon(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.SetAddon")
	defer span.End()

	var body struct {
		AddonID  string `json:"addon_id" binding:"required"`
		Quantity int    `json:"quantity"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide addon_id."})
		return
	}

	addonID, err := primitive.ObjectIDFromHex(body.AddonID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid addon id."})
		return
	}

	session, err := s.checkoutService.SetAddon(spanCtx, c.Param("sessionId"), addonID, body.Quantity)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) SetGuestDetails(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.SetGuestDetails")
	defer span.End()

	var guest domain.GuestDetails
	if err := c.ShouldBindJSON(&guest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide the guest contact details."})
		return
	}

	session, err := s.checkoutService.SetGuestDetails(spanCtx, c.Param("sessionId"), guest)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.ApplyCoupon")
	defer span.End()

	var body struct {
		Code string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide a coupon code."})
		return
	}

	session, err := s.checkoutService.ApplyCoupon(spanCtx, c.Param("sessionId"), body.Code)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.RemoveCoupon")
	defer span.End()

	session, err := s.checkoutService.RemoveCoupon(spanCtx, c.Param("sessionId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) ReloadPricing(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.ReloadPricing")
	defer span.End()

	session, err := s.checkoutService.ReloadPricing(spanCtx, c.Param("sessionId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) Advance(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.Advance")
	defer span.End()

	session, err := s.checkoutService.Advance(spanCtx, c.Param("sessionId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *CheckoutHandler) Back(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "CheckoutHandler.Back")
	defer span.End()

	session, err := s.checkoutService.Back(spanCtx, c.Param("sessionId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// respondError maps domain errors onto HTTP responses; the messages are
// user-facing.
func respondError(c *gin.Context, span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
		return
	}

	var cerr *domain.CouponError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": cerr.Reason})
		return
	}

	var uerr *domain.RoomsUnavailableError
	if errors.As(err, &uerr) {
		c.JSON(http.StatusConflict, gin.H{"error": uerr.Error(), "rooms": uerr.RoomNames})
		return
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrAddonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRoomUnavailable),
		errors.Is(err, domain.ErrMinStayNotMet),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBookingExpired),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrTooManyRetries):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPricingUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Try again later."})
	}
}
