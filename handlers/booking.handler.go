package handlers

import (
	"context"
	"net/http"
	"time"

	"booking-service/domain"
	"booking-service/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BookingHandler struct {
	bookingService services.BookingService
	retryService   services.RetryService
	Tracer         trace.Tracer
	logger         *logrus.Logger
}

func NewBookingHandler(bookingService services.BookingService, retryService services.RetryService, tr trace.Tracer, logger *logrus.Logger) BookingHandler {
	return BookingHandler{bookingService, retryService, tr, logger}
}

func (s *BookingHandler) CreateBooking(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "BookingHandler.CreateBooking")
	defer span.End()

	var body struct {
		SessionID string `json:"session_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide session_id."})
		return
	}

	booking, err := s.bookingService.CreateBooking(spanCtx, body.SessionID)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (s *BookingHandler) GetBooking(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "BookingHandler.GetBooking")
	defer span.End()

	booking, err := s.bookingService.GetBooking(spanCtx, c.Param("bookingId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (s *BookingHandler) InitiatePayment(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "BookingHandler.InitiatePayment")
	defer span.End()

	var body struct {
		Method string `json:"method" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide a payment method."})
		return
	}

	instruction, err := s.bookingService.InitiatePayment(spanCtx, c.Param("bookingId"), domain.PaymentMethod(body.Method))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, instruction)
}

// Abandon is fired from page-teardown hooks (sendBeacon style), so it must
// not depend on the client waiting for a response: the handler acknowledges
// immediately and the transition runs detached with its own deadline. A
// lost signal leaves the booking pending for the reconciliation sweep.
func (s *BookingHandler) Abandon(c *gin.Context) {
	_, span := s.Tracer.Start(c.Request.Context(), "BookingHandler.Abandon")
	defer span.End()

	bookingID := c.Param("bookingId")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.bookingService.Abandon(ctx, bookingID); err != nil {
			s.logger.WithFields(logrus.Fields{"path": "handlers/booking", "booking": bookingID}).Error("Abandon failed: ", err)
		}
	}()

	c.Status(http.StatusNoContent)
}

func (s *BookingHandler) MarkPaymentFailed(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "BookingHandler.MarkPaymentFailed")
	defer span.End()

	var body struct {
		Reason string `json:"reason"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	if err := s.bookingService.MarkPaymentFailed(spanCtx, c.Param("bookingId"), body.Reason); err != nil {
		respondError(c, span, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Retry resumes payment on a previously abandoned or failed booking: the
// frozen line items are re-priced at current rates and the response carries
// a pricing-changed warning when the totals drifted.
func (s *BookingHandler) Retry(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "BookingHandler.Retry")
	defer span.End()

	resolution, err := s.retryService.Resolve(spanCtx, c.Param("bookingId"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	if resolution.PricingChanged {
		span.SetStatus(codes.Ok, "pricing changed")
	}

	c.JSON(http.StatusOK, resolution)
}
