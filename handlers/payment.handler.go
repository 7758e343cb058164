package handlers

import (
	"net/http"

	"booking-service/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type PaymentHandler struct {
	bookingService services.BookingService
	Tracer         trace.Tracer
	logger         *logrus.Logger
}

func NewPaymentHandler(bookingService services.BookingService, tr trace.Tracer, logger *logrus.Logger) PaymentHandler {
	return PaymentHandler{bookingService, tr, logger}
}

// VerifyPayment settles a transaction after the guest returns from the
// payment page. The outcome comes from the gateway's verify endpoint, not
// from anything the client claims.
func (s *PaymentHandler) VerifyPayment(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "PaymentHandler.VerifyPayment")
	defer span.End()

	var body struct {
		Reference string `json:"reference" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide the transaction reference."})
		return
	}

	booking, err := s.bookingService.VerifyPayment(spanCtx, c.Param("bookingId"), body.Reference)
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Webhook handles Paystack event deliveries. It runs the same server-side
// verification as the user-facing path, so a duplicate delivery or a
// delivery racing a page reload settles to the same result. Paystack
// retries anything that is not a 200, so storage errors are the only case
// worth failing on.
func (s *PaymentHandler) Webhook(c *gin.Context) {
	spanCtx, span := s.Tracer.Start(c.Request.Context(), "PaymentHandler.Webhook")
	defer span.End()

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
			Metadata  struct {
				BookingID string `json:"booking_id"`
			} `json:"metadata"`
		} `json:"data"`
	}

	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload."})
		return
	}

	if event.Event != "charge.success" && event.Event != "charge.failed" {
		c.Status(http.StatusOK)
		return
	}

	if event.Data.Metadata.BookingID == "" || event.Data.Reference == "" {
		c.Status(http.StatusOK)
		return
	}

	if _, err := s.bookingService.VerifyPayment(spanCtx, event.Data.Metadata.BookingID, event.Data.Reference); err != nil {
		span.SetStatus(codes.Error, "webhook verification failed")
		s.logger.WithFields(logrus.Fields{"path": "handlers/payment", "booking": event.Data.Metadata.BookingID}).Error("Webhook verification failed: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.Status(http.StatusOK)
}
