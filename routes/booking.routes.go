package routes

import (
	"booking-service/handlers"

	"github.com/gin-gonic/gin"
)

type BookingRouteHandler struct {
	bookingHandler handlers.BookingHandler
	paymentHandler handlers.PaymentHandler
}

func NewBookingRouteHandler(bookingHandler handlers.BookingHandler, paymentHandler handlers.PaymentHandler) BookingRouteHandler {
	return BookingRouteHandler{bookingHandler, paymentHandler}
}

func (rc *BookingRouteHandler) BookingRoute(rg *gin.RouterGroup) {
	router := rg.Group("/bookings")
	router.Use(handlers.ExtractTraceInfoMiddleware())
	router.POST("", rc.bookingHandler.CreateBooking)
	router.GET("/:bookingId", rc.bookingHandler.GetBooking)
	router.POST("/:bookingId/payment", rc.bookingHandler.InitiatePayment)
	router.POST("/:bookingId/payment/verify", rc.paymentHandler.VerifyPayment)
	router.POST("/:bookingId/abandon", rc.bookingHandler.Abandon)
	router.POST("/:bookingId/fail", rc.bookingHandler.MarkPaymentFailed)
	router.POST("/:bookingId/retry", rc.bookingHandler.Retry)

	webhooks := rg.Group("/payments")
	webhooks.POST("/webhook", rc.paymentHandler.Webhook)
}
