package routes

import (
	"booking-service/handlers"

	"github.com/gin-gonic/gin"
)

type CheckoutRouteHandler struct {
	checkoutHandler handlers.CheckoutHandler
}

func NewCheckoutRouteHandler(checkoutHandler handlers.CheckoutHandler) CheckoutRouteHandler {
	return CheckoutRouteHandler{checkoutHandler}
}

func (rc *CheckoutRouteHandler) CheckoutRoute(rg *gin.RouterGroup) {
	router := rg.Group("/checkout")
	router.Use(handlers.ExtractTraceInfoMiddleware())
	router.GET("/rooms", rc.checkoutHandler.GetRooms)
	router.GET("/addons", rc.checkoutHandler.GetAddons)
	router.POST("/sessions", rc.checkoutHandler.StartSession)
	router.GET("/sessions/:sessionId", rc.checkoutHandler.GetSession)
	router.PUT("/sessions/:sessionId/dates", rc.checkoutHandler.SetDates)
	router.POST("/sessions/:sessionId/rooms", rc.checkoutHandler.AddRoom)
	router.DELETE("/sessions/:sessionId/rooms/:roomId", rc.checkoutHandler.RemoveRoom)
	router.PUT("/sessions/:sessionId/rooms/:roomId/guests", rc.checkoutHandler.UpdateGuests)
	router.PUT("/sessions/:sessionId/addons", rc.checkoutHandler.SetAddon)
	router.PUT("/sessions/:sessionId/guest", rc.checkoutHandler.SetGuestDetails)
	router.POST("/sessions/:sessionId/coupon", rc.checkoutHandler.ApplyCoupon)
	router.DELETE("/sessions/:sessionId/coupon", rc.checkoutHandler.RemoveCoupon)
	router.POST("/sessions/:sessionId/pricing/reload", rc.checkoutHandler.ReloadPricing)
	router.POST("/sessions/:sessionId/next", rc.checkoutHandler.Advance)
	router.POST("/sessions/:sessionId/back", rc.checkoutHandler.Back)
}
