package controllers

import (
	"net/http"

	"order-entry-service/middleware"
	"order-entry-service/services"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutController(checkoutService *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// PlaceOrder turns the caller's cart into an order, if they were admitted.
func (cc *CheckoutController) PlaceOrder(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, svcErr := cc.checkoutService.PlaceOrder(c.Request.Context(), token)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusCreated, order)
}
