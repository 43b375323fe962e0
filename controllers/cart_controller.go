package controllers

import (
	"net/http"

	"order-entry-service/middleware"
	"order-entry-service/services"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService *services.CartService
}

func NewCartController(cartService *services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	OptionID  string `json:"option_id" binding:"required"`
	UnitPrice int64  `json:"unit_price"`
}

// GetCart returns the caller's current cart.
func (cc *CartController) GetCart(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, svcErr := cc.cartService.GetCart(c.Request.Context(), token)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds one unit of a product option to the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	cart, svcErr := cc.cartService.AddItem(c.Request.Context(), token, req.ProductID, req.OptionID, req.UnitPrice)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// DecrementItem removes one unit of a product option from the cart.
func (cc *CartController) DecrementItem(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	cart, svcErr := cc.cartService.DecrementItem(c.Request.Context(), token, req.ProductID, req.OptionID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem deletes a whole line from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	productID := c.Param("product_id")
	optionID := c.Param("option_id")

	cart, svcErr := cc.cartService.RemoveItem(c.Request.Context(), token, productID, optionID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart empties the caller's cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if svcErr := cc.cartService.ClearCart(c.Request.Context(), token); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
