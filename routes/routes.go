package routes

import (
	"net/http"

	"order-entry-service/controllers"
	"order-entry-service/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.Engine,
	queueController *controllers.QueueController,
	cartController *controllers.CartController,
	checkoutController *controllers.CheckoutController,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	queue := r.Group("/queue")
	queue.Use(middleware.AuthMiddleware())
	{
		queue.POST("/join", queueController.Join)
		queue.GET("/status", queueController.Status)
		queue.DELETE("/leave", queueController.Leave)
	}

	cart := r.Group("/cart")
	cart.Use(middleware.AuthMiddleware())
	{
		cart.GET("", cartController.GetCart)
		cart.POST("/items", cartController.AddItem)
		cart.POST("/items/decrement", cartController.DecrementItem)
		cart.DELETE("/items/:product_id/:option_id", cartController.RemoveItem)
		cart.DELETE("", cartController.ClearCart)
	}

	checkout := r.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware())
	{
		checkout.POST("", checkoutController.PlaceOrder)
	}
}
