package controllers

import (
	"net/http"

	"order-entry-service/middleware"
	"order-entry-service/services"

	"github.com/gin-gonic/gin"
)

type QueueController struct {
	queueService *services.QueueService
}

func NewQueueController(queueService *services.QueueService) *QueueController {
	return &QueueController{queueService: queueService}
}

// Join enqueues the caller, or returns current state if already queued.
func (qc *QueueController) Join(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	status, svcErr := qc.queueService.Join(c.Request.Context(), token)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Status is the client's heartbeat: it refreshes liveness and reports rank.
func (qc *QueueController) Status(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	status, svcErr := qc.queueService.Poll(c.Request.Context(), token)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Leave abandons the caller's place in line.
func (qc *QueueController) Leave(c *gin.Context) {
	token, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if svcErr := qc.queueService.Leave(c.Request.Context(), token); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left queue"})
}
