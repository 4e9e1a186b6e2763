package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glefebvre/mediacatalog/internal/billing"
	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/logger"
)

// tagUser attaches userID to the request context so every entry logged for it carries user_id
func tagUser(c *gin.Context, userID string) {
	if userID == "" {
		return
	}
	c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), userID))
}

func (s *Server) plans(c *gin.Context) {
	plans, err := s.billing.Plans(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) createSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInputError("body", "invalid request body"))
		return
	}

	link, err := s.billing.CreateSubscription(c.Request.Context(), req.PlanID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approvalUrl": link})
}

func (s *Server) saveSubscription(c *gin.Context) {
	var req billing.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInputError("body", "invalid request body"))
		return
	}

	tagUser(c, req.UserID)
	sub, err := s.billing.SaveSubscription(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubscription(sub))
}

func (s *Server) showSubscription(c *gin.Context) {
	status, err := s.billing.SubscriptionStatus(c.Request.Context(), c.Query("subscriptionId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Server) getUserPlan(c *gin.Context) {
	userID := c.Query("userId")
	tagUser(c, userID)
	sub, err := s.billing.GetUserPlan(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubscription(sub))
}

func (s *Server) webhook(c *gin.Context) {
	var event billing.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		s.respondError(c, apperrors.InvalidInputError("body", "invalid webhook payload"))
		return
	}

	if err := s.billing.HandleWebhook(c.Request.Context(), event); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
