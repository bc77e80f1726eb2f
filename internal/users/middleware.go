package users

import (
	"github.com/docflow/review-service/pkg/logger"
	"github.com/docflow/review-service/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RecordActor stores the authenticated actor's profile. It runs after
// middleware.AuthMiddleware; a failed write is logged and the request goes on.
func RecordActor(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a, ok := middleware.CurrentActor(c); ok {
			if _, err := s.UpsertFromActor(c.Request.Context(), a); err != nil {
				logger.Warnf("record profile for %s: %v", a.ID, err)
			}
		}
		c.Next()
	}
}
