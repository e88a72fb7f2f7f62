package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/middleware"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/pkg/logger"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext returns the authenticated actor and tags the request log with it.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}, false
	}
	c.Set(logger.ActorKey, claims.UserID)
	return claims.Actor(), true
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

func submissionQuery(c *gin.Context) dto.SubmissionQuery {
	page, size := pageParams(c)
	query := dto.SubmissionQuery{
		TraineeID: strings.TrimSpace(c.Query("trainee_id")),
		AuthorID:  strings.TrimSpace(c.Query("author_id")),
		Page:      page,
		PageSize:  size,
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				query.Status = append(query.Status, models.SubmissionStatus(part))
			}
		}
	}
	return query
}
