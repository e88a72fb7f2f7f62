package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/policy"
)

// AssignmentMemo gives every request its own assignment lookup memo.
func AssignmentMemo() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(policy.WithRequestMemo(c.Request.Context()))
		c.Next()
	}
}
