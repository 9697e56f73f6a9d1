package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soclink/soclink/internal/auth"
	"github.com/soclink/soclink/internal/core"
)

const actorKey = "actor"

// AuthRequired validates the bearer token and stores the resulting actor
// in the request context.
func AuthRequired(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := authSvc.Parse(tokenString)
		if err != nil || claims.Refresh {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(actorKey, claims.Actor())
		c.Next()
	}
}

// Actor returns the authenticated actor stored by AuthRequired.
func Actor(c *gin.Context) core.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(core.Actor)
	return actor
}

// RequireSOC rejects client-side actors.
func RequireSOC() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Actor(c).Kind() != core.ActorKindSOC {
			c.JSON(http.StatusForbidden, gin.H{"error": "SOC access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSOCAdmin rejects everyone but the administrative SOC role.
func RequireSOCAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Actor(c).Role != core.RoleSOCAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "SOC admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
