package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const employeeContextKey = "employee"

// Middleware validates the Bearer token and stores the employee name on
// the request context for handlers to read.
func Middleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" || tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		employee, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(employeeContextKey, employee)
		c.Next()
	}
}

// EmployeeFromContext returns the authenticated employee name, or the
// empty string when the request was not authenticated.
func EmployeeFromContext(c *gin.Context) string {
	employee, _ := c.Get(employeeContextKey)
	name, _ := employee.(string)
	return name
}
