package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// StandardErrorResponse middleware pour standardiser les réponses d'erreur
func StandardErrorResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Si c'est une erreur et qu'aucune réponse n'a été envoyée
		if c.Writer.Status() >= 400 && !c.Writer.Written() {
			c.JSON(c.Writer.Status(), gin.H{
				"error":     http.StatusText(c.Writer.Status()),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"path":      c.Request.URL.Path,
			})
		}
	}
}

// RateLimitMiddleware - Rate limiting par IP sur une fenêtre glissante d'une minute
func RateLimitMiddleware(requestsPerMinute int) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string][]time.Time)

	return func(c *gin.Context) {
		if requestsPerMinute <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		now := time.Now()

		mu.Lock()
		// Nettoyer les anciens timestamps (> 1 minute)
		var recent []time.Time
		for _, timestamp := range clients[clientIP] {
			if now.Sub(timestamp) < time.Minute {
				recent = append(recent, timestamp)
			}
		}

		limited := len(recent) >= requestsPerMinute
		if !limited {
			recent = append(recent, now)
		}
		if len(recent) == 0 {
			delete(clients, clientIP)
		} else {
			clients[clientIP] = recent
		}
		mu.Unlock()

		if limited {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "60 seconds",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SecurityHeadersMiddleware ajoute des headers de sécurité et le CORS
func SecurityHeadersMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
